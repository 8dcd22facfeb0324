package users

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/caseshelf/caseshelf/pkg/auth"
	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.Exec(`
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			email TEXT NOT NULL UNIQUE COLLATE NOCASE,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			password_hash TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			invite_token TEXT,
			invite_expires_at TIMESTAMPTZ
		)
	`)
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE user_permissions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER REFERENCES users (id) ON DELETE CASCADE NOT NULL,
			permission TEXT NOT NULL,
			UNIQUE (user_id, permission)
		)
	`)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// captureNotifier records invite emails and can be told to fail every send.
type captureNotifier struct {
	mu       sync.Mutex
	sent     []string
	failWith error
}

func (n *captureNotifier) Send(_ context.Context, to, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.sent = append(n.sent, to)
	return nil
}

func newTestService(t *testing.T) (*Service, *bun.DB, *captureNotifier) {
	t.Helper()
	db := setupTestDB(t)
	notifier := &captureNotifier{}
	return NewService(db, notifier), db, notifier
}

func TestService_CreateUser_WithPasswordIsActive(t *testing.T) {
	t.Parallel()
	svc, _, notifier := newTestService(t)
	ctx := context.Background()

	password := "securepassword123"
	user := &models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleLibrarian}
	require.NoError(t, svc.CreateUser(ctx, user, &password))

	assert.True(t, user.IsActive)
	assert.Nil(t, user.InviteToken)
	assert.True(t, auth.CheckPassword(password, user.PasswordHash))
	assert.Empty(t, notifier.sent)
}

func TestService_CreateUser_WithoutPasswordSendsInvite(t *testing.T) {
	t.Parallel()
	svc, _, notifier := newTestService(t)
	ctx := context.Background()

	user := &models.User{Name: "Grace", Email: "grace@example.com", Role: models.RoleUser}
	require.NoError(t, svc.CreateUser(ctx, user, nil))

	assert.False(t, user.IsActive)
	require.NotNil(t, user.InviteToken)
	require.NotNil(t, user.InviteExpiresAt)
	assert.Equal(t, []string{"grace@example.com"}, notifier.sent)
}

func TestService_CreateUser_InviteMailFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	svc, _, notifier := newTestService(t)
	ctx := context.Background()
	notifier.failWith = errors.New("smtp connection refused")

	user := &models.User{Name: "Grace", Email: "grace@example.com", Role: models.RoleUser}
	require.NoError(t, svc.CreateUser(ctx, user, nil))

	// The row and token survive a failed send, so the invite can be resent
	// and a retried create doesn't hit the email uniqueness conflict.
	require.NotNil(t, user.InviteToken)
	reloaded, err := svc.RetrieveUser(ctx, RetrieveUserOptions{InviteToken: user.InviteToken})
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
}

func TestService_CreateUser_RejectsDuplicateEmail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	password := "securepassword123"
	require.NoError(t, svc.CreateUser(ctx, &models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleUser}, &password))

	err := svc.CreateUser(ctx, &models.User{Name: "Imposter", Email: "ADA@example.com", Role: models.RoleUser}, &password)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusConflict, errResp.HTTPCode)
}

func TestService_AcceptInvite_ActivatesAndClearsToken(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user := &models.User{Name: "Grace", Email: "grace@example.com", Role: models.RoleUser}
	require.NoError(t, svc.CreateUser(ctx, user, nil))
	token := *user.InviteToken

	accepted, err := svc.AcceptInvite(ctx, token, "newsecurepassword")
	require.NoError(t, err)

	assert.True(t, accepted.IsActive)
	assert.Nil(t, accepted.InviteToken)
	assert.True(t, auth.CheckPassword("newsecurepassword", accepted.PasswordHash))

	// Token is single-use.
	_, err = svc.AcceptInvite(ctx, token, "anothersecurepw")
	require.Error(t, err)
}

func TestService_AcceptInvite_RejectsExpiredToken(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	user := &models.User{Name: "Grace", Email: "grace@example.com", Role: models.RoleUser}
	require.NoError(t, svc.CreateUser(ctx, user, nil))

	_, err := db.Exec(`UPDATE users SET invite_expires_at = ? WHERE id = ?`, time.Now().Add(-time.Hour), user.ID)
	require.NoError(t, err)

	_, err = svc.AcceptInvite(ctx, *user.InviteToken, "newsecurepassword")
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusUnauthorized, errResp.HTTPCode)
}

func TestService_ReplacePermissions_SwapsGrants(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	password := "securepassword123"
	user := &models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleUser}
	require.NoError(t, svc.CreateUser(ctx, user, &password))

	require.NoError(t, svc.ReplacePermissions(ctx, user.ID, []models.Permission{models.PermBooksCreate, models.PermBooksUpdate}))
	require.NoError(t, svc.ReplacePermissions(ctx, user.ID, []models.Permission{models.PermLendingsCreate}))

	reloaded, err := svc.RetrieveUser(ctx, RetrieveUserOptions{ID: &user.ID})
	require.NoError(t, err)

	require.Len(t, reloaded.Permissions, 1)
	assert.Equal(t, models.PermLendingsCreate, reloaded.Permissions[0].Permission)
	assert.True(t, reloaded.HasPermission(models.PermLendingsCreate))
	assert.False(t, reloaded.HasPermission(models.PermBooksCreate))
}

func TestService_ReplacePermissions_RejectsUnknownToken(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	password := "securepassword123"
	user := &models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleUser}
	require.NoError(t, svc.CreateUser(ctx, user, &password))

	err := svc.ReplacePermissions(ctx, user.ID, []models.Permission{"books:*"})
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, errResp.HTTPCode)
}

func TestService_DeleteUser_RemovesGrants(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	password := "securepassword123"
	user := &models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleUser}
	require.NoError(t, svc.CreateUser(ctx, user, &password))
	require.NoError(t, svc.ReplacePermissions(ctx, user.ID, []models.Permission{models.PermBooksCreate}))

	require.NoError(t, svc.DeleteUser(ctx, user.ID))

	count, err := db.NewSelect().Model((*models.UserPermission)(nil)).Where("user_id = ?", user.ID).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = svc.RetrieveUser(ctx, RetrieveUserOptions{ID: &user.ID})
	require.Error(t, err)
}
