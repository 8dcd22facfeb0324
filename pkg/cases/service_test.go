package cases

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"testing"

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
		CREATE TABLE cases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			case_number TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			client_name TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			signed_by_id INTEGER,
			signed_at TIMESTAMPTZ
		)
	`)
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			title TEXT NOT NULL,
			case_id INTEGER,
			url TEXT NOT NULL DEFAULT '',
			public_id TEXT NOT NULL DEFAULT '',
			mime_type TEXT NOT NULL DEFAULT '',
			size_bytes INTEGER NOT NULL DEFAULT 0
		)
	`)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *captureNotifier) Send(_ context.Context, to, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, to)
	return nil
}

func newTestService(t *testing.T) (*Service, *bun.DB, *captureNotifier) {
	t.Helper()
	db := setupTestDB(t)
	notifier := &captureNotifier{}
	return NewService(db, notifier), db, notifier
}

func insertCase(t *testing.T, svc *Service, caseNumber string) *models.Case {
	t.Helper()
	kase := &models.Case{
		CaseNumber: caseNumber,
		Title:      "Estate of Byron",
		ClientName: "Ada Lovelace",
	}
	require.NoError(t, svc.CreateCase(context.Background(), kase))
	return kase
}

func insertUser(t *testing.T, db *bun.DB, email string) int {
	t.Helper()
	res, err := db.Exec(`INSERT INTO users (email, name, role) VALUES (?, 'Counsel', ?)`, email, models.RoleAdmin)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return int(id)
}

func TestService_CreateCase_DefaultsToOpen(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	kase := insertCase(t, svc, "2026-CV-001")
	assert.Equal(t, models.CaseStatusOpen, kase.Status)
}

func TestService_CreateCase_RejectsDuplicateCaseNumber(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	insertCase(t, svc, "2026-CV-001")

	err := svc.CreateCase(context.Background(), &models.Case{CaseNumber: "2026-CV-001", Title: "Other"})
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusConflict, errResp.HTTPCode)
}

func TestService_SignCase_IsOneShot(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	kase := insertCase(t, svc, "2026-CV-001")
	first := insertUser(t, db, "first@example.com")
	second := insertUser(t, db, "second@example.com")

	signed, err := svc.SignCase(ctx, kase.ID, first)
	require.NoError(t, err)
	require.NotNil(t, signed.SignedByID)
	assert.Equal(t, first, *signed.SignedByID)
	assert.NotNil(t, signed.SignedAt)

	_, err = svc.SignCase(ctx, kase.ID, second)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusConflict, errResp.HTTPCode)

	// The original signature is untouched.
	reloaded, err := svc.RetrieveCase(ctx, RetrieveCaseOptions{ID: &kase.ID})
	require.NoError(t, err)
	assert.Equal(t, first, *reloaded.SignedByID)
}

func TestService_SignCase_NotFound(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)

	userID := insertUser(t, db, "counsel@example.com")

	_, err := svc.SignCase(context.Background(), 999, userID)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusNotFound, errResp.HTTPCode)
}

func TestService_SendCaseByEmail(t *testing.T) {
	t.Parallel()
	svc, _, notifier := newTestService(t)

	kase := insertCase(t, svc, "2026-CV-001")

	require.NoError(t, svc.SendCaseByEmail(context.Background(), kase.ID, "client@example.com"))
	assert.Equal(t, []string{"client@example.com"}, notifier.sent)
}

func TestService_DeleteCase_DetachesDocuments(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	kase := insertCase(t, svc, "2026-CV-001")

	_, err := db.Exec(`INSERT INTO documents (title, case_id) VALUES ('Exhibit A', ?)`, kase.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCase(ctx, kase.ID))

	var caseID *int
	err = db.NewSelect().
		Model((*models.Document)(nil)).
		Column("case_id").
		Where("title = 'Exhibit A'").
		Scan(ctx, &caseID)
	require.NoError(t, err)
	assert.Nil(t, caseID)
}
