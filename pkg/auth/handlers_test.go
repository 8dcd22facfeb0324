package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/caseshelf/caseshelf/pkg/binder"
	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/labstack/echo/v4"
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

func newTestContext(t *testing.T, payload, method, path string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func insertUser(t *testing.T, db *bun.DB, email string, role models.Role, password string) int {
	t.Helper()

	hashed, err := HashPassword(password)
	require.NoError(t, err)

	res, err := db.Exec(`
		INSERT INTO users (email, name, role, password_hash, is_active)
		VALUES (?, ?, ?, ?, 1)
	`, email, "Test User", role, hashed)
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)
	return int(id)
}

func TestHandler_Setup_RejectsWhenUsersExist(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	insertUser(t, db, "existing@example.com", models.RoleSuperAdmin, "securepassword123")

	payload := `{"name":"New Admin","email":"new@example.com","password":"securepassword123"}`
	c, _ := newTestContext(t, payload, http.MethodPost, "/auth/setup")

	err := h.setup(c)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusForbidden, errResp.HTTPCode)
	assert.Contains(t, errResp.Message, "Setup has already been completed")
}

func TestHandler_Setup_CreatesSuperAdmin(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	payload := `{"name":"First Admin","email":"admin@example.com","password":"securepassword123"}`
	c, rr := newTestContext(t, payload, http.MethodPost, "/auth/setup")

	err := h.setup(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp MeResponse
	err = json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, resp.Role)
	assert.ElementsMatch(t, permissionStrings(models.Catalog), resp.Permissions)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestHandler_Login_ReturnsEffectivePermissions(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	userID := insertUser(t, db, "librarian@example.com", models.RoleLibrarian, "securepassword123")

	// Explicit grant on top of the role defaults.
	_, err := db.Exec(`INSERT INTO user_permissions (user_id, permission) VALUES (?, ?)`, userID, models.PermUsersRead)
	require.NoError(t, err)

	payload := `{"email":"librarian@example.com","password":"securepassword123"}`
	c, rr := newTestContext(t, payload, http.MethodPost, "/auth/login")

	err = h.login(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp MeResponse
	err = json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, models.RoleLibrarian, resp.Role)
	assert.Contains(t, resp.Permissions, string(models.PermBooksCreate))
	assert.Contains(t, resp.Permissions, string(models.PermUsersRead))
	assert.NotContains(t, resp.Permissions, string(models.PermUsersDelete))
}

func TestHandler_Login_RejectsWrongPassword(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	insertUser(t, db, "user@example.com", models.RoleUser, "securepassword123")

	payload := `{"email":"user@example.com","password":"wrongpassword1"}`
	c, _ := newTestContext(t, payload, http.MethodPost, "/auth/login")

	err := h.login(c)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusUnauthorized, errResp.HTTPCode)
}

func TestHandler_Login_RejectsInactiveUser(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	userID := insertUser(t, db, "inactive@example.com", models.RoleUser, "securepassword123")
	_, err := db.Exec(`UPDATE users SET is_active = 0 WHERE id = ?`, userID)
	require.NoError(t, err)

	payload := `{"email":"inactive@example.com","password":"securepassword123"}`
	c, _ := newTestContext(t, payload, http.MethodPost, "/auth/login")

	err = h.login(c)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusUnauthorized, errResp.HTTPCode)
}

func TestHandler_Me_RejectsMissingSession(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	c, _ := newTestContext(t, "", http.MethodGet, "/auth/me")

	err := h.me(c)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusUnauthorized, errResp.HTTPCode)
}

func TestHandler_Me_AcceptsBearerHeader(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	insertUser(t, db, "librarian@example.com", models.RoleLibrarian, "securepassword123")

	user, err := svc.GetUserByEmail(context.Background(), "librarian@example.com")
	require.NoError(t, err)
	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	c, rr := newTestContext(t, "", http.MethodGet, "/auth/me")
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+token)

	err = h.me(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp MeResponse
	err = json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "librarian@example.com", resp.Email)
}

func permissionStrings(perms []models.Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}
