package borrowers

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

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

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.Exec(`
		CREATE TABLE borrowers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			member_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			email TEXT
		)
	`)
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE lendings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			book_id INTEGER NOT NULL,
			borrower_id INTEGER NOT NULL,
			borrow_date TIMESTAMPTZ NOT NULL,
			due_date TIMESTAMPTZ NOT NULL,
			return_date TIMESTAMPTZ,
			status TEXT NOT NULL
		)
	`)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func insertBorrower(t *testing.T, svc *Service, memberID string) *models.Borrower {
	t.Helper()

	borrower := &models.Borrower{
		MemberID: memberID,
		Name:     "Ada Lovelace",
		Role:     "Associate",
	}
	require.NoError(t, svc.CreateBorrower(context.Background(), borrower))
	return borrower
}

func TestService_CreateBorrower_RejectsDuplicateMemberID(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)

	insertBorrower(t, svc, "M-001")

	err := svc.CreateBorrower(context.Background(), &models.Borrower{MemberID: "M-001", Name: "Other"})
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusConflict, errResp.HTTPCode)
}

func TestService_DeleteBorrower_RejectsWithOpenLoans(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)

	borrower := insertBorrower(t, svc, "M-001")

	now := time.Now()
	_, err := db.Exec(`
		INSERT INTO lendings (book_id, borrower_id, borrow_date, due_date, status)
		VALUES (1, ?, ?, ?, ?)
	`, borrower.ID, now, now.AddDate(0, 0, 14), models.LendingStatusBorrowed)
	require.NoError(t, err)

	err = svc.DeleteBorrower(context.Background(), borrower.ID)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusConflict, errResp.HTTPCode)
}

func TestService_DeleteBorrower_AllowsWithOnlyReturnedLoans(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	borrower := insertBorrower(t, svc, "M-001")

	now := time.Now()
	_, err := db.Exec(`
		INSERT INTO lendings (book_id, borrower_id, borrow_date, due_date, return_date, status)
		VALUES (1, ?, ?, ?, ?, ?)
	`, borrower.ID, now.AddDate(0, 0, -20), now.AddDate(0, 0, -6), now, models.LendingStatusReturned)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBorrower(ctx, borrower.ID))

	_, err = svc.RetrieveBorrower(ctx, RetrieveBorrowerOptions{ID: &borrower.ID})
	require.Error(t, err)
}

func TestService_ListBorrowers_Search(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	insertBorrower(t, svc, "M-001")
	other := &models.Borrower{MemberID: "M-002", Name: "Grace Hopper"}
	require.NoError(t, svc.CreateBorrower(ctx, other))

	borrowers, total, err := svc.ListBorrowersWithTotal(ctx, ListBorrowersOptions{Search: strPtr("grace")})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, borrowers, 1)
	assert.Equal(t, "M-002", borrowers[0].MemberID)
}

func strPtr(s string) *string {
	return &s
}
