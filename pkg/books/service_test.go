package books

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
		CREATE TABLE books (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			book_id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			total_copies INTEGER NOT NULL,
			available_copies INTEGER NOT NULL
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

func insertBook(t *testing.T, svc *Service, bookID string, total, available int) *models.Book {
	t.Helper()

	book := &models.Book{
		BookID:          bookID,
		Title:           "The Go Programming Language",
		Author:          "Donovan & Kernighan",
		TotalCopies:     total,
		AvailableCopies: available,
	}
	require.NoError(t, svc.CreateBook(context.Background(), book))
	return book
}

func insertOpenLending(t *testing.T, db *bun.DB, bookID int) {
	t.Helper()

	now := time.Now()
	_, err := db.Exec(`
		INSERT INTO lendings (book_id, borrower_id, borrow_date, due_date, status)
		VALUES (?, 1, ?, ?, ?)
	`, bookID, now, now.AddDate(0, 0, 14), models.LendingStatusBorrowed)
	require.NoError(t, err)
}

func TestService_CreateBook_RejectsDuplicateCatalogNumber(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)

	insertBook(t, svc, "BK-001", 3, 3)

	err := svc.CreateBook(context.Background(), &models.Book{
		BookID:          "BK-001",
		Title:           "Another",
		Author:          "Someone",
		TotalCopies:     1,
		AvailableCopies: 1,
	})
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusConflict, errResp.HTTPCode)
}

func TestService_RetrieveBook_NotFound(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)

	_, err := svc.RetrieveBook(context.Background(), RetrieveBookOptions{BookID: strPtr("BK-404")})
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusNotFound, errResp.HTTPCode)
}

func TestService_ListBooks_SearchMatchesTitleAuthorAndCatalogNumber(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	insertBook(t, svc, "BK-001", 2, 2)

	other := &models.Book{BookID: "BK-002", Title: "Clean Code", Author: "Martin", TotalCopies: 1, AvailableCopies: 1}
	require.NoError(t, svc.CreateBook(ctx, other))

	books, total, err := svc.ListBooksWithTotal(ctx, ListBooksOptions{Search: strPtr("kernighan")})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, books, 1)
	assert.Equal(t, "BK-001", books[0].BookID)

	books, _, err = svc.ListBooksWithTotal(ctx, ListBooksOptions{Search: strPtr("bk-002")})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Clean Code", books[0].Title)
}

func TestService_OpenLoanCount(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)

	book := insertBook(t, svc, "BK-001", 3, 1)
	insertOpenLending(t, db, book.ID)
	insertOpenLending(t, db, book.ID)

	count, err := svc.OpenLoanCount(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestService_DeleteBook_RejectsWithOpenLoans(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)

	book := insertBook(t, svc, "BK-001", 2, 1)
	insertOpenLending(t, db, book.ID)

	err := svc.DeleteBook(context.Background(), book.ID)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusConflict, errResp.HTTPCode)
}

func TestService_DeleteBook_RemovesBookWithoutOpenLoans(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := insertBook(t, svc, "BK-001", 2, 2)

	require.NoError(t, svc.DeleteBook(ctx, book.ID))

	_, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	require.Error(t, err)
}

func strPtr(s string) *string {
	return &s
}
