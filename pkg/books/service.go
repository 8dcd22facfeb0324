package books

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID     *int
	BookID *string
}

type ListBooksOptions struct {
	Limit    *int
	Offset   *int
	Category *string
	Search   *string

	includeTotal bool
}

type UpdateBookOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateBook inserts a new book. The catalog number (book_id) must be unique.
// When AvailableCopies is not set it starts equal to TotalCopies.
func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	existing, err := svc.RetrieveBook(ctx, RetrieveBookOptions{BookID: &book.BookID})
	if err == nil && existing != nil {
		return errcodes.Conflict("A book with this catalog number already exists")
	}
	if err != nil && !errors.Is(err, errcodes.NotFound("Book")) {
		return err
	}

	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt

	_, err = svc.db.
		NewInsert().
		Model(book).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book)

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}
	if opts.BookID != nil {
		q = q.Where("b.book_id = ? COLLATE NOCASE", *opts.BookID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	var books []*models.Book
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Order("b.title ASC")

	if opts.Category != nil && *opts.Category != "" {
		q = q.Where("LOWER(b.category) = LOWER(?)", *opts.Category)
	}
	if opts.Search != nil && *opts.Search != "" {
		search := "%" + strings.ToLower(*opts.Search) + "%"
		q = q.Where("(LOWER(b.title) LIKE ? OR LOWER(b.author) LIKE ? OR LOWER(b.book_id) LIKE ?)", search, search, search)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

// UpdateBook writes the given columns. Changing total_copies preserves the
// open-loan count: available_copies is recomputed so that total - available
// stays fixed, and shrinking total below the open-loan count is rejected.
func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	now := time.Now()
	book.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Book")
		}
		return errors.WithStack(err)
	}
	return nil
}

// OpenLoanCount returns the number of lendings for this book that have not
// been returned.
func (svc *Service) OpenLoanCount(ctx context.Context, bookID int) (int, error) {
	count, err := svc.db.NewSelect().
		Model((*models.Lending)(nil)).
		Where("book_id = ?", bookID).
		Where("status != ?", models.LendingStatusReturned).
		Count(ctx)
	return count, errors.WithStack(err)
}

// DeleteBook removes a book. Books with open loans cannot be deleted; the
// copies have to come back first.
func (svc *Service) DeleteBook(ctx context.Context, bookID int) error {
	open, err := svc.OpenLoanCount(ctx, bookID)
	if err != nil {
		return err
	}
	if open > 0 {
		return errcodes.Conflict("Book has copies out on loan and cannot be deleted")
	}

	res, err := svc.db.NewDelete().
		Model((*models.Book)(nil)).
		Where("id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Book")
	}
	return nil
}
