package borrowers

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

type RetrieveBorrowerOptions struct {
	ID       *int
	MemberID *string
}

type ListBorrowersOptions struct {
	Limit  *int
	Offset *int
	Search *string

	includeTotal bool
}

type UpdateBorrowerOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateBorrower inserts a new borrower. The member ID must be unique.
func (svc *Service) CreateBorrower(ctx context.Context, borrower *models.Borrower) error {
	existing, err := svc.RetrieveBorrower(ctx, RetrieveBorrowerOptions{MemberID: &borrower.MemberID})
	if err == nil && existing != nil {
		return errcodes.Conflict("A borrower with this member ID already exists")
	}
	if err != nil && !errors.Is(err, errcodes.NotFound("Borrower")) {
		return err
	}

	now := time.Now()
	if borrower.CreatedAt.IsZero() {
		borrower.CreatedAt = now
	}
	borrower.UpdatedAt = borrower.CreatedAt

	_, err = svc.db.
		NewInsert().
		Model(borrower).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveBorrower(ctx context.Context, opts RetrieveBorrowerOptions) (*models.Borrower, error) {
	borrower := &models.Borrower{}

	q := svc.db.
		NewSelect().
		Model(borrower)

	if opts.ID != nil {
		q = q.Where("bw.id = ?", *opts.ID)
	}
	if opts.MemberID != nil {
		q = q.Where("bw.member_id = ? COLLATE NOCASE", *opts.MemberID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Borrower")
		}
		return nil, errors.WithStack(err)
	}

	return borrower, nil
}

func (svc *Service) ListBorrowers(ctx context.Context, opts ListBorrowersOptions) ([]*models.Borrower, error) {
	b, _, err := svc.listBorrowersWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBorrowersWithTotal(ctx context.Context, opts ListBorrowersOptions) ([]*models.Borrower, int, error) {
	opts.includeTotal = true
	return svc.listBorrowersWithTotal(ctx, opts)
}

func (svc *Service) listBorrowersWithTotal(ctx context.Context, opts ListBorrowersOptions) ([]*models.Borrower, int, error) {
	var borrowers []*models.Borrower
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&borrowers).
		Order("bw.name ASC")

	if opts.Search != nil && *opts.Search != "" {
		search := "%" + strings.ToLower(*opts.Search) + "%"
		q = q.Where("(LOWER(bw.name) LIKE ? OR LOWER(bw.member_id) LIKE ?)", search, search)
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

	return borrowers, total, nil
}

func (svc *Service) UpdateBorrower(ctx context.Context, borrower *models.Borrower, opts UpdateBorrowerOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	now := time.Now()
	borrower.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(borrower).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Borrower")
		}
		return errors.WithStack(err)
	}
	return nil
}

// OpenLoanCount returns the number of lendings for this borrower that have
// not been returned.
func (svc *Service) OpenLoanCount(ctx context.Context, borrowerID int) (int, error) {
	count, err := svc.db.NewSelect().
		Model((*models.Lending)(nil)).
		Where("borrower_id = ?", borrowerID).
		Where("status != ?", models.LendingStatusReturned).
		Count(ctx)
	return count, errors.WithStack(err)
}

// DeleteBorrower removes a borrower. Borrowers holding open loans cannot be
// deleted.
func (svc *Service) DeleteBorrower(ctx context.Context, borrowerID int) error {
	open, err := svc.OpenLoanCount(ctx, borrowerID)
	if err != nil {
		return err
	}
	if open > 0 {
		return errcodes.Conflict("Borrower has open loans and cannot be deleted")
	}

	res, err := svc.db.NewDelete().
		Model((*models.Borrower)(nil)).
		Where("id = ?", borrowerID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Borrower")
	}
	return nil
}
