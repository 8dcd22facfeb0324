package lendings

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/caseshelf/caseshelf/pkg/mailer"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type RetrieveLendingOptions struct {
	ID *int
}

type ListLendingsOptions struct {
	Limit      *int
	Offset     *int
	Status     *string
	BookID     *int
	BorrowerID *int

	includeTotal bool
}

// BorrowOptions describes a borrow request. DueDate falls back to the
// service's default loan period when zero.
type BorrowOptions struct {
	BookID     int
	BorrowerID int
	DueDate    time.Time
}

// NotifyOverdueResult summarizes a notification run.
type NotifyOverdueResult struct {
	Overdue  int `json:"overdue"`
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

type Service struct {
	db              *bun.DB
	notifier        mailer.Notifier
	defaultLoanDays int
}

func NewService(db *bun.DB, notifier mailer.Notifier, defaultLoanDays int) *Service {
	return &Service{db, notifier, defaultLoanDays}
}

// Borrow checks out one copy of a book to a borrower. The availability
// decrement is a conditional update inside the transaction, so two concurrent
// borrows of the last copy cannot both succeed.
func (svc *Service) Borrow(ctx context.Context, opts BorrowOptions) (*models.Lending, error) {
	now := time.Now()
	dueDate := opts.DueDate
	if dueDate.IsZero() {
		dueDate = now.AddDate(0, 0, svc.defaultLoanDays)
	}

	lending := &models.Lending{
		BookID:     opts.BookID,
		BorrowerID: opts.BorrowerID,
		BorrowDate: now,
		DueDate:    dueDate,
		Status:     models.LendingStatusBorrowed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Borrower)(nil)).
			Where("id = ?", opts.BorrowerID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Borrower")
		}

		book := &models.Book{}
		err = tx.NewSelect().
			Model(book).
			Where("b.id = ?", opts.BookID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Book")
			}
			return errors.WithStack(err)
		}

		res, err := tx.NewUpdate().
			Model((*models.Book)(nil)).
			Set("available_copies = available_copies - 1").
			Set("updated_at = ?", now).
			Where("id = ?", opts.BookID).
			Where("available_copies > 0").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NoCopiesAvailable(book.BookID)
		}

		_, err = tx.NewInsert().
			Model(lending).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	return svc.RetrieveLending(ctx, RetrieveLendingOptions{ID: &lending.ID})
}

// Return closes out a lending and puts the copy back on the shelf. Returning
// the same lending twice is rejected so the availability count can never be
// incremented twice for one loan.
func (svc *Service) Return(ctx context.Context, lendingID int) (*models.Lending, error) {
	now := time.Now()

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		lending := &models.Lending{}
		err := tx.NewSelect().
			Model(lending).
			Where("l.id = ?", lendingID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Lending")
			}
			return errors.WithStack(err)
		}

		if lending.Status == models.LendingStatusReturned {
			return errcodes.AlreadyReturned()
		}

		_, err = tx.NewUpdate().
			Model((*models.Book)(nil)).
			Set("available_copies = available_copies + 1").
			Set("updated_at = ?", now).
			Where("id = ?", lending.BookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewUpdate().
			Model((*models.Lending)(nil)).
			Set("status = ?", models.LendingStatusReturned).
			Set("return_date = ?", now).
			Set("updated_at = ?", now).
			Where("id = ?", lendingID).
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	return svc.RetrieveLending(ctx, RetrieveLendingOptions{ID: &lendingID})
}

func (svc *Service) RetrieveLending(ctx context.Context, opts RetrieveLendingOptions) (*models.Lending, error) {
	lending := &models.Lending{}

	q := svc.db.
		NewSelect().
		Model(lending).
		Relation("Book").
		Relation("Borrower")

	if opts.ID != nil {
		q = q.Where("l.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Lending")
		}
		return nil, errors.WithStack(err)
	}

	lending.Status = lending.EffectiveStatus(time.Now())

	return lending, nil
}

func (svc *Service) ListLendings(ctx context.Context, opts ListLendingsOptions) ([]*models.Lending, error) {
	l, _, err := svc.listLendingsWithTotal(ctx, opts)
	return l, errors.WithStack(err)
}

func (svc *Service) ListLendingsWithTotal(ctx context.Context, opts ListLendingsOptions) ([]*models.Lending, int, error) {
	opts.includeTotal = true
	return svc.listLendingsWithTotal(ctx, opts)
}

func (svc *Service) listLendingsWithTotal(ctx context.Context, opts ListLendingsOptions) ([]*models.Lending, int, error) {
	var lendings []*models.Lending
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&lendings).
		Relation("Book").
		Relation("Borrower").
		Order("l.borrow_date DESC")

	// The status filter goes by effective status: a loan past its due date
	// counts as overdue even if no notification run has flagged it yet.
	if opts.Status != nil && *opts.Status != "" {
		now := time.Now()
		switch *opts.Status {
		case models.LendingStatusOverdue:
			q = q.Where("(l.status = ? OR (l.status = ? AND l.due_date < ?))",
				models.LendingStatusOverdue, models.LendingStatusBorrowed, now)
		case models.LendingStatusBorrowed:
			q = q.Where("l.status = ?", models.LendingStatusBorrowed).
				Where("l.due_date >= ?", now)
		default:
			q = q.Where("l.status = ?", *opts.Status)
		}
	}
	if opts.BookID != nil {
		q = q.Where("l.book_id = ?", *opts.BookID)
	}
	if opts.BorrowerID != nil {
		q = q.Where("l.borrower_id = ?", *opts.BorrowerID)
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

	// Responses carry the effective status, so a loan past its due date reads
	// as overdue even before a notification run has rewritten the row.
	now := time.Now()
	for _, lending := range lendings {
		lending.Status = lending.EffectiveStatus(now)
	}

	return lendings, total, nil
}

// NotifyOverdue emails every borrower holding an overdue loan and flags the
// loan as overdue once the email goes out. One failed send never aborts the
// run; failures are logged and counted.
func (svc *Service) NotifyOverdue(ctx context.Context) (*NotifyOverdueResult, error) {
	log := logger.FromContext(ctx)
	now := time.Now()

	var lendings []*models.Lending
	err := svc.db.NewSelect().
		Model(&lendings).
		Relation("Book").
		Relation("Borrower").
		Where("(l.status = ? OR (l.status = ? AND l.due_date < ?))",
			models.LendingStatusOverdue, models.LendingStatusBorrowed, now).
		Order("l.due_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	result := &NotifyOverdueResult{Overdue: len(lendings)}
	for _, lending := range lendings {
		itemLog := log.Data(logger.Data{"lending_id": lending.ID, "borrower_id": lending.BorrowerID})

		if lending.Borrower == nil || lending.Borrower.Email == nil || *lending.Borrower.Email == "" {
			itemLog.Info("borrower has no email, skipping overdue notice")
			result.Skipped++
			continue
		}

		subject := "Overdue book reminder"
		body := overdueEmailBody(lending)
		if err := svc.notifier.Send(ctx, *lending.Borrower.Email, subject, body); err != nil {
			itemLog.Err(err).Error("failed to send overdue notice")
			result.Failed++
			continue
		}

		if lending.Status != models.LendingStatusOverdue {
			_, err := svc.db.NewUpdate().
				Model((*models.Lending)(nil)).
				Set("status = ?", models.LendingStatusOverdue).
				Set("updated_at = ?", now).
				Where("id = ?", lending.ID).
				Exec(ctx)
			if err != nil {
				itemLog.Err(err).Error("failed to flag lending as overdue")
				result.Failed++
				continue
			}
		}
		result.Notified++
	}

	return result, nil
}

func overdueEmailBody(lending *models.Lending) string {
	title := "a book"
	if lending.Book != nil {
		title = fmt.Sprintf("%q by %s", lending.Book.Title, lending.Book.Author)
	}
	name := "there"
	if lending.Borrower != nil {
		name = lending.Borrower.Name
	}
	return fmt.Sprintf(
		"<p>Hi %s,</p><p>The book %s was due back on %s. Please return it as soon as possible.</p>",
		name, title, lending.DueDate.Format("January 2, 2006"),
	)
}
