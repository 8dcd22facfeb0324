package dashboard

import (
	"context"
	"time"

	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Stats is the aggregate snapshot behind the dashboard.
type Stats struct {
	TotalBooks      int `json:"total_books"`
	TotalCopies     int `json:"total_copies"`
	AvailableCopies int `json:"available_copies"`
	TotalBorrowers  int `json:"total_borrowers"`
	OpenLoans       int `json:"open_loans"`
	OverdueLoans    int `json:"overdue_loans"`
	OpenCases       int `json:"open_cases"`
	TotalCases      int `json:"total_cases"`
	TotalDocuments  int `json:"total_documents"`
	TotalUsers      int `json:"total_users"`
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// GetStats collects the aggregate counts. The overdue count is derived from
// due dates, not from the persisted status, so it is correct even before a
// notification run.
func (svc *Service) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	now := time.Now()

	count, err := svc.db.NewSelect().Model((*models.Book)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats.TotalBooks = count

	err = svc.db.NewSelect().
		Model((*models.Book)(nil)).
		ColumnExpr("COALESCE(SUM(total_copies), 0)").
		Scan(ctx, &stats.TotalCopies)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	err = svc.db.NewSelect().
		Model((*models.Book)(nil)).
		ColumnExpr("COALESCE(SUM(available_copies), 0)").
		Scan(ctx, &stats.AvailableCopies)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	count, err = svc.db.NewSelect().Model((*models.Borrower)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats.TotalBorrowers = count

	count, err = svc.db.NewSelect().
		Model((*models.Lending)(nil)).
		Where("status != ?", models.LendingStatusReturned).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats.OpenLoans = count

	count, err = svc.db.NewSelect().
		Model((*models.Lending)(nil)).
		Where("(status = ? OR (status = ? AND due_date < ?))",
			models.LendingStatusOverdue, models.LendingStatusBorrowed, now).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats.OverdueLoans = count

	count, err = svc.db.NewSelect().
		Model((*models.Case)(nil)).
		Where("status = ?", models.CaseStatusOpen).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats.OpenCases = count

	count, err = svc.db.NewSelect().Model((*models.Case)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats.TotalCases = count

	count, err = svc.db.NewSelect().Model((*models.Document)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats.TotalDocuments = count

	count, err = svc.db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats.TotalUsers = count

	return stats, nil
}
