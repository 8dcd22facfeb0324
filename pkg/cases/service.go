package cases

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/caseshelf/caseshelf/pkg/mailer"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveCaseOptions struct {
	ID         *int
	CaseNumber *string
}

type ListCasesOptions struct {
	Limit  *int
	Offset *int
	Status *string
	Search *string

	includeTotal bool
}

type UpdateCaseOptions struct {
	Columns []string
}

type Service struct {
	db       *bun.DB
	notifier mailer.Notifier
}

func NewService(db *bun.DB, notifier mailer.Notifier) *Service {
	return &Service{db, notifier}
}

// CreateCase inserts a new legal case. The case number must be unique.
func (svc *Service) CreateCase(ctx context.Context, kase *models.Case) error {
	existing, err := svc.RetrieveCase(ctx, RetrieveCaseOptions{CaseNumber: &kase.CaseNumber})
	if err == nil && existing != nil {
		return errcodes.Conflict("A case with this case number already exists")
	}
	if err != nil && !errors.Is(err, errcodes.NotFound("Case")) {
		return err
	}

	now := time.Now()
	if kase.CreatedAt.IsZero() {
		kase.CreatedAt = now
	}
	kase.UpdatedAt = kase.CreatedAt
	if kase.Status == "" {
		kase.Status = models.CaseStatusOpen
	}

	_, err = svc.db.
		NewInsert().
		Model(kase).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveCase(ctx context.Context, opts RetrieveCaseOptions) (*models.Case, error) {
	kase := &models.Case{}

	q := svc.db.
		NewSelect().
		Model(kase).
		Relation("SignedBy").
		Relation("Documents")

	if opts.ID != nil {
		q = q.Where("c.id = ?", *opts.ID)
	}
	if opts.CaseNumber != nil {
		q = q.Where("c.case_number = ? COLLATE NOCASE", *opts.CaseNumber)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Case")
		}
		return nil, errors.WithStack(err)
	}

	return kase, nil
}

func (svc *Service) ListCasesWithTotal(ctx context.Context, opts ListCasesOptions) ([]*models.Case, int, error) {
	opts.includeTotal = true
	return svc.listCasesWithTotal(ctx, opts)
}

func (svc *Service) listCasesWithTotal(ctx context.Context, opts ListCasesOptions) ([]*models.Case, int, error) {
	var cases []*models.Case
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&cases).
		Relation("SignedBy").
		Order("c.created_at DESC")

	if opts.Status != nil && *opts.Status != "" {
		q = q.Where("c.status = ?", *opts.Status)
	}
	if opts.Search != nil && *opts.Search != "" {
		search := "%" + strings.ToLower(*opts.Search) + "%"
		q = q.Where("(LOWER(c.title) LIKE ? OR LOWER(c.case_number) LIKE ? OR LOWER(c.client_name) LIKE ?)", search, search, search)
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

	return cases, total, nil
}

func (svc *Service) UpdateCase(ctx context.Context, kase *models.Case, opts UpdateCaseOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	now := time.Now()
	kase.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(kase).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Case")
		}
		return errors.WithStack(err)
	}
	return nil
}

// SignCase records who signed the case. Signing is one-shot: a signed case
// cannot be signed again.
func (svc *Service) SignCase(ctx context.Context, caseID, userID int) (*models.Case, error) {
	now := time.Now()

	res, err := svc.db.NewUpdate().
		Model((*models.Case)(nil)).
		Set("signed_by_id = ?", userID).
		Set("signed_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", caseID).
		Where("signed_by_id IS NULL").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		kase, err := svc.RetrieveCase(ctx, RetrieveCaseOptions{ID: &caseID})
		if err != nil {
			return nil, err
		}
		if kase.SignedByID != nil {
			return nil, errcodes.Conflict("Case has already been signed")
		}
		return nil, errcodes.NotFound("Case")
	}

	return svc.RetrieveCase(ctx, RetrieveCaseOptions{ID: &caseID})
}

// SendCaseByEmail emails a summary of the case to the given recipient.
func (svc *Service) SendCaseByEmail(ctx context.Context, caseID int, to string) error {
	kase, err := svc.RetrieveCase(ctx, RetrieveCaseOptions{ID: &caseID})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Case %s: %s", kase.CaseNumber, kase.Title)
	body := caseEmailBody(kase)
	return svc.notifier.Send(ctx, to, subject, body)
}

// DeleteCase removes a case. Its documents are detached, not deleted; the
// files may still be referenced elsewhere.
func (svc *Service) DeleteCase(ctx context.Context, caseID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.Document)(nil)).
			Set("case_id = NULL").
			Where("case_id = ?", caseID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.NewDelete().
			Model((*models.Case)(nil)).
			Where("id = ?", caseID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Case")
		}
		return nil
	})
}

func caseEmailBody(kase *models.Case) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Case %s</h2>", kase.CaseNumber)
	fmt.Fprintf(&b, "<p><strong>%s</strong></p>", kase.Title)
	fmt.Fprintf(&b, "<p>Client: %s<br>Status: %s</p>", kase.ClientName, kase.Status)
	if kase.Description != "" {
		fmt.Fprintf(&b, "<p>%s</p>", kase.Description)
	}
	if len(kase.Documents) > 0 {
		b.WriteString("<p>Documents:</p><ul>")
		for _, doc := range kase.Documents {
			if doc.URL != "" {
				fmt.Fprintf(&b, "<li><a href=%q>%s</a></li>", doc.URL, doc.Title)
			} else {
				fmt.Fprintf(&b, "<li>%s</li>", doc.Title)
			}
		}
		b.WriteString("</ul>")
	}
	return b.String()
}
