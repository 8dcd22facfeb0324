package documents

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/caseshelf/caseshelf/pkg/blobstore"
	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type RetrieveDocumentOptions struct {
	ID *int
}

type ListDocumentsOptions struct {
	Limit  *int
	Offset *int
	CaseID *int
	Search *string

	includeTotal bool
}

type UpdateDocumentOptions struct {
	Columns []string
}

// UploadOptions describes a file upload.
type UploadOptions struct {
	Title    string
	CaseID   *int
	Filename string
	MimeType string
	Data     []byte
}

type Service struct {
	db    *bun.DB
	blobs *blobstore.Store
}

func NewService(db *bun.DB, blobs *blobstore.Store) *Service {
	return &Service{db, blobs}
}

// Upload stores the file and inserts a document row pointing at it. When the
// row insert fails the blob is cleaned up so no orphan files accumulate.
func (svc *Service) Upload(ctx context.Context, opts UploadOptions) (*models.Document, error) {
	if opts.CaseID != nil {
		exists, err := svc.db.NewSelect().
			Model((*models.Case)(nil)).
			Where("id = ?", *opts.CaseID).
			Exists(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if !exists {
			return nil, errcodes.NotFound("Case")
		}
	}

	up, err := svc.blobs.Put(ctx, opts.Data, "documents", opts.Filename)
	if err != nil {
		return nil, err
	}

	// Browsers often send octet-stream for anything unrecognized, so sniff
	// the content when the client didn't give us anything better.
	mimeType := opts.MimeType
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(opts.Data).String()
	}

	now := time.Now()
	doc := &models.Document{
		Title:     opts.Title,
		CaseID:    opts.CaseID,
		URL:       up.URL,
		PublicID:  up.PublicID,
		MimeType:  mimeType,
		SizeBytes: int64(len(opts.Data)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = svc.db.
		NewInsert().
		Model(doc).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if delErr := svc.blobs.Delete(ctx, up.PublicID); delErr != nil {
			logger.FromContext(ctx).Err(delErr).Error("failed to clean up blob after insert failure")
		}
		return nil, errors.WithStack(err)
	}

	return doc, nil
}

func (svc *Service) RetrieveDocument(ctx context.Context, opts RetrieveDocumentOptions) (*models.Document, error) {
	doc := &models.Document{}

	q := svc.db.
		NewSelect().
		Model(doc).
		Relation("Case")

	if opts.ID != nil {
		q = q.Where("d.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Document")
		}
		return nil, errors.WithStack(err)
	}

	return doc, nil
}

func (svc *Service) ListDocumentsWithTotal(ctx context.Context, opts ListDocumentsOptions) ([]*models.Document, int, error) {
	opts.includeTotal = true
	return svc.listDocumentsWithTotal(ctx, opts)
}

func (svc *Service) listDocumentsWithTotal(ctx context.Context, opts ListDocumentsOptions) ([]*models.Document, int, error) {
	var docs []*models.Document
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&docs).
		Relation("Case").
		Order("d.created_at DESC")

	if opts.CaseID != nil {
		q = q.Where("d.case_id = ?", *opts.CaseID)
	}
	if opts.Search != nil && *opts.Search != "" {
		search := "%" + strings.ToLower(*opts.Search) + "%"
		q = q.Where("LOWER(d.title) LIKE ?", search)
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

	return docs, total, nil
}

func (svc *Service) UpdateDocument(ctx context.Context, doc *models.Document, opts UpdateDocumentOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	now := time.Now()
	doc.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(doc).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Document")
		}
		return errors.WithStack(err)
	}
	return nil
}

// DeleteDocument removes the row and then the blob. A blob cleanup failure is
// logged but does not resurrect the row; the store tolerates re-deletes.
func (svc *Service) DeleteDocument(ctx context.Context, documentID int) error {
	doc, err := svc.RetrieveDocument(ctx, RetrieveDocumentOptions{ID: &documentID})
	if err != nil {
		return err
	}

	_, err = svc.db.NewDelete().
		Model((*models.Document)(nil)).
		Where("id = ?", documentID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	if doc.PublicID != "" {
		if err := svc.blobs.Delete(ctx, doc.PublicID); err != nil {
			logger.FromContext(ctx).Err(err).Data(logger.Data{"public_id": doc.PublicID}).Error("failed to delete blob")
		}
	}
	return nil
}
