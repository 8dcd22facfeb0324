package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title  string `bun:",nullzero" json:"title"`
	CaseID *int   `json:"case_id,omitempty"`

	// Blob store coordinates. PublicID is the handle needed to delete the
	// stored bytes; URL is what clients fetch.
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`

	// Relations
	Case *Case `bun:"rel:belongs-to,join:case_id=id" json:"case,omitempty"`
}
