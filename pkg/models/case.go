package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Case statuses.
const (
	CaseStatusOpen   = "open"
	CaseStatusClosed = "closed"
)

type Case struct {
	bun.BaseModel `bun:"table:cases,alias:c"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// CaseNumber is the unique docket/file number.
	CaseNumber  string `bun:",nullzero" json:"case_number"`
	Title       string `bun:",nullzero" json:"title"`
	ClientName  string `json:"client_name"`
	Status      string `bun:",nullzero" json:"status"`
	Description string `json:"description"`

	// Signing is one-shot: a signed case cannot be signed again.
	SignedByID *int       `json:"signed_by_id,omitempty"`
	SignedAt   *time.Time `json:"signed_at,omitempty"`

	// Relations
	SignedBy  *User       `bun:"rel:belongs-to,join:signed_by_id=id" json:"signed_by,omitempty"`
	Documents []*Document `bun:"rel:has-many,join:id=case_id" json:"documents,omitempty"`
}
