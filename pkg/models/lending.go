package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Lending statuses. Returned is terminal; a returned lending never
// transitions again.
const (
	LendingStatusBorrowed = "borrowed"
	LendingStatusReturned = "returned"
	LendingStatusOverdue  = "overdue"
)

type Lending struct {
	bun.BaseModel `bun:"table:lendings,alias:l"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BookID     int `json:"book_id"`
	BorrowerID int `json:"borrower_id"`

	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`

	// Status is the persisted state. The notify-overdue batch may rewrite
	// borrowed to overdue, but the authoritative overdue predicate is
	// EffectiveStatus, derived at read time.
	Status string `bun:",nullzero" json:"status"`

	// Relations
	Book     *Book     `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	Borrower *Borrower `bun:"rel:belongs-to,join:borrower_id=id" json:"borrower,omitempty"`
}

// IsOverdue reports whether the lending is effectively overdue at the given
// time, independent of whether a batch job has rewritten the status field.
func (l *Lending) IsOverdue(now time.Time) bool {
	if l.Status == LendingStatusOverdue {
		return true
	}
	return l.Status == LendingStatusBorrowed && l.DueDate.Before(now)
}

// EffectiveStatus derives the display status from (status, due date, now).
func (l *Lending) EffectiveStatus(now time.Time) string {
	if l.IsOverdue(now) {
		return LendingStatusOverdue
	}
	return l.Status
}
