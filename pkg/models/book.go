package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// BookID is the business key (catalog number), unique across the
	// collection.
	BookID   string `bun:",nullzero" json:"book_id"`
	Title    string `bun:",nullzero" json:"title"`
	Author   string `bun:",nullzero" json:"author"`
	Category string `json:"category"`

	// Invariant: 0 <= AvailableCopies <= TotalCopies. AvailableCopies is
	// mutated only by the lending engine's conditional updates.
	TotalCopies     int `json:"total_copies"`
	AvailableCopies int `json:"available_copies"`
}

// OpenLoanCount returns the number of copies currently out on loan.
func (b *Book) OpenLoanCount() int {
	return b.TotalCopies - b.AvailableCopies
}
