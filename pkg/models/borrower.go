package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Borrower struct {
	bun.BaseModel `bun:"table:borrowers,alias:bw"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// MemberID is the unique membership number.
	MemberID string `bun:",nullzero" json:"member_id"`
	Name     string `bun:",nullzero" json:"name"`
	// Role is the borrower's organizational role (e.g. "Student",
	// "Paralegal"), unrelated to the system permission roles.
	Role  string  `json:"role"`
	Phone string  `json:"phone"`
	Email *string `json:"email,omitempty"`
}
