package lendings

import "time"

// BorrowPayload represents the borrow request body. DueDate is optional; when
// omitted the default loan period applies.
type BorrowPayload struct {
	BookID     int        `json:"book_id" validate:"required,min=1"`
	BorrowerID int        `json:"borrower_id" validate:"required,min=1"`
	DueDate    *time.Time `json:"due_date"`
}

// ListLendingsQuery represents the list query parameters.
type ListLendingsQuery struct {
	Limit      int     `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset     int     `query:"offset" validate:"min=0"`
	Status     *string `query:"status" validate:"omitempty,oneof=borrowed returned overdue"`
	BookID     *int    `query:"book_id" validate:"omitempty,min=1"`
	BorrowerID *int    `query:"borrower_id" validate:"omitempty,min=1"`
}
