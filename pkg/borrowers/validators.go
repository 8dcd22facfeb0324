package borrowers

// CreateBorrowerPayload represents the create request body.
type CreateBorrowerPayload struct {
	MemberID string  `json:"member_id" mod:"trim" validate:"required,max=50"`
	Name     string  `json:"name" mod:"trim" validate:"required,max=255"`
	Role     string  `json:"role" mod:"trim" validate:"max=100"`
	Phone    string  `json:"phone" mod:"trim" validate:"max=50"`
	Email    *string `json:"email" mod:"trim" validate:"omitempty,email"`
}

// UpdateBorrowerPayload represents the update request body.
type UpdateBorrowerPayload struct {
	Name  *string `json:"name" mod:"trim" validate:"omitempty,min=1,max=255"`
	Role  *string `json:"role" mod:"trim" validate:"omitempty,max=100"`
	Phone *string `json:"phone" mod:"trim" validate:"omitempty,max=50"`
	Email *string `json:"email" mod:"trim" validate:"omitempty,email"`
}

// ListBorrowersQuery represents the list query parameters.
type ListBorrowersQuery struct {
	Limit  int     `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset int     `query:"offset" validate:"min=0"`
	Search *string `query:"search"`
}
