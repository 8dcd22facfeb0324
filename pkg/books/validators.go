package books

// CreateBookPayload represents the create request body.
type CreateBookPayload struct {
	BookID          string `json:"book_id" mod:"trim" validate:"required,max=50"`
	Title           string `json:"title" mod:"trim" validate:"required,max=255"`
	Author          string `json:"author" mod:"trim" validate:"required,max=255"`
	Category        string `json:"category" mod:"trim" validate:"max=100"`
	TotalCopies     int    `json:"total_copies" validate:"required,min=1"`
	AvailableCopies *int   `json:"available_copies" validate:"omitempty,min=0"`
}

// UpdateBookPayload represents the update request body. Only provided fields
// are written.
type UpdateBookPayload struct {
	Title       *string `json:"title" mod:"trim" validate:"omitempty,min=1,max=255"`
	Author      *string `json:"author" mod:"trim" validate:"omitempty,min=1,max=255"`
	Category    *string `json:"category" mod:"trim" validate:"omitempty,max=100"`
	TotalCopies *int    `json:"total_copies" validate:"omitempty,min=1"`
}

// ListBooksQuery represents the list query parameters.
type ListBooksQuery struct {
	Limit    int     `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset   int     `query:"offset" validate:"min=0"`
	Category *string `query:"category"`
	Search   *string `query:"search"`
}
