package cases

// CreateCasePayload represents the create request body.
type CreateCasePayload struct {
	CaseNumber  string `json:"case_number" mod:"trim" validate:"required,max=50"`
	Title       string `json:"title" mod:"trim" validate:"required,max=255"`
	ClientName  string `json:"client_name" mod:"trim" validate:"max=255"`
	Status      string `json:"status" validate:"omitempty,oneof=open closed"`
	Description string `json:"description" mod:"trim" validate:"max=5000"`
}

// UpdateCasePayload represents the update request body.
type UpdateCasePayload struct {
	Title       *string `json:"title" mod:"trim" validate:"omitempty,min=1,max=255"`
	ClientName  *string `json:"client_name" mod:"trim" validate:"omitempty,max=255"`
	Status      *string `json:"status" validate:"omitempty,oneof=open closed"`
	Description *string `json:"description" mod:"trim" validate:"omitempty,max=5000"`
}

// SendCasePayload represents the send-by-email request body.
type SendCasePayload struct {
	To string `json:"to" mod:"trim" validate:"required,email"`
}

// ListCasesQuery represents the list query parameters.
type ListCasesQuery struct {
	Limit  int     `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset int     `query:"offset" validate:"min=0"`
	Status *string `query:"status" validate:"omitempty,oneof=open closed"`
	Search *string `query:"search"`
}
