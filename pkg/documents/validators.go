package documents

import "mime/multipart"

// UploadDocumentPayload represents the multipart upload request. The file
// goes in a form part named "file".
type UploadDocumentPayload struct {
	Title  string `form:"title" json:"title" mod:"trim" validate:"required,max=255"`
	CaseID *int   `form:"case_id" json:"case_id" validate:"omitempty,min=1"`

	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-" validate:"-"`
}

// UpdateDocumentPayload represents the update request body.
type UpdateDocumentPayload struct {
	Title  *string `json:"title" mod:"trim" validate:"omitempty,min=1,max=255"`
	CaseID *int    `json:"case_id" validate:"omitempty,min=1"`
}

// ListDocumentsQuery represents the list query parameters.
type ListDocumentsQuery struct {
	Limit  int     `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset int     `query:"offset" validate:"min=0"`
	CaseID *int    `query:"case_id" validate:"omitempty,min=1"`
	Search *string `query:"search"`
}
