package users

// CreateUserPayload represents the create request body. Without a password
// the user is invited by email instead of activated directly.
type CreateUserPayload struct {
	Name     string  `json:"name" mod:"trim" validate:"required,max=100"`
	Email    string  `json:"email" mod:"trim" validate:"required,email"`
	Role     string  `json:"role" validate:"required,oneof=User Librarian Admin 'Super Admin'"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

// UpdateUserPayload represents the update request body. Permissions, when
// present, replaces the user's explicit grants wholesale.
type UpdateUserPayload struct {
	Name        *string   `json:"name" mod:"trim" validate:"omitempty,min=1,max=100"`
	Role        *string   `json:"role" validate:"omitempty,oneof=User Librarian Admin 'Super Admin'"`
	IsActive    *bool     `json:"is_active"`
	Permissions *[]string `json:"permissions" validate:"omitempty,dive,permission"`
}

// SetPasswordPayload represents the password change request body.
// CurrentPassword is required when users change their own password; an admin
// resetting someone else's password doesn't have it.
type SetPasswordPayload struct {
	CurrentPassword *string `json:"current_password"`
	Password        string  `json:"password" validate:"required,min=8"`
}

// AcceptInvitePayload represents the invite acceptance request body.
type AcceptInvitePayload struct {
	Token    string `json:"token" mod:"trim" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// ListUsersQuery represents the list query parameters.
type ListUsersQuery struct {
	Limit  int     `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset int     `query:"offset" validate:"min=0"`
	Search *string `query:"search"`
}
