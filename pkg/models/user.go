package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `bun:",nullzero" json:"email"`
	Name         string    `bun:",nullzero" json:"name"`
	Role         Role      `bun:",nullzero" json:"role"`
	PasswordHash string    `json:"-"` // Never expose password hash
	IsActive     bool      `json:"is_active"`

	// Invitation flow. A user created via invite is inactive until the token
	// is accepted.
	InviteToken     *string    `json:"-"`
	InviteExpiresAt *time.Time `json:"invite_expires_at,omitempty"`

	// Relations
	Permissions []*UserPermission `bun:"rel:has-many,join:id=user_id" json:"permissions,omitempty"`
}

// UserPermission is an explicit per-user grant on top of the user's role
// defaults.
type UserPermission struct {
	bun.BaseModel `bun:"table:user_permissions,alias:up"`

	ID         int        `bun:",pk,nullzero" json:"id"`
	UserID     int        `json:"user_id"`
	Permission Permission `json:"permission"`
}

// EffectivePermissions returns the union of the user's role defaults and its
// explicit grants. It is computed fresh on every call; authorization must
// never cache it across requests.
func (u *User) EffectivePermissions() []Permission {
	perms := DefaultPermissionsForRole(u.Role)
	for _, grant := range u.Permissions {
		dup := false
		for _, p := range perms {
			if p == grant.Permission {
				dup = true
				break
			}
		}
		if !dup {
			perms = append(perms, grant.Permission)
		}
	}
	return perms
}

// HasPermission checks if the user's effective set contains the permission.
func (u *User) HasPermission(perm Permission) bool {
	return HasAll(u.EffectivePermissions(), []Permission{perm})
}
