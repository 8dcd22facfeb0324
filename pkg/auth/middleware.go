package auth

import (
	"database/sql"
	"strings"

	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Context keys for storing user data.
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
	ContextKeyUser      = "user"
)

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate extracts and validates the JWT from the session cookie or an
// Authorization Bearer header. It only checks the token itself; whether the
// subject still exists or is active is decided per request by
// RequirePermission. If not authenticated, it returns 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractToken(c)
		if token == "" {
			return errcodes.Unauthorized("Authentication required")
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			return errcodes.Unauthorized("Invalid or expired token")
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUserEmail, claims.Email)

		return next(c)
	}
}

// RequirePermission returns middleware that checks if the user holds the given
// permission. The user's effective set is loaded from storage on every request
// so that role changes, grant edits, deactivation, and deletion take effect
// immediately. Missing or inactive users are denied. Must be used after
// Authenticate middleware.
func (m *Middleware) RequirePermission(perm models.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			email, ok := c.Get(ContextKeyUserEmail).(string)
			if !ok || email == "" {
				return errcodes.Unauthorized("Authentication required")
			}

			user, err := m.authService.GetUserByEmail(ctx, email)
			if err != nil {
				// A deleted or deactivated subject holds no permissions at
				// all; anything else is a storage failure, not a denial.
				if errors.Is(err, sql.ErrNoRows) {
					return errcodes.MissingPermission(string(perm), nil)
				}
				return errors.WithStack(err)
			}

			if !user.HasPermission(perm) {
				held := user.EffectivePermissions()
				heldStrs := make([]string, 0, len(held))
				for _, p := range held {
					heldStrs = append(heldStrs, string(p))
				}
				return errcodes.MissingPermission(string(perm), heldStrs)
			}

			c.Set(ContextKeyUser, user)

			return next(c)
		}
	}
}

// extractToken pulls the session JWT from the cookie, falling back to an
// Authorization Bearer header for non-browser clients.
func extractToken(c echo.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// GetUserFromContext retrieves the user from the Echo context. It is only set
// after RequirePermission has run.
func GetUserFromContext(c echo.Context) *models.User {
	user, _ := c.Get(ContextKeyUser).(*models.User)
	return user
}

// GetUserIDFromContext retrieves the user ID from the Echo context.
func GetUserIDFromContext(c echo.Context) (int, bool) {
	userID, ok := c.Get(ContextKeyUserID).(int)
	return userID, ok
}
