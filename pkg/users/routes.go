package users

import (
	"github.com/caseshelf/caseshelf/pkg/auth"
	"github.com/caseshelf/caseshelf/pkg/mailer"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers user management routes on a
// pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware, notifier mailer.Notifier) {
	userService := NewService(db, notifier)

	h := &handler{
		userService: userService,
	}

	g.GET("", h.list, authMiddleware.RequirePermission(models.PermUsersRead))
	g.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.PermUsersRead))
	g.POST("", h.create, authMiddleware.RequirePermission(models.PermUsersCreate))
	g.PATCH("/:id", h.update, authMiddleware.RequirePermission(models.PermUsersUpdate))
	g.DELETE("/:id", h.deleteUser, authMiddleware.RequirePermission(models.PermUsersDelete))
	g.POST("/:id/password", h.setPassword, authMiddleware.RequirePermission(models.PermUsersUpdate))
}

// RegisterPublicRoutes registers the unauthenticated invite acceptance route.
func RegisterPublicRoutes(e *echo.Echo, db *bun.DB, notifier mailer.Notifier) {
	userService := NewService(db, notifier)

	h := &handler{
		userService: userService,
	}

	e.POST("/users/accept-invite", h.acceptInvite)
}
