package cases

import (
	"github.com/caseshelf/caseshelf/pkg/auth"
	"github.com/caseshelf/caseshelf/pkg/mailer"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers case routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware, notifier mailer.Notifier) {
	caseService := NewService(db, notifier)

	h := &handler{
		caseService: caseService,
	}

	g.GET("", h.list, authMiddleware.RequirePermission(models.PermCasesRead))
	g.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.PermCasesRead))
	g.POST("", h.create, authMiddleware.RequirePermission(models.PermCasesCreate))
	g.PATCH("/:id", h.update, authMiddleware.RequirePermission(models.PermCasesUpdate))
	g.POST("/:id/sign", h.sign, authMiddleware.RequirePermission(models.PermCasesUpdate))
	g.POST("/:id/send", h.send, authMiddleware.RequirePermission(models.PermCasesRead))
	g.DELETE("/:id", h.deleteCase, authMiddleware.RequirePermission(models.PermCasesDelete))
}
