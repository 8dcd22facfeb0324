package dashboard

import (
	"github.com/caseshelf/caseshelf/pkg/auth"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers dashboard routes on a pre-configured
// group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	dashboardService := NewService(db)

	h := &handler{
		dashboardService: dashboardService,
	}

	g.GET("/stats", h.stats, authMiddleware.RequirePermission(models.PermDashboardRead))
}
