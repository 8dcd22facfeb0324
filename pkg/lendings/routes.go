package lendings

import (
	"github.com/caseshelf/caseshelf/pkg/auth"
	"github.com/caseshelf/caseshelf/pkg/mailer"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers lending routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware, notifier mailer.Notifier, defaultLoanDays int) {
	lendingService := NewService(db, notifier, defaultLoanDays)

	h := &handler{
		lendingService: lendingService,
	}

	g.GET("", h.list, authMiddleware.RequirePermission(models.PermLendingsRead))
	g.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.PermLendingsRead))
	g.POST("", h.borrow, authMiddleware.RequirePermission(models.PermLendingsCreate))
	g.POST("/:id/return", h.returnLending, authMiddleware.RequirePermission(models.PermLendingsUpdate))
	g.POST("/notify-overdue", h.notifyOverdue, authMiddleware.RequirePermission(models.PermLendingsUpdate))
}
