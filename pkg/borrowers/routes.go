package borrowers

import (
	"github.com/caseshelf/caseshelf/pkg/auth"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers borrower routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	borrowerService := NewService(db)

	h := &handler{
		borrowerService: borrowerService,
	}

	g.GET("", h.list, authMiddleware.RequirePermission(models.PermBorrowersRead))
	g.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.PermBorrowersRead))
	g.POST("", h.create, authMiddleware.RequirePermission(models.PermBorrowersCreate))
	g.PATCH("/:id", h.update, authMiddleware.RequirePermission(models.PermBorrowersUpdate))
	g.DELETE("/:id", h.deleteBorrower, authMiddleware.RequirePermission(models.PermBorrowersDelete))
}
