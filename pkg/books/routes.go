package books

import (
	"github.com/caseshelf/caseshelf/pkg/auth"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	bookService := NewService(db)

	h := &handler{
		bookService: bookService,
	}

	g.GET("", h.list, authMiddleware.RequirePermission(models.PermBooksRead))
	g.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.PermBooksRead))
	g.POST("", h.create, authMiddleware.RequirePermission(models.PermBooksCreate))
	g.PATCH("/:id", h.update, authMiddleware.RequirePermission(models.PermBooksUpdate))
	g.DELETE("/:id", h.deleteBook, authMiddleware.RequirePermission(models.PermBooksDelete))
}
