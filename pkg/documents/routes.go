package documents

import (
	"github.com/caseshelf/caseshelf/pkg/auth"
	"github.com/caseshelf/caseshelf/pkg/blobstore"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers document routes on a pre-configured
// group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware, blobs *blobstore.Store) {
	documentService := NewService(db, blobs)

	h := &handler{
		documentService: documentService,
	}

	g.GET("", h.list, authMiddleware.RequirePermission(models.PermDocumentsRead))
	g.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.PermDocumentsRead))
	g.POST("", h.upload, authMiddleware.RequirePermission(models.PermDocumentsCreate))
	g.PATCH("/:id", h.update, authMiddleware.RequirePermission(models.PermDocumentsUpdate))
	g.DELETE("/:id", h.deleteDocument, authMiddleware.RequirePermission(models.PermDocumentsDelete))
}
