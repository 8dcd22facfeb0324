package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/caseshelf/caseshelf/pkg/auth"
	"github.com/caseshelf/caseshelf/pkg/binder"
	"github.com/caseshelf/caseshelf/pkg/blobstore"
	"github.com/caseshelf/caseshelf/pkg/books"
	"github.com/caseshelf/caseshelf/pkg/borrowers"
	"github.com/caseshelf/caseshelf/pkg/cases"
	"github.com/caseshelf/caseshelf/pkg/config"
	"github.com/caseshelf/caseshelf/pkg/dashboard"
	"github.com/caseshelf/caseshelf/pkg/documents"
	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/caseshelf/caseshelf/pkg/lendings"
	"github.com/caseshelf/caseshelf/pkg/mailer"
	"github.com/caseshelf/caseshelf/pkg/users"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	notifier := mailer.New(cfg)

	blobs, err := blobstore.New(cfg.Blob.Dir, cfg.Blob.BaseURL)
	if err != nil {
		return nil, err
	}
	e.Static(cfg.Blob.BaseURL, blobs.Dir())

	// Register auth routes and get the auth service
	authService := auth.RegisterRoutes(e, db, cfg.Auth.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	// Invite acceptance is public: the invitee has no session yet.
	users.RegisterPublicRoutes(e, db, notifier)

	registerProtectedRoutes(e, db, cfg, authMiddleware, notifier, blobs)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

// registerProtectedRoutes registers all protected API routes. Authentication
// only checks the token; each route carries its own permission check, which
// consults storage per request.
func registerProtectedRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware, notifier mailer.Notifier, blobs *blobstore.Store) {
	booksGroup := e.Group("/books")
	booksGroup.Use(authMiddleware.Authenticate)
	books.RegisterRoutesWithGroup(booksGroup, db, authMiddleware)

	borrowersGroup := e.Group("/borrowers")
	borrowersGroup.Use(authMiddleware.Authenticate)
	borrowers.RegisterRoutesWithGroup(borrowersGroup, db, authMiddleware)

	lendingsGroup := e.Group("/lendings")
	lendingsGroup.Use(authMiddleware.Authenticate)
	lendings.RegisterRoutesWithGroup(lendingsGroup, db, authMiddleware, notifier, cfg.Lending.DefaultLoanDays)

	usersGroup := e.Group("/users")
	usersGroup.Use(authMiddleware.Authenticate)
	users.RegisterRoutesWithGroup(usersGroup, db, authMiddleware, notifier)

	casesGroup := e.Group("/cases")
	casesGroup.Use(authMiddleware.Authenticate)
	cases.RegisterRoutesWithGroup(casesGroup, db, authMiddleware, notifier)

	documentsGroup := e.Group("/documents")
	documentsGroup.Use(authMiddleware.Authenticate)
	documents.RegisterRoutesWithGroup(documentsGroup, db, authMiddleware, blobs)

	dashboardGroup := e.Group("/dashboard")
	dashboardGroup.Use(authMiddleware.Authenticate)
	dashboard.RegisterRoutesWithGroup(dashboardGroup, db, authMiddleware)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
