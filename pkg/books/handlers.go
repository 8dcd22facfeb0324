package books

import (
	"net/http"
	"strconv"

	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	bookService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	available := params.TotalCopies
	if params.AvailableCopies != nil {
		if *params.AvailableCopies > params.TotalCopies {
			return errcodes.ValidationError("\"available_copies\" cannot exceed \"total_copies\"")
		}
		available = *params.AvailableCopies
	}

	book := &models.Book{
		BookID:          params.BookID,
		Title:           params.Title,
		Author:          params.Author,
		Category:        params.Category,
		TotalCopies:     params.TotalCopies,
		AvailableCopies: available,
	}

	if err := h.bookService.CreateBook(ctx, book); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListBooksOptions{
		Limit:    &params.Limit,
		Offset:   &params.Offset,
		Category: params.Category,
		Search:   params.Search,
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]any{
		"books": books,
		"total": total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	columns := []string{}
	if params.Title != nil {
		book.Title = *params.Title
		columns = append(columns, "title")
	}
	if params.Author != nil {
		book.Author = *params.Author
		columns = append(columns, "author")
	}
	if params.Category != nil {
		book.Category = *params.Category
		columns = append(columns, "category")
	}
	if params.TotalCopies != nil && *params.TotalCopies != book.TotalCopies {
		open := book.OpenLoanCount()
		if *params.TotalCopies < open {
			return errcodes.Conflict("Cannot shrink \"total_copies\" below the number of copies out on loan")
		}
		book.TotalCopies = *params.TotalCopies
		book.AvailableCopies = *params.TotalCopies - open
		columns = append(columns, "total_copies", "available_copies")
	}

	if err := h.bookService.UpdateBook(ctx, book, UpdateBookOptions{Columns: columns}); err != nil {
		return errors.WithStack(err)
	}

	book, err = h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) deleteBook(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	if err := h.bookService.DeleteBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
