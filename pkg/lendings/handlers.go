package lendings

import (
	"net/http"
	"strconv"
	"time"

	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	lendingService *Service
}

func (h *handler) borrow(c echo.Context) error {
	ctx := c.Request().Context()

	params := BorrowPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := BorrowOptions{
		BookID:     params.BookID,
		BorrowerID: params.BorrowerID,
	}
	if params.DueDate != nil {
		if params.DueDate.Before(time.Now()) {
			return errcodes.ValidationError("\"due_date\" must be in the future")
		}
		opts.DueDate = *params.DueDate
	}

	lending, err := h.lendingService.Borrow(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, lending))
}

func (h *handler) returnLending(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Lending")
	}

	lending, err := h.lendingService.Return(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, lending))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Lending")
	}

	lending, err := h.lendingService.RetrieveLending(ctx, RetrieveLendingOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, lending))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListLendingsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListLendingsOptions{
		Limit:      &params.Limit,
		Offset:     &params.Offset,
		Status:     params.Status,
		BookID:     params.BookID,
		BorrowerID: params.BorrowerID,
	}

	lendings, total, err := h.lendingService.ListLendingsWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]any{
		"lendings": lendings,
		"total":    total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) notifyOverdue(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.lendingService.NotifyOverdue(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}
