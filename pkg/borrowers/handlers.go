package borrowers

import (
	"net/http"
	"strconv"

	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	borrowerService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBorrowerPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	borrower := &models.Borrower{
		MemberID: params.MemberID,
		Name:     params.Name,
		Role:     params.Role,
		Phone:    params.Phone,
		Email:    params.Email,
	}

	if err := h.borrowerService.CreateBorrower(ctx, borrower); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, borrower))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Borrower")
	}

	borrower, err := h.borrowerService.RetrieveBorrower(ctx, RetrieveBorrowerOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, borrower))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBorrowersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListBorrowersOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Search,
	}

	borrowers, total, err := h.borrowerService.ListBorrowersWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]any{
		"borrowers": borrowers,
		"total":     total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Borrower")
	}

	params := UpdateBorrowerPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	borrower, err := h.borrowerService.RetrieveBorrower(ctx, RetrieveBorrowerOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	columns := []string{}
	if params.Name != nil {
		borrower.Name = *params.Name
		columns = append(columns, "name")
	}
	if params.Role != nil {
		borrower.Role = *params.Role
		columns = append(columns, "role")
	}
	if params.Phone != nil {
		borrower.Phone = *params.Phone
		columns = append(columns, "phone")
	}
	if params.Email != nil {
		borrower.Email = params.Email
		columns = append(columns, "email")
	}

	if err := h.borrowerService.UpdateBorrower(ctx, borrower, UpdateBorrowerOptions{Columns: columns}); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, borrower))
}

func (h *handler) deleteBorrower(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Borrower")
	}

	if err := h.borrowerService.DeleteBorrower(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
