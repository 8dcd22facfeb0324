package cases

import (
	"net/http"
	"strconv"

	"github.com/caseshelf/caseshelf/pkg/auth"
	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	caseService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateCasePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	kase := &models.Case{
		CaseNumber:  params.CaseNumber,
		Title:       params.Title,
		ClientName:  params.ClientName,
		Status:      params.Status,
		Description: params.Description,
	}

	if err := h.caseService.CreateCase(ctx, kase); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, kase))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Case")
	}

	kase, err := h.caseService.RetrieveCase(ctx, RetrieveCaseOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, kase))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListCasesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListCasesOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Status: params.Status,
		Search: params.Search,
	}

	cases, total, err := h.caseService.ListCasesWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]any{
		"cases": cases,
		"total": total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Case")
	}

	params := UpdateCasePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	kase, err := h.caseService.RetrieveCase(ctx, RetrieveCaseOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	columns := []string{}
	if params.Title != nil {
		kase.Title = *params.Title
		columns = append(columns, "title")
	}
	if params.ClientName != nil {
		kase.ClientName = *params.ClientName
		columns = append(columns, "client_name")
	}
	if params.Status != nil {
		kase.Status = *params.Status
		columns = append(columns, "status")
	}
	if params.Description != nil {
		kase.Description = *params.Description
		columns = append(columns, "description")
	}

	if err := h.caseService.UpdateCase(ctx, kase, UpdateCaseOptions{Columns: columns}); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, kase))
}

func (h *handler) sign(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Case")
	}

	userID, ok := auth.GetUserIDFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	kase, err := h.caseService.SignCase(ctx, id, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, kase))
}

func (h *handler) send(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Case")
	}

	params := SendCasePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := h.caseService.SendCaseByEmail(ctx, id, params.To); err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Case sent"})
}

func (h *handler) deleteCase(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Case")
	}

	if err := h.caseService.DeleteCase(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
