package documents

import (
	"io"
	"net/http"
	"strconv"

	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	documentService *Service
}

func (h *handler) upload(c echo.Context) error {
	ctx := c.Request().Context()

	params := UploadDocumentPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	fileHeader, ok := params.FormFiles["file"]
	if !ok || fileHeader == nil {
		return errcodes.ValidationError("\"file\" is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return errors.WithStack(err)
	}

	doc, err := h.documentService.Upload(ctx, UploadOptions{
		Title:    params.Title,
		CaseID:   params.CaseID,
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Data:     data,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, doc))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Document")
	}

	doc, err := h.documentService.RetrieveDocument(ctx, RetrieveDocumentOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, doc))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListDocumentsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListDocumentsOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		CaseID: params.CaseID,
		Search: params.Search,
	}

	docs, total, err := h.documentService.ListDocumentsWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]any{
		"documents": docs,
		"total":     total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Document")
	}

	params := UpdateDocumentPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	doc, err := h.documentService.RetrieveDocument(ctx, RetrieveDocumentOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	columns := []string{}
	if params.Title != nil {
		doc.Title = *params.Title
		columns = append(columns, "title")
	}
	if params.CaseID != nil {
		doc.CaseID = params.CaseID
		columns = append(columns, "case_id")
	}

	if err := h.documentService.UpdateDocument(ctx, doc, UpdateDocumentOptions{Columns: columns}); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, doc))
}

func (h *handler) deleteDocument(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Document")
	}

	if err := h.documentService.DeleteDocument(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
