package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	appprinting "github.com/drymix/erp/internal/application/printing"
	"github.com/drymix/erp/internal/domain/shared"
	csvimport "github.com/drymix/erp/internal/infrastructure/import"
	"github.com/drymix/erp/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxUploadSize caps an import file
const maxUploadSize = 10 << 20

// ListWith reads the paging and filter query and writes one page from op
func ListWith[T any](h *BaseHandler, c *gin.Context, op func(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[T], error), filters ...string) {
	filter, ok := h.ListParams(c, filters...)
	if !ok {
		return
	}
	out, err := op(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(h, c, out)
}

// ByID runs op on the resource named by the :id parameter and writes the result
func ByID[T any](h *BaseHandler, c *gin.Context, op func(ctx context.Context, orgID, id uuid.UUID) (T, error)) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	out, err := op(c.Request.Context(), h.OrgID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// BodyByID binds a JSON body of type R and runs op on the :id resource
func BodyByID[R, T any](h *BaseHandler, c *gin.Context, op func(ctx context.Context, orgID, id uuid.UUID, req R) (T, error)) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req R
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := op(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// CreateFrom binds a JSON body of type R, runs op and answers 201
func CreateFrom[R, T any](h *BaseHandler, c *gin.Context, op func(ctx context.Context, orgID uuid.UUID, req R) (T, error)) {
	var req R
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := op(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

// DeleteByID runs op on the :id resource and answers 204
func DeleteByID(h *BaseHandler, c *gin.Context, op func(ctx context.Context, orgID, id uuid.UUID) error) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := op(c.Request.Context(), h.OrgID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// renderDocument writes a print template rendered for the caller's
// organization. format is "pdf" or anything else for HTML; name is the
// download file name without extension.
func renderDocument(h *BaseHandler, c *gin.Context, r DocumentRenderer, template string, document any, format, name string) {
	if r == nil {
		h.Error(c, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Document rendering is not configured")
		return
	}
	ctx := c.Request.Context()
	if format != "pdf" {
		out, err := r.RenderHTML(ctx, h.OrgID(c), template, document)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", out)
		return
	}
	out, err := r.RenderPDF(ctx, h.OrgID(c), template, document)
	if errors.Is(err, appprinting.ErrPDFDisabled) {
		h.Error(c, http.StatusNotImplemented, "NOT_IMPLEMENTED", "PDF rendering is not enabled")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", name+".pdf"))
	c.Data(http.StatusOK, "application/pdf", out)
}

// ImportOp imports a parsed upload for an organization
type ImportOp func(ctx context.Context, orgID uuid.UUID, table *csvimport.Table, mode csvimport.Mode, dryRun bool) (*csvimport.Report, error)

// ImportUpload reads the multipart "file" field (CSV or XLSX) and runs op.
// The query parameters mode (skip, update, fail) and dry_run steer it.
func ImportUpload(h *BaseHandler, c *gin.Context, op ImportOp) {
	mode, err := csvimport.ParseMode(c.Query("mode"))
	if err != nil {
		importError(h, c, err)
		return
	}
	dryRun := false
	if v := c.Query("dry_run"); v != "" {
		if dryRun, err = strconv.ParseBool(v); err != nil {
			h.BadRequest(c, "dry_run must be true or false")
			return
		}
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.HandleError(c, err)
			return
		}
		h.BadRequest(c, "file is required")
		return
	}
	defer func() { _ = file.Close() }()
	if header.Size > maxUploadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "file exceeds maximum size of 10MB")
		return
	}

	table, err := csvimport.Read(header.Filename, file, csvimport.Options{})
	if err != nil {
		importError(h, c, err)
		return
	}
	report, err := op(c.Request.Context(), h.OrgID(c), table, mode, dryRun)
	if err != nil {
		importError(h, c, err)
		return
	}
	h.Success(c, report)
}

func importError(h *BaseHandler, c *gin.Context, err error) {
	if errors.Is(err, csvimport.ErrInvalidFile) {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidFile, err.Error())
		return
	}
	h.HandleError(c, err)
}
