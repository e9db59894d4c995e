package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kingrain94/table-qr-api/internal/api/dto"
	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/internal/render"
	"github.com/kingrain94/table-qr-api/internal/service"
)

//go:generate mockery --name TableAccess --output ../mocks
type TableAccess interface {
	IssueNew(ctx context.Context, tenantID, tableID string) (*domain.TableCode, error)
	IssueCurrent(ctx context.Context, tenantID, tableID string) (*domain.TableCode, error)
}

//go:generate mockery --name BatchService --output ../mocks
type BatchService interface {
	RegenerateMany(ctx context.Context, tenantID string, sel service.TableSelection) (*domain.BatchResult, error)
	DownloadMany(ctx context.Context, tenantID string, sel service.TableSelection, format domain.BatchFormat) (*domain.BatchDownload, error)
}

type QRHandler struct {
	*BaseHandler
	access   TableAccess
	renderer service.Renderer
	batch    BatchService
}

func NewQRHandler(access TableAccess, renderer service.Renderer, batch BatchService) *QRHandler {
	return &QRHandler{access: access, renderer: renderer, batch: batch}
}

// GenerateCode godoc
// @Summary Generate a new QR code for a table
// @Description Bumps the table's token version, which invalidates every previously printed code, and returns the new scan URL with a preview image
// @Tags qr
// @Produce json
// @Param id path string true "Table ID"
// @Success 201 {object} dto.TableCodeResponse
// @Failure 401 {object} dto.Error
// @Failure 404 {object} dto.Error
// @Failure 429 {object} dto.RateLimitError
// @Failure 500 {object} dto.Error
// @Failure 503 {object} dto.Error
// @Security BearerAuth
// @Router /tables/{id}/qr [post]
func (h *QRHandler) GenerateCode(c *gin.Context) {
	h.issue(c, http.StatusCreated, h.access.IssueNew)
}

// GetCurrentCode godoc
// @Summary Get the current QR code for a table
// @Description Signs the table's current token version without invalidating anything
// @Tags qr
// @Produce json
// @Param id path string true "Table ID"
// @Success 200 {object} dto.TableCodeResponse
// @Failure 401 {object} dto.Error
// @Failure 404 {object} dto.Error
// @Failure 429 {object} dto.RateLimitError
// @Failure 503 {object} dto.Error
// @Security BearerAuth
// @Router /tables/{id}/qr [get]
func (h *QRHandler) GetCurrentCode(c *gin.Context) {
	h.issue(c, http.StatusOK, h.access.IssueCurrent)
}

func (h *QRHandler) issue(c *gin.Context, status int, issue func(context.Context, string, string) (*domain.TableCode, error)) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	code, err := issue(h.RequestCtx(c), tenantID, c.Param("id"))
	if err != nil {
		h.WriteError(c, err)
		return
	}

	png, err := h.renderer.ToRaster(code.URL, render.SizePreview)
	if err != nil {
		h.WriteError(c, err)
		return
	}

	c.JSON(status, dto.FromTableCode(code, png))
}

// DownloadCode godoc
// @Summary Download a table's current QR code
// @Description Renders the current code as a high resolution PNG, an SVG, or a printable single-page PDF
// @Tags qr
// @Produce image/png
// @Produce image/svg+xml
// @Produce application/pdf
// @Param id path string true "Table ID"
// @Param format query string false "Artifact format" Enums(png, svg, pdf) default(png)
// @Success 200 {file} file
// @Failure 400 {object} dto.Error
// @Failure 404 {object} dto.Error
// @Failure 500 {object} dto.Error
// @Security BearerAuth
// @Router /tables/{id}/qr/download [get]
func (h *QRHandler) DownloadCode(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	format := domain.CodeFormat(strings.ToLower(c.DefaultQuery("format", string(domain.CodeFormatPNG))))
	if !format.Valid() {
		h.WriteError(c, fmt.Errorf("%w: unsupported format %q", domain.ErrInvalidInput, format))
		return
	}

	code, err := h.access.IssueCurrent(h.RequestCtx(c), tenantID, c.Param("id"))
	if err != nil {
		h.WriteError(c, err)
		return
	}

	var data []byte
	switch format {
	case domain.CodeFormatPNG:
		data, err = h.renderer.ToRaster(code.URL, render.SizeDownload)
	case domain.CodeFormatSVG:
		var svg string
		svg, err = h.renderer.ToVector(code.URL)
		data = []byte(svg)
	case domain.CodeFormatPDF:
		data, err = h.renderer.ToDocument(code.URL, code.TableName)
	}
	if err != nil {
		h.WriteError(c, err)
		return
	}

	sendFile(c, &domain.File{
		Name:     service.CodeFileName(code, format.Extension()),
		MimeType: format.MimeType(),
		Data:     data,
	})
}

// BulkRegenerate godoc
// @Summary Regenerate QR codes for many tables
// @Description Issues a new code for every selected table. One table failing does not stop the others; failures are reported per table
// @Tags qr
// @Accept json
// @Produce json
// @Param body body dto.TableSelectionRequest true "Tables to regenerate"
// @Success 200 {object} dto.BatchResultResponse
// @Failure 400 {object} dto.Error
// @Failure 403 {object} dto.Error
// @Security BearerAuth
// @Router /tables/qr/regenerate [post]
func (h *QRHandler) BulkRegenerate(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	var req dto.TableSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error(), Code: service.CodeInvalidInput})
		return
	}

	result, err := h.batch.RegenerateMany(h.RequestCtx(c), tenantID, req.ToSelection())
	if err != nil {
		h.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromBatchResult(result))
}

// BatchDownload godoc
// @Summary Download QR codes for many tables
// @Description Returns a zip with one PNG or PDF per table, or one combined PDF with a page per table, in request order. Per-table outcomes are reported in the X-Batch-* headers
// @Tags qr
// @Accept json
// @Produce application/zip
// @Produce application/pdf
// @Param body body dto.BatchDownloadRequest true "Tables and format"
// @Success 200 {file} file
// @Failure 400 {object} dto.Error
// @Failure 422 {object} dto.BatchDownloadFailedResponse
// @Security BearerAuth
// @Router /tables/qr/download [post]
func (h *QRHandler) BatchDownload(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	var req dto.BatchDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error(), Code: service.CodeInvalidInput})
		return
	}

	download, err := h.batch.DownloadMany(h.RequestCtx(c), tenantID, req.ToSelection(), domain.BatchFormat(req.Format))
	if err != nil {
		h.WriteError(c, err)
		return
	}

	result := dto.FromBatchResult(&download.Result)
	if download.File == nil {
		code := service.CodeTableNotFound
		if len(result.Failures) > 0 {
			code = result.Failures[0].Code
		}
		c.JSON(http.StatusUnprocessableEntity, dto.BatchDownloadFailedResponse{
			Error:  "no table could be rendered",
			Code:   code,
			Result: result,
		})
		return
	}

	c.Header("X-Batch-Succeeded", strconv.Itoa(result.SuccessCount))
	c.Header("X-Batch-Failed", strconv.Itoa(result.FailedCount))
	if len(result.FailedIDs) > 0 {
		c.Header("X-Batch-Failed-IDs", strings.Join(result.FailedIDs, ","))
	}
	sendFile(c, download.File)
}

func sendFile(c *gin.Context, file *domain.File) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.MimeType, file.Data)
}
