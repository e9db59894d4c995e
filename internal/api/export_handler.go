package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kingrain94/table-qr-api/internal/api/dto"
	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/internal/service"
)

//go:generate mockery --name ExportScheduler --output ../mocks
type ExportScheduler interface {
	Schedule(ctx context.Context, tenantID string, sel service.TableSelection, format domain.BatchFormat) (*domain.ExportJob, error)
	Status(ctx context.Context, tenantID, exportID string) (*domain.ExportStatus, error)
}

type ExportHandler struct {
	*BaseHandler
	exports ExportScheduler
}

func NewExportHandler(exports ExportScheduler) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// CreateExport godoc
// @Summary Schedule a background batch download
// @Description Queues a batch download for rendering by the export worker. Poll status_url until the artifact is ready
// @Tags exports
// @Accept json
// @Produce json
// @Param body body dto.CreateExportRequest true "Tables and format"
// @Success 202 {object} dto.ExportResponse
// @Failure 400 {object} dto.Error
// @Failure 401 {object} dto.Error
// @Failure 500 {object} dto.Error
// @Security BearerAuth
// @Router /qr/exports [post]
func (h *ExportHandler) CreateExport(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	var req dto.CreateExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error(), Code: service.CodeInvalidInput})
		return
	}

	job, err := h.exports.Schedule(h.RequestCtx(c), tenantID, req.ToSelection(), domain.BatchFormat(req.Format))
	if err != nil {
		h.WriteError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.FromExportJob(job, "/api/v1/qr/exports/"+job.ID))
}

// GetExport godoc
// @Summary Get the status of a background batch download
// @Tags exports
// @Produce json
// @Param id path string true "Export ID"
// @Success 200 {object} dto.ExportStatusResponse
// @Failure 400 {object} dto.Error
// @Failure 503 {object} dto.Error
// @Security BearerAuth
// @Router /qr/exports/{id} [get]
func (h *ExportHandler) GetExport(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	status, err := h.exports.Status(h.RequestCtx(c), tenantID, c.Param("id"))
	if err != nil {
		h.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromExportStatus(status))
}
