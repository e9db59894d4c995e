package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kingrain94/table-qr-api/internal/api/dto"
	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/internal/service"
)

// scanRejectedMessage is the only thing a scanner learns about a failed scan.
const scanRejectedMessage = "this code is invalid or has expired"

//go:generate mockery --name ScanValidator --output ../mocks
type ScanValidator interface {
	Validate(ctx context.Context, token string) (*domain.ScanTarget, error)
}

type ScanHandler struct {
	*BaseHandler
	validator ScanValidator
}

func NewScanHandler(validator ScanValidator) *ScanHandler {
	return &ScanHandler{validator: validator}
}

// ValidateScan godoc
// @Summary Resolve a scanned table QR code
// @Description Public endpoint hit by diners. Every rejection (bad signature, regenerated code, unknown or disabled table) returns the same 404
// @Tags scan
// @Produce json
// @Param token path string true "Signed table token"
// @Success 200 {object} dto.ScanResponse
// @Failure 404 {object} dto.Error
// @Failure 429 {object} dto.RateLimitError
// @Router /scan/{token} [get]
func (h *ScanHandler) ValidateScan(c *gin.Context) {
	target, err := h.validator.Validate(h.RequestCtx(c), c.Param("token"))
	if err != nil {
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusNotFound, dto.Error{Error: scanRejectedMessage, Code: service.CodeInvalidToken})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, dto.FromScanTarget(target))
}
