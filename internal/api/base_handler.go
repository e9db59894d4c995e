package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kingrain94/table-qr-api/internal/api/dto"
	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/internal/service"
	"github.com/kingrain94/table-qr-api/internal/utils"
)

type BaseHandler struct{}

func (h *BaseHandler) RequestCtx(ginCtx *gin.Context) context.Context {
	ctx := ginCtx.Request.Context()
	for k, v := range ginCtx.Keys {
		// Convert string keys to proper context key types to avoid collisions
		contextKey := utils.ContextKey(k)
		if ctx.Value(contextKey) == nil {
			ctx = context.WithValue(ctx, contextKey, v)
		}
	}
	return ctx
}

// TenantID returns the caller's tenant, writing a 401 when there is none.
func (h *BaseHandler) TenantID(c *gin.Context) (string, bool) {
	tenantID, err := utils.GetTenantIDFromContext(h.RequestCtx(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.Error{Error: "Tenant ID required", Code: "UNAUTHORIZED"})
		return "", false
	}
	return tenantID, true
}

// WriteError maps an error kind to its status code and machine-readable code.
// Internal error text is never echoed for server-side failures.
func (h *BaseHandler) WriteError(c *gin.Context, err error) {
	code := service.ErrorCode(err)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error(), Code: code})
	case errors.Is(err, domain.ErrTableNotFound):
		c.JSON(http.StatusNotFound, dto.Error{Error: "Table not found", Code: code})
	case errors.Is(err, domain.ErrInvalidToken):
		c.JSON(http.StatusNotFound, dto.Error{Error: scanRejectedMessage, Code: code})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, dto.Error{Error: "Rate limit exceeded", Code: code})
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, dto.Error{Error: "Table store unavailable, retry later", Code: code})
	case errors.Is(err, domain.ErrRenderFailed):
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "Failed to render QR code", Code: code})
	default:
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "Internal server error", Code: code})
	}
}
