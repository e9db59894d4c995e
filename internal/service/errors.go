package service

import (
	"context"
	"errors"

	"github.com/kingrain94/table-qr-api/internal/domain"
)

// Machine-readable error codes returned to API clients and recorded per batch item.
const (
	CodeInvalidToken     = "INVALID_TOKEN"
	CodeTableNotFound    = "TABLE_NOT_FOUND"
	CodeRenderFailed     = "RENDER_FAILED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeConfigError      = "CONFIG_ERROR"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeTimeout          = "TIMEOUT"
	CodeInternal         = "INTERNAL_ERROR"
)

func ErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return CodeInvalidToken
	case errors.Is(err, domain.ErrTableNotFound):
		return CodeTableNotFound
	case errors.Is(err, domain.ErrRenderFailed):
		return CodeRenderFailed
	case errors.Is(err, domain.ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, domain.ErrConfig):
		return CodeConfigError
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, domain.ErrStoreUnavailable):
		return CodeStoreUnavailable
	case errors.Is(err, domain.ErrInvalidInput):
		return CodeInvalidInput
	default:
		return CodeInternal
	}
}
