package domain

import "errors"

// Error kinds shared across the token, render, admission and API layers.
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTableNotFound    = errors.New("table not found")
	ErrRenderFailed     = errors.New("render failed")
	ErrRateLimited      = errors.New("rate limited")
	ErrConfig           = errors.New("configuration error")
	ErrStoreUnavailable = errors.New("table store unavailable")
	ErrInvalidInput     = errors.New("invalid input")
)
