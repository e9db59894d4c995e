package dto

// Error represents a standard error response
type Error struct {
	Error string `json:"error" example:"error message"`
	Code  string `json:"code" example:"TABLE_NOT_FOUND"`
}

// RateLimitError is returned with HTTP 429
type RateLimitError struct {
	Error        string `json:"error" example:"Rate limit exceeded"`
	Code         string `json:"code" example:"RATE_LIMITED"`
	RetryAfterMs int64  `json:"retry_after_ms" example:"42000"`
}
