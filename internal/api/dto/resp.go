package dto

import (
	"time"
)

// TableCodeResponse is a signed scan URL plus its preview image
type TableCodeResponse struct {
	URL          string `json:"url" example:"https://menu.example.com/qr/eyJ0YWJsZUlkIjoi...Q.H51M8g..."`
	TableID      string `json:"table_id" example:"tbl_01"`
	TableName    string `json:"table_name" example:"Window 1"`
	TokenVersion int64  `json:"token_version" example:"3"`
	Image        string `json:"image" example:"data:image/png;base64,iVBORw0KGgo..."`
}

// ScanResponse tells the menu frontend which tenant and table a scan resolved to
type ScanResponse struct {
	TenantID  string `json:"tenant_id" example:"tenant_01"`
	TableID   string `json:"table_id" example:"tbl_01"`
	TableName string `json:"table_name" example:"Window 1"`
}

type BatchItemFailure struct {
	TableID string `json:"table_id" example:"tbl_02"`
	Code    string `json:"code" example:"TABLE_NOT_FOUND"`
}

// BatchResultResponse reports per-table outcomes, in request order
type BatchResultResponse struct {
	SucceededIDs []string           `json:"succeeded_ids"`
	FailedIDs    []string           `json:"failed_ids"`
	SuccessCount int                `json:"success_count" example:"2"`
	FailedCount  int                `json:"failed_count" example:"1"`
	Failures     []BatchItemFailure `json:"failures,omitempty"`
}

// BatchDownloadFailedResponse is returned when no table in the batch could be rendered
type BatchDownloadFailedResponse struct {
	Error  string              `json:"error" example:"no table could be rendered"`
	Code   string              `json:"code" example:"TABLE_NOT_FOUND"`
	Result BatchResultResponse `json:"result"`
}

type ExportResponse struct {
	ID          string    `json:"id" example:"0b6f6c57-4d5e-4c0e-9e37-52f1d0c4d6a1"`
	Format      string    `json:"format" example:"combined-pdf"`
	RequestedAt time.Time `json:"requested_at" example:"2026-03-01T12:00:00Z"`
	StatusURL   string    `json:"status_url" example:"/api/v1/qr/exports/0b6f6c57-4d5e-4c0e-9e37-52f1d0c4d6a1"`
}

type ExportStatusResponse struct {
	ID          string     `json:"id" example:"0b6f6c57-4d5e-4c0e-9e37-52f1d0c4d6a1"`
	Ready       bool       `json:"ready" example:"true"`
	DownloadURL string     `json:"download_url,omitempty" example:"https://qr-exports.s3.amazonaws.com/..."`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" example:"2026-03-01T12:15:00Z"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
