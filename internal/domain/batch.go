package domain

// BatchItemFailure records why one table in a batch did not succeed.
type BatchItemFailure struct {
	TableID string `json:"table_id"`
	Code    string `json:"code"`
}

// BatchResult aggregates per-table outcomes. Slices follow input order.
type BatchResult struct {
	SucceededIDs []string           `json:"succeeded_ids"`
	FailedIDs    []string           `json:"failed_ids"`
	SuccessCount int                `json:"success_count"`
	FailedCount  int                `json:"failed_count"`
	Failures     []BatchItemFailure `json:"failures,omitempty"`
}

// BatchDownload is the artifact of a multi-table download plus the per-table report.
// File is nil when no table could be rendered.
type BatchDownload struct {
	File   *File
	Result BatchResult
}
