package dto

// TableSelectionRequest names tables explicitly or by filter. When table_ids
// is present the filter fields are ignored.
type TableSelectionRequest struct {
	TableIDs   []string `json:"table_ids" example:"tbl_01,tbl_02"`
	Floor      *int     `json:"floor" example:"1"`
	ActiveOnly bool     `json:"active_only" example:"true"`
}

type BatchDownloadRequest struct {
	TableSelectionRequest
	Format string `json:"format" binding:"required" enums:"zip-png,zip-pdf,combined-pdf" example:"zip-png"`
}

type CreateExportRequest struct {
	TableSelectionRequest
	Format string `json:"format" binding:"required" enums:"zip-png,zip-pdf,combined-pdf" example:"combined-pdf"`
}
