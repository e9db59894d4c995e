package domain

import "time"

// ExportJob is an asynchronous batch download whose artifact lands in object storage.
type ExportJob struct {
	ID          string       `json:"id"`
	TenantID    string       `json:"tenant_id"`
	TableIDs    []string     `json:"table_ids,omitempty"`
	Filter      *TableFilter `json:"filter,omitempty"`
	Format      BatchFormat  `json:"format"`
	RequestedAt time.Time    `json:"requested_at"`
}

// ObjectKey is where the export artifact is stored. It is derivable from the
// tenant and job ID alone so status lookups need nothing else.
func (j ExportJob) ObjectKey() string {
	return ExportObjectKey(j.TenantID, j.ID)
}

// FileName is the download name attached to the stored object.
func (j ExportJob) FileName() string {
	return "table-qr-codes-" + j.ID + "." + j.Format.Extension()
}

func ExportObjectKey(tenantID, exportID string) string {
	return "qr-exports/" + tenantID + "/" + exportID
}

// ExportStatus reports whether an export artifact is ready to download.
type ExportStatus struct {
	ID          string    `json:"id"`
	Ready       bool      `json:"ready"`
	DownloadURL string    `json:"download_url,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}
