package dto

import (
	"encoding/base64"

	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/internal/service"
)

// ToSelection converts a TableSelectionRequest DTO to a service selection
func (r *TableSelectionRequest) ToSelection() service.TableSelection {
	return service.TableSelection{
		TableIDs:   r.TableIDs,
		Floor:      r.Floor,
		ActiveOnly: r.ActiveOnly,
	}
}

// FromTableCode converts a TableCode and its PNG preview to a TableCodeResponse DTO
func FromTableCode(code *domain.TableCode, png []byte) *TableCodeResponse {
	return &TableCodeResponse{
		URL:          code.URL,
		TableID:      code.TableID,
		TableName:    code.TableName,
		TokenVersion: code.TokenVersion,
		Image:        "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}
}

func FromScanTarget(target *domain.ScanTarget) *ScanResponse {
	return &ScanResponse{
		TenantID:  target.TenantID,
		TableID:   target.TableID,
		TableName: target.TableName,
	}
}

func FromBatchResult(result *domain.BatchResult) BatchResultResponse {
	resp := BatchResultResponse{
		SucceededIDs: result.SucceededIDs,
		FailedIDs:    result.FailedIDs,
		SuccessCount: result.SuccessCount,
		FailedCount:  result.FailedCount,
	}
	if resp.SucceededIDs == nil {
		resp.SucceededIDs = []string{}
	}
	if resp.FailedIDs == nil {
		resp.FailedIDs = []string{}
	}
	for _, f := range result.Failures {
		resp.Failures = append(resp.Failures, BatchItemFailure{TableID: f.TableID, Code: f.Code})
	}
	return resp
}

func FromExportJob(job *domain.ExportJob, statusURL string) *ExportResponse {
	return &ExportResponse{
		ID:          job.ID,
		Format:      string(job.Format),
		RequestedAt: job.RequestedAt,
		StatusURL:   statusURL,
	}
}

func FromExportStatus(status *domain.ExportStatus) *ExportStatusResponse {
	resp := &ExportStatusResponse{
		ID:          status.ID,
		Ready:       status.Ready,
		DownloadURL: status.DownloadURL,
	}
	if !status.ExpiresAt.IsZero() {
		expiresAt := status.ExpiresAt
		resp.ExpiresAt = &expiresAt
	}
	return resp
}
