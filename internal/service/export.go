package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kingrain94/table-qr-api/internal/domain"
)

//go:generate mockery --name ExportQueue --output ../mocks
type ExportQueue interface {
	SendExportJob(ctx context.Context, job *domain.ExportJob) error
}

//go:generate mockery --name ObjectStore --output ../mocks
type ObjectStore interface {
	Put(ctx context.Context, key, contentType, fileName string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type BatchDownloader interface {
	DownloadMany(ctx context.Context, tenantID string, sel TableSelection, format domain.BatchFormat) (*domain.BatchDownload, error)
}

// ExportService schedules batch downloads for background rendering and hands
// out short-lived links to the finished artifacts.
type ExportService struct {
	queue      ExportQueue
	store      ObjectStore
	downloader BatchDownloader
	urlTTL     time.Duration
	now        func() time.Time
}

func NewExportService(queue ExportQueue, store ObjectStore, downloader BatchDownloader, urlTTL time.Duration) *ExportService {
	return &ExportService{
		queue:      queue,
		store:      store,
		downloader: downloader,
		urlTTL:     urlTTL,
		now:        time.Now,
	}
}

func (s *ExportService) Schedule(ctx context.Context, tenantID string, sel TableSelection, format domain.BatchFormat) (*domain.ExportJob, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", domain.ErrInvalidInput)
	}
	if !format.Valid() {
		return nil, fmt.Errorf("%w: unsupported batch format %q", domain.ErrInvalidInput, format)
	}
	if len(sel.TableIDs) == 0 && !sel.hasFilter() {
		return nil, fmt.Errorf("%w: table_ids or a filter is required", domain.ErrInvalidInput)
	}
	if len(sel.TableIDs) > MaxBatchSize {
		return nil, fmt.Errorf("%w: batch exceeds %d tables", domain.ErrInvalidInput, MaxBatchSize)
	}

	job := &domain.ExportJob{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		TableIDs:    sel.TableIDs,
		Format:      format,
		RequestedAt: s.now().UTC(),
	}
	if len(sel.TableIDs) == 0 {
		job.Filter = &domain.TableFilter{TenantID: tenantID, Floor: sel.Floor, ActiveOnly: sel.ActiveOnly}
	}

	if err := s.queue.SendExportJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to schedule export: %w", err)
	}
	return job, nil
}

// Status reports whether the artifact exists and, if so, a presigned link to it.
func (s *ExportService) Status(ctx context.Context, tenantID, exportID string) (*domain.ExportStatus, error) {
	if _, err := uuid.Parse(exportID); err != nil {
		return nil, fmt.Errorf("%w: malformed export id", domain.ErrInvalidInput)
	}

	key := domain.ExportObjectKey(tenantID, exportID)
	ready, err := s.store.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	status := &domain.ExportStatus{ID: exportID, Ready: ready}
	if !ready {
		return status, nil
	}

	url, err := s.store.PresignGet(ctx, key, s.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	status.DownloadURL = url
	status.ExpiresAt = s.now().Add(s.urlTTL).UTC()
	return status, nil
}

// Run renders a scheduled job and uploads the result. A job that yields no
// artifact fails with ErrStoreUnavailable when any item hit a transient error,
// so the caller can retry it, and with ErrInvalidInput or ErrRenderFailed otherwise.
func (s *ExportService) Run(ctx context.Context, job *domain.ExportJob) (*domain.BatchResult, error) {
	sel := TableSelection{TableIDs: job.TableIDs}
	if job.Filter != nil {
		sel.Floor = job.Filter.Floor
		sel.ActiveOnly = job.Filter.ActiveOnly
	}

	download, err := s.downloader.DownloadMany(ctx, job.TenantID, sel, job.Format)
	if err != nil {
		return nil, err
	}
	if download.File == nil {
		return &download.Result, noArtifactError(job.ID, &download.Result)
	}

	if err := s.store.Put(ctx, job.ObjectKey(), download.File.MimeType, job.FileName(), download.File.Data); err != nil {
		return &download.Result, err
	}
	return &download.Result, nil
}

func noArtifactError(jobID string, result *domain.BatchResult) error {
	if result.FailedCount == 0 {
		return fmt.Errorf("%w: export %s selected no tables", domain.ErrInvalidInput, jobID)
	}
	for _, f := range result.Failures {
		if f.Code == CodeStoreUnavailable || f.Code == CodeTimeout {
			return fmt.Errorf("%w: export %s hit a transient failure", domain.ErrStoreUnavailable, jobID)
		}
	}
	return fmt.Errorf("%w: export %s produced no artifact", domain.ErrRenderFailed, jobID)
}
