package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/internal/render"
	"github.com/kingrain94/table-qr-api/internal/repository"
	"github.com/kingrain94/table-qr-api/pkg/logger"
)

const MaxBatchSize = 500

//go:generate mockery --name CodeIssuer --output ../mocks
type CodeIssuer interface {
	IssueNew(ctx context.Context, tenantID, tableID string) (*domain.TableCode, error)
	IssueCurrent(ctx context.Context, tenantID, tableID string) (*domain.TableCode, error)
}

//go:generate mockery --name Renderer --output ../mocks
type Renderer interface {
	ToRaster(url string, size render.Size) ([]byte, error)
	ToVector(url string) (string, error)
	ToDocument(url, label string) ([]byte, error)
	ToCombinedDocument(pages []render.DocumentPage) ([]byte, error)
}

type BatchMetrics interface {
	RecordBatchItem(operation string, ok bool)
}

// TableSelection names tables explicitly or by filter. Explicit IDs win.
type TableSelection struct {
	TableIDs []string
	Floor    *int
	// ActiveOnly only applies to filter selection.
	ActiveOnly bool
}

func (s TableSelection) hasFilter() bool {
	return s.Floor != nil || s.ActiveOnly
}

type BatchConfig struct {
	Concurrency int
	ItemTimeout time.Duration
}

type BatchCoordinator struct {
	issuer      CodeIssuer
	renderer    Renderer
	tables      repository.TableRepository
	concurrency int
	itemTimeout time.Duration
	now         func() time.Time
	logger      *logger.Logger
	metrics     BatchMetrics
}

func NewBatchCoordinator(issuer CodeIssuer, renderer Renderer, tables repository.TableRepository, cfg BatchConfig, logger *logger.Logger) *BatchCoordinator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = 10 * time.Second
	}
	return &BatchCoordinator{
		issuer:      issuer,
		renderer:    renderer,
		tables:      tables,
		concurrency: cfg.Concurrency,
		itemTimeout: cfg.ItemTimeout,
		now:         time.Now,
		logger:      logger,
	}
}

func (c *BatchCoordinator) SetMetrics(metrics BatchMetrics) {
	c.metrics = metrics
}

// RegenerateMany issues a new code for every selected table. Item failures are
// reported in the result; only a bad selection fails the call.
func (c *BatchCoordinator) RegenerateMany(ctx context.Context, tenantID string, sel TableSelection) (*domain.BatchResult, error) {
	ids, err := c.resolve(ctx, tenantID, sel)
	if err != nil {
		return nil, err
	}

	outcomes := fanOut(ctx, c, ids, func(ctx context.Context, id string) (*domain.TableCode, error) {
		return c.issuer.IssueNew(ctx, tenantID, id)
	})

	result := newBatchResult()
	for i, id := range ids {
		c.collect(result, "regenerate", id, outcomes[i].err)
	}
	return result, nil
}

type renderedItem struct {
	code *domain.TableCode
	data []byte
}

// DownloadMany renders the current code of every selected table into one artifact.
// Zip formats hold one entry per table; combined-pdf holds one page per table.
// Both follow selection order.
func (c *BatchCoordinator) DownloadMany(ctx context.Context, tenantID string, sel TableSelection, format domain.BatchFormat) (*domain.BatchDownload, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: unsupported batch format %q", domain.ErrInvalidInput, format)
	}
	ids, err := c.resolve(ctx, tenantID, sel)
	if err != nil {
		return nil, err
	}

	outcomes := fanOut(ctx, c, ids, func(ctx context.Context, id string) (renderedItem, error) {
		code, err := c.issuer.IssueCurrent(ctx, tenantID, id)
		if err != nil {
			return renderedItem{}, err
		}
		item := renderedItem{code: code}
		switch format {
		case domain.BatchFormatZipPNG:
			item.data, err = c.renderer.ToRaster(code.URL, render.SizeDownload)
		case domain.BatchFormatZipPDF:
			item.data, err = c.renderer.ToDocument(code.URL, code.TableName)
		}
		if err != nil {
			return renderedItem{}, err
		}
		return item, nil
	})

	result := newBatchResult()
	var items []renderedItem
	for i, id := range ids {
		c.collect(result, "download", id, outcomes[i].err)
		if outcomes[i].err == nil {
			items = append(items, outcomes[i].value)
		}
	}

	download := &domain.BatchDownload{Result: *result}
	if len(items) == 0 {
		return download, nil
	}

	data, err := c.pack(items, format)
	if err != nil {
		c.logger.Error("Failed to package batch download", err, zap.String("format", string(format)))
		download.Result = failAll(ids, result, CodeRenderFailed)
		return download, nil
	}

	download.File = &domain.File{
		Name:     "table-qr-codes." + format.Extension(),
		MimeType: format.MimeType(),
		Data:     data,
	}
	return download, nil
}

func (c *BatchCoordinator) pack(items []renderedItem, format domain.BatchFormat) ([]byte, error) {
	if format == domain.BatchFormatCombinedPDF {
		pages := make([]render.DocumentPage, len(items))
		for i, item := range items {
			pages[i] = render.DocumentPage{URL: item.code.URL, Label: item.code.TableName}
		}
		return c.renderer.ToCombinedDocument(pages)
	}

	ext := "png"
	if format == domain.BatchFormatZipPDF {
		ext = "pdf"
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := c.now()
	used := make(map[string]bool, len(items))
	for _, item := range items {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     uniqueEntryName(used, CodeFileName(item.code, ext)),
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
		}
		if _, err := w.Write(item.data); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

// resolve turns a selection into an ordered, de-duplicated list of table IDs.
func (c *BatchCoordinator) resolve(ctx context.Context, tenantID string, sel TableSelection) ([]string, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, fmt.Errorf("%w: tenant id is required", domain.ErrInvalidInput)
	}

	var ids []string
	switch {
	case len(sel.TableIDs) > 0:
		seen := make(map[string]struct{}, len(sel.TableIDs))
		for _, id := range sel.TableIDs {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("%w: table_ids contains no usable id", domain.ErrInvalidInput)
		}
	case sel.hasFilter():
		listed, err := c.tables.ListIDs(ctx, domain.TableFilter{
			TenantID:   tenantID,
			Floor:      sel.Floor,
			ActiveOnly: sel.ActiveOnly,
		})
		if err != nil {
			return nil, err
		}
		ids = listed
	default:
		return nil, fmt.Errorf("%w: table_ids or a filter is required", domain.ErrInvalidInput)
	}

	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("%w: batch exceeds %d tables", domain.ErrInvalidInput, MaxBatchSize)
	}
	return ids, nil
}

func (c *BatchCoordinator) collect(result *domain.BatchResult, operation, id string, err error) {
	if c.metrics != nil {
		c.metrics.RecordBatchItem(operation, err == nil)
	}
	if err == nil {
		result.SucceededIDs = append(result.SucceededIDs, id)
		result.SuccessCount++
		return
	}

	code := ErrorCode(err)
	c.logger.Warn("Batch item failed",
		zap.String("operation", operation),
		zap.String("table_id", id),
		zap.String("code", code),
		zap.Error(err),
	)
	result.FailedIDs = append(result.FailedIDs, id)
	result.FailedCount++
	result.Failures = append(result.Failures, domain.BatchItemFailure{TableID: id, Code: code})
}

type itemOutcome[T any] struct {
	value T
	err   error
}

// fanOut runs fn for every id with bounded concurrency. Outcomes are indexed
// like ids; no item error stops the others.
func fanOut[T any](ctx context.Context, c *BatchCoordinator, ids []string, fn func(context.Context, string) (T, error)) []itemOutcome[T] {
	out := make([]itemOutcome[T], len(ids))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			v, err := withTimeout(ctx, c.itemTimeout, func(ctx context.Context) (T, error) {
				return fn(ctx, id)
			})
			out[i] = itemOutcome[T]{value: v, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// withTimeout returns when fn does or when the deadline passes, whichever is first.
func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan itemOutcome[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- itemOutcome[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func newBatchResult() *domain.BatchResult {
	return &domain.BatchResult{
		SucceededIDs: []string{},
		FailedIDs:    []string{},
	}
}

// failAll marks every id failed, keeping the code of items that had already failed.
func failAll(ids []string, prior *domain.BatchResult, code string) domain.BatchResult {
	priorCodes := make(map[string]string, len(prior.Failures))
	for _, f := range prior.Failures {
		priorCodes[f.TableID] = f.Code
	}

	out := *newBatchResult()
	for _, id := range ids {
		c, ok := priorCodes[id]
		if !ok {
			c = code
		}
		out.FailedIDs = append(out.FailedIDs, id)
		out.Failures = append(out.Failures, domain.BatchItemFailure{TableID: id, Code: c})
	}
	out.FailedCount = len(out.FailedIDs)
	return out
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func safeName(s string) string {
	return strings.Trim(unsafeNameChars.ReplaceAllString(s, "-"), "-.")
}

// uniqueEntryName returns name, or name with a -2, -3, ... suffix before the
// extension when an earlier entry already took it. IDs that differ only in
// unsafe characters sanitize to the same name.
func uniqueEntryName(used map[string]bool, name string) string {
	candidate := name
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; used[candidate]; n++ {
		candidate = base + "-" + strconv.Itoa(n) + ext
	}
	used[candidate] = true
	return candidate
}

// CodeFileName is the download name of one table's artifact.
func CodeFileName(code *domain.TableCode, ext string) string {
	id := safeName(code.TableID)
	if name := safeName(code.TableName); name != "" {
		return name + "_" + id + "." + ext
	}
	return id + "." + ext
}
