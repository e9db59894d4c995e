package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/internal/render"
)

type mockTableRepository struct {
	mock.Mock
}

func (m *mockTableRepository) GetByID(ctx context.Context, tenantID, tableID string) (*domain.Table, error) {
	args := m.Called(ctx, tenantID, tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Table), args.Error(1)
}

func (m *mockTableRepository) IncrementTokenVersion(ctx context.Context, tenantID, tableID string) (*domain.Table, error) {
	args := m.Called(ctx, tenantID, tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Table), args.Error(1)
}

func (m *mockTableRepository) ListIDs(ctx context.Context, filter domain.TableFilter) ([]string, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockScanRecorder struct {
	mock.Mock
}

func (m *mockScanRecorder) RecordScan(ctx context.Context, event domain.ScanEvent) {
	m.Called(ctx, event)
}

type mockCodeIssuer struct {
	mock.Mock
}

func (m *mockCodeIssuer) IssueNew(ctx context.Context, tenantID, tableID string) (*domain.TableCode, error) {
	args := m.Called(ctx, tenantID, tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TableCode), args.Error(1)
}

func (m *mockCodeIssuer) IssueCurrent(ctx context.Context, tenantID, tableID string) (*domain.TableCode, error) {
	args := m.Called(ctx, tenantID, tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TableCode), args.Error(1)
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) ToRaster(url string, size render.Size) ([]byte, error) {
	args := m.Called(url, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockRenderer) ToVector(url string) (string, error) {
	args := m.Called(url)
	return args.String(0), args.Error(1)
}

func (m *mockRenderer) ToDocument(url, label string) ([]byte, error) {
	args := m.Called(url, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockRenderer) ToCombinedDocument(pages []render.DocumentPage) ([]byte, error) {
	args := m.Called(pages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type mockExportQueue struct {
	mock.Mock
}

func (m *mockExportQueue) SendExportJob(ctx context.Context, job *domain.ExportJob) error {
	return m.Called(ctx, job).Error(0)
}

type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) Put(ctx context.Context, key, contentType, fileName string, data []byte) error {
	return m.Called(ctx, key, contentType, fileName, data).Error(0)
}

func (m *mockObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockObjectStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

type mockBatchDownloader struct {
	mock.Mock
}

func (m *mockBatchDownloader) DownloadMany(ctx context.Context, tenantID string, sel TableSelection, format domain.BatchFormat) (*domain.BatchDownload, error) {
	args := m.Called(ctx, tenantID, sel, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchDownload), args.Error(1)
}

type mockScanEventSender struct {
	mock.Mock
}

func (m *mockScanEventSender) SendScanEvent(ctx context.Context, event domain.ScanEvent) error {
	return m.Called(ctx, event).Error(0)
}
