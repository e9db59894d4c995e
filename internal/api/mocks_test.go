package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/internal/render"
	"github.com/kingrain94/table-qr-api/internal/service"
)

type MockTableAccess struct {
	mock.Mock
}

func (m *MockTableAccess) IssueNew(ctx context.Context, tenantID, tableID string) (*domain.TableCode, error) {
	args := m.Called(ctx, tenantID, tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TableCode), args.Error(1)
}

func (m *MockTableAccess) IssueCurrent(ctx context.Context, tenantID, tableID string) (*domain.TableCode, error) {
	args := m.Called(ctx, tenantID, tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TableCode), args.Error(1)
}

func (m *MockTableAccess) Validate(ctx context.Context, token string) (*domain.ScanTarget, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScanTarget), args.Error(1)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) ToRaster(url string, size render.Size) ([]byte, error) {
	args := m.Called(url, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRenderer) ToVector(url string) (string, error) {
	args := m.Called(url)
	return args.String(0), args.Error(1)
}

func (m *MockRenderer) ToDocument(url, label string) ([]byte, error) {
	args := m.Called(url, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRenderer) ToCombinedDocument(pages []render.DocumentPage) ([]byte, error) {
	args := m.Called(pages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) RegenerateMany(ctx context.Context, tenantID string, sel service.TableSelection) (*domain.BatchResult, error) {
	args := m.Called(ctx, tenantID, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

func (m *MockBatchService) DownloadMany(ctx context.Context, tenantID string, sel service.TableSelection, format domain.BatchFormat) (*domain.BatchDownload, error) {
	args := m.Called(ctx, tenantID, sel, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchDownload), args.Error(1)
}

type MockExportScheduler struct {
	mock.Mock
}

func (m *MockExportScheduler) Schedule(ctx context.Context, tenantID string, sel service.TableSelection, format domain.BatchFormat) (*domain.ExportJob, error) {
	args := m.Called(ctx, tenantID, sel, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportJob), args.Error(1)
}

func (m *MockExportScheduler) Status(ctx context.Context, tenantID, exportID string) (*domain.ExportStatus, error) {
	args := m.Called(ctx, tenantID, exportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportStatus), args.Error(1)
}
