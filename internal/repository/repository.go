package repository

import (
	"context"

	"github.com/kingrain94/table-qr-api/internal/domain"
)

// TableRepository is the version store behind table QR codes.
//
// IncrementTokenVersion must be a single atomic storage operation so that two
// concurrent callers never observe the same post-increment value. GetByID must
// read the latest committed row; a lagging replica would resurrect revoked codes.
//
//go:generate mockery --name TableRepository --output ../mocks
type TableRepository interface {
	GetByID(ctx context.Context, tenantID, tableID string) (*domain.Table, error)
	IncrementTokenVersion(ctx context.Context, tenantID, tableID string) (*domain.Table, error)
	ListIDs(ctx context.Context, filter domain.TableFilter) ([]string, error)
}

//go:generate mockery --name ScanEventRepository --output ../mocks
type ScanEventRepository interface {
	Index(ctx context.Context, event *domain.ScanEvent) error
	BulkIndex(ctx context.Context, events []domain.ScanEvent) error
}

//go:generate mockery --name PostgresRepository --output ../mocks
type PostgresRepository interface {
	Table() TableRepository
}
