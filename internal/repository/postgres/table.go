package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kingrain94/table-qr-api/internal/domain"
)

type TableRepository struct {
	writerDB *gorm.DB
	readerDB *gorm.DB
}

func NewTableRepository(writerDB, readerDB *gorm.DB) *TableRepository {
	return &TableRepository{
		writerDB: writerDB,
		readerDB: readerDB,
	}
}

// GetByID reads from the writer database so token version checks never see a
// lagging replica.
func (r *TableRepository) GetByID(ctx context.Context, tenantID, tableID string) (*domain.Table, error) {
	var table domain.Table
	if err := tenantScope(ctx, r.writerDB, tenantID).First(&table, "id = ?", tableID).Error; err != nil {
		return nil, translateError(err)
	}
	return &table, nil
}

// IncrementTokenVersion bumps the version with a single row-level UPDATE and
// reads the new value back inside the same transaction. The row lock taken by
// the UPDATE serializes concurrent increments for one table.
func (r *TableRepository) IncrementTokenVersion(ctx context.Context, tenantID, tableID string) (*domain.Table, error) {
	var table domain.Table

	err := r.writerDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Table{}).
			Where("id = ? AND tenant_id = ?", tableID, tenantID).
			UpdateColumns(map[string]any{
				"token_version": gorm.Expr("token_version + ?", 1),
				"updated_at":    time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.First(&table, "id = ? AND tenant_id = ?", tableID, tenantID).Error
	})
	if err != nil {
		return nil, translateError(err)
	}

	return &table, nil
}

func (r *TableRepository) ListIDs(ctx context.Context, filter domain.TableFilter) ([]string, error) {
	if filter.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", domain.ErrInvalidInput)
	}

	db := tenantScope(ctx, r.readerDB, filter.TenantID).Model(&domain.Table{})
	if filter.Floor != nil {
		db = db.Where("floor = ?", *filter.Floor)
	}
	if filter.ActiveOnly {
		db = db.Where("is_active = ?", true)
	}

	var ids []string
	if err := db.Order("name ASC, id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrTableNotFound
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
