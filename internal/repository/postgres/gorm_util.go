package postgres

import (
	"context"

	"gorm.io/gorm"
)

// tenantScope returns a query restricted to one tenant's rows.
func tenantScope(ctx context.Context, db *gorm.DB, tenantID string) *gorm.DB {
	return db.WithContext(ctx).Where("tenant_id = ?", tenantID)
}
