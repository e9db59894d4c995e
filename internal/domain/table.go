package domain

import (
	"time"
)

// Table is a physical table in a tenant's restaurant. Rows are provisioned
// elsewhere; this service only reads them and bumps TokenVersion.
type Table struct {
	ID           string    `gorm:"primaryKey;type:text" json:"id"`
	TenantID     string    `gorm:"type:text;not null;index" json:"tenant_id"`
	Name         string    `gorm:"type:text;not null" json:"name"`
	Floor        int       `gorm:"not null;default:0" json:"floor"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	TokenVersion int64     `gorm:"not null;default:0" json:"token_version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Table) TableName() string {
	return "restaurant_tables"
}

type TableFilter struct {
	TenantID   string `json:"tenant_id"`
	Floor      *int   `json:"floor,omitempty"`
	ActiveOnly bool   `json:"active_only"`
}
