package postgres

import (
	"gorm.io/gorm"

	"github.com/kingrain94/table-qr-api/internal/config"
	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/internal/repository"
)

type postgresRepository struct {
	tableRepo repository.TableRepository
}

func NewPostgresRepository(dbConnections *config.DatabaseConnections) repository.PostgresRepository {
	return &postgresRepository{
		tableRepo: NewTableRepository(dbConnections.Writer, dbConnections.Reader),
	}
}

func (r *postgresRepository) Table() repository.TableRepository {
	return r.tableRepo
}

// AutoMigrate creates the tables schema. Production schemas are owned by the
// table management service; this is used for local runs and tests.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Table{})
}
