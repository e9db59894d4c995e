package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DatabaseConfig describes one Postgres endpoint of the table store.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ConnectionPoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// loadDatabaseConfig reads POSTGRES_<ROLE>_* variables. Unset fields fall back
// to base, so a single-node setup only needs the writer settings.
func loadDatabaseConfig(role string, base *DatabaseConfig) *DatabaseConfig {
	prefix := "POSTGRES_" + strings.ToUpper(role) + "_"
	if base == nil {
		base = &DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			DBName:  "table_qr",
			SSLMode: "disable",
		}
	}
	return &DatabaseConfig{
		Host:     getEnvWithDefault(prefix+"HOST", base.Host),
		Port:     getEnvWithDefault(prefix+"PORT", base.Port),
		User:     getEnvWithDefault(prefix+"USER", base.User),
		Password: getEnvWithDefault(prefix+"PASSWORD", base.Password),
		DBName:   getEnvWithDefault(prefix+"DB_NAME", base.DBName),
		SSLMode:  getEnvWithDefault(prefix+"SSL_MODE", base.SSLMode),
	}
}

func loadConnectionPoolConfig() *ConnectionPoolConfig {
	return &ConnectionPoolConfig{
		MaxOpenConns:    getEnvIntWithDefault("DB_MAX_OPEN_CONNS", 50),
		MaxIdleConns:    getEnvIntWithDefault("DB_MAX_IDLE_CONNS", 10),
		ConnMaxLifetime: getEnvDurationWithDefault("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: getEnvDurationWithDefault("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		ConnectTimeout:  getEnvDurationWithDefault("DB_CONNECT_TIMEOUT", 5*time.Second),
	}
}

// gormLogLevel maps DB_LOG_LEVEL (silent, error, warn, info) to gorm's levels.
func gormLogLevel(value string) gormlogger.LogLevel {
	switch strings.ToLower(value) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func (c *DatabaseConfig) buildDSN(connectTimeout time.Duration) string {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s application_name=table-qr-api",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	if seconds := int(connectTimeout / time.Second); seconds > 0 {
		dsn += fmt.Sprintf(" connect_timeout=%d", seconds)
	}
	return dsn
}

// openDatabase opens a pooled gorm connection and pings it within the pool's connect timeout.
func openDatabase(role string, config *DatabaseConfig, pool *ConnectionPoolConfig, level gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.buildDSN(pool.ConnectTimeout)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", role, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), pool.ConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s database at %s:%s: %w", role, config.Host, config.Port, err)
	}

	return db, nil
}

// DatabaseConnections holds the writer and reader handles. Token version
// increments and validation reads go to Writer; listing can use Reader.
type DatabaseConnections struct {
	Writer *gorm.DB
	Reader *gorm.DB
}

func NewDatabaseConnections() (*DatabaseConnections, error) {
	pool := loadConnectionPoolConfig()
	level := gormLogLevel(getEnvWithDefault("DB_LOG_LEVEL", "warn"))

	writerConfig := loadDatabaseConfig("writer", nil)
	writer, err := openDatabase("writer", writerConfig, pool, level)
	if err != nil {
		return nil, err
	}

	reader, err := openDatabase("reader", loadDatabaseConfig("reader", writerConfig), pool, level)
	if err != nil {
		closeDB(writer)
		return nil, err
	}

	return &DatabaseConnections{
		Writer: writer,
		Reader: reader,
	}, nil
}

func (dc *DatabaseConnections) Close() error {
	var errs []error
	if err := closeDB(dc.Writer); err != nil {
		errs = append(errs, fmt.Errorf("failed to close writer database connection: %w", err))
	}
	if err := closeDB(dc.Reader); err != nil {
		errs = append(errs, fmt.Errorf("failed to close reader database connection: %w", err))
	}
	return errors.Join(errs...)
}

func closeDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
