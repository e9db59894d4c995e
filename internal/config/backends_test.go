package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestLoadDatabaseConfig_ReaderFallsBackToWriter(t *testing.T) {
	t.Setenv("POSTGRES_WRITER_HOST", "db-primary")
	t.Setenv("POSTGRES_WRITER_PASSWORD", "secret")
	t.Setenv("POSTGRES_READER_HOST", "db-replica")
	t.Setenv("POSTGRES_READER_PASSWORD", "")

	writer := loadDatabaseConfig("writer", nil)
	reader := loadDatabaseConfig("reader", writer)

	assert.Equal(t, "db-primary", writer.Host)
	assert.Equal(t, "table_qr", writer.DBName)
	assert.Equal(t, "db-replica", reader.Host)
	assert.Equal(t, "secret", reader.Password)
	assert.Equal(t, writer.Port, reader.Port)
}

func TestBuildDSN(t *testing.T) {
	cfg := &DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}

	assert.Equal(t,
		"host=h port=5432 user=u password=p dbname=d sslmode=disable application_name=table-qr-api connect_timeout=5",
		cfg.buildDSN(5*time.Second))
	assert.NotContains(t, cfg.buildDSN(0), "connect_timeout")
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, gormLogLevel("SILENT"))
	assert.Equal(t, gormlogger.Info, gormLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, gormLogLevel(""))
	assert.Equal(t, gormlogger.Warn, gormLogLevel("verbose"))
}

func TestOpenSearchConfig(t *testing.T) {
	t.Setenv("OPENSEARCH_SCHEME", "https")
	t.Setenv("OPENSEARCH_INDEX_PREFIX", "scans")
	t.Setenv("OPENSEARCH_INSECURE", "yes")

	cfg := DefaultOpenSearchConfig()
	day := time.Date(2026, 3, 1, 23, 0, 0, 0, time.FixedZone("x", -3*3600))

	assert.Equal(t, "https://localhost:9200", cfg.address())
	assert.False(t, cfg.Insecure)
	assert.Equal(t, "scans_tenant-a_2026_03_02", cfg.GetIndexName("Tenant-A", day))
	assert.Equal(t, "qr_scans_t_2026_03_02", (&OpenSearchConfig{}).GetIndexName("t", day))
}

func TestDefaultSQSConfig_EndpointOverride(t *testing.T) {
	t.Setenv("AWS_ENDPOINT_URL", "http://localstack:4566")
	t.Setenv("AWS_SQS_ENDPOINT", "")

	assert.Equal(t, "http://localstack:4566", DefaultSQSConfig().Endpoint)

	t.Setenv("AWS_SQS_ENDPOINT", "http://sqs:9324")
	assert.Equal(t, "http://sqs:9324", DefaultSQSConfig().Endpoint)
	assert.Equal(t, "http://localstack:4566", DefaultS3Config().Endpoint)
}

func TestRedisConfigAddr(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")

	cfg := DefaultRedisConfig()

	assert.Equal(t, "cache:6380", cfg.Addr())
	assert.Equal(t, 2, cfg.DB)
}

func TestAWSStaticCredentials(t *testing.T) {
	tests := []struct {
		name   string
		cfg    AWSConfig
		wantID string
		wantOK bool
	}{
		{name: "explicit keys", cfg: AWSConfig{AccessKeyID: "AKIA", SecretAccessKey: "s"}, wantID: "AKIA", wantOK: true},
		{name: "localstack without keys", cfg: AWSConfig{Endpoint: "http://localhost:4566"}, wantID: "test", wantOK: true},
		{name: "default chain", cfg: AWSConfig{AccessKeyID: "AKIA"}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, _, ok := tt.cfg.staticCredentials()

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
