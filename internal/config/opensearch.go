package config

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
)

const defaultScanIndexPrefix = "qr_scans"

// OpenSearchConfig points the index worker at the scan analytics cluster.
type OpenSearchConfig struct {
	Scheme      string
	Host        string
	Port        string
	Username    string
	Password    string
	Insecure    bool
	IndexPrefix string
}

func DefaultOpenSearchConfig() *OpenSearchConfig {
	return &OpenSearchConfig{
		Scheme:      getEnvWithDefault("OPENSEARCH_SCHEME", "http"),
		Host:        getEnvWithDefault("OPENSEARCH_HOST", "localhost"),
		Port:        getEnvWithDefault("OPENSEARCH_PORT", "9200"),
		Username:    getEnvWithDefault("OPENSEARCH_USERNAME", ""),
		Password:    getEnvWithDefault("OPENSEARCH_PASSWORD", ""),
		Insecure:    getEnvBoolWithDefault("OPENSEARCH_INSECURE", false),
		IndexPrefix: getEnvWithDefault("OPENSEARCH_INDEX_PREFIX", defaultScanIndexPrefix),
	}
}

func (c *OpenSearchConfig) address() string {
	scheme := c.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s:%s", scheme, c.Host, c.Port)
}

func (c *OpenSearchConfig) GetClient() (*opensearch.Client, error) {
	config := opensearch.Config{
		Addresses: []string{c.address()},
	}
	if c.Insecure {
		// Local clusters ship self-signed certificates
		config.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	if c.Username != "" && c.Password != "" {
		config.Username = c.Username
		config.Password = c.Password
	}

	return opensearch.NewClient(config)
}

// GetIndexName returns the scan event index for a given tenant and day
// Format: <prefix>_<tenant_id>_YYYY_MM_DD
func (c *OpenSearchConfig) GetIndexName(tenantID string, t time.Time) string {
	prefix := c.IndexPrefix
	if prefix == "" {
		prefix = defaultScanIndexPrefix
	}
	return fmt.Sprintf("%s_%s_%s", prefix, strings.ToLower(tenantID), t.UTC().Format("2006_01_02"))
}
