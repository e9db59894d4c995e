package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kingrain94/table-qr-api/internal/domain"
)

// DefaultQRSecretKey is the shipped placeholder. It is fatal in production.
const DefaultQRSecretKey = "change-me-qr-secret-key"

const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

type Config struct {
	AppEnv             string          `json:"app_env"`
	ServerPort         int             `json:"server_port"`
	JWTSecretKey       string          `json:"jwt_secret_key"`
	CORSAllowedOrigins []string        `json:"cors_allowed_origins"`
	QR                 QRConfig        `json:"qr"`
	RateLimit          RateLimitConfig `json:"rate_limit"`
	Batch              BatchConfig     `json:"batch"`
}

type QRConfig struct {
	SecretKey    string        `json:"-"`
	BaseURL      string        `json:"base_url"`
	MaxTokenAge  time.Duration `json:"max_token_age"`
	PreviewSize  int           `json:"preview_size"`
	DownloadSize int           `json:"download_size"`
}

type RateLimitConfig struct {
	Backend        string        `json:"backend"`
	MaxRequests    int           `json:"max_requests"`
	Window         time.Duration `json:"window"`
	SweepInterval  time.Duration `json:"sweep_interval"`
	TrustedProxies []string      `json:"trusted_proxies"`
}

type BatchConfig struct {
	Concurrency int           `json:"concurrency"`
	ItemTimeout time.Duration `json:"item_timeout"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func Load() (*Config, error) {
	serverPort, _ := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if serverPort == 0 {
		serverPort = 10000
	}

	maxRequests, err := getEnvPositiveInt("RATE_LIMIT_MAX_REQUESTS", 60)
	if err != nil {
		return nil, err
	}
	windowMS, err := getEnvPositiveInt("RATE_LIMIT_WINDOW_MS", 60000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:             getEnvWithDefault("APP_ENV", "development"),
		ServerPort:         serverPort,
		JWTSecretKey:       os.Getenv("JWT_SECRET_KEY"),
		CORSAllowedOrigins: splitList(getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*")),
		QR: QRConfig{
			SecretKey:    getEnvWithDefault("QR_SECRET_KEY", DefaultQRSecretKey),
			BaseURL:      strings.TrimRight(getEnvWithDefault("QR_BASE_URL", "http://localhost:3000"), "/"),
			MaxTokenAge:  getEnvDurationWithDefault("QR_TOKEN_MAX_AGE", 876000*time.Hour),
			PreviewSize:  getEnvIntWithDefault("QR_PREVIEW_SIZE", 300),
			DownloadSize: getEnvIntWithDefault("QR_DOWNLOAD_SIZE", 1000),
		},
		RateLimit: RateLimitConfig{
			Backend:        strings.ToLower(getEnvWithDefault("RATE_LIMIT_BACKEND", RateLimitBackendMemory)),
			MaxRequests:    maxRequests,
			Window:         time.Duration(windowMS) * time.Millisecond,
			SweepInterval:  getEnvDurationWithDefault("RATE_LIMIT_SWEEP_INTERVAL", time.Minute),
			TrustedProxies: splitList(getEnvWithDefault("RATE_LIMIT_TRUSTED_PROXIES", "")),
		},
		Batch: BatchConfig{
			Concurrency: getEnvIntWithDefault("BATCH_CONCURRENCY", 4),
			ItemTimeout: getEnvDurationWithDefault("BATCH_ITEM_TIMEOUT", 10*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Warnings lists insecure but tolerated settings outside production.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.QR.SecretKey == DefaultQRSecretKey {
		warnings = append(warnings, "QR_SECRET_KEY is the default placeholder; issued codes are forgeable")
	}
	if c.JWTSecretKey == "" {
		warnings = append(warnings, "JWT_SECRET_KEY is empty; staff routes will reject every request")
	}
	return warnings
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.QR.SecretKey) == "" {
		return fmt.Errorf("%w: QR_SECRET_KEY is required", domain.ErrConfig)
	}
	if c.IsProduction() && c.QR.SecretKey == DefaultQRSecretKey {
		return fmt.Errorf("%w: QR_SECRET_KEY must be changed from the default in production", domain.ErrConfig)
	}
	if c.IsProduction() && c.JWTSecretKey == "" {
		return fmt.Errorf("%w: JWT_SECRET_KEY is required in production", domain.ErrConfig)
	}

	base, err := url.Parse(c.QR.BaseURL)
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return fmt.Errorf("%w: QR_BASE_URL must be an absolute http(s) URL, got %q", domain.ErrConfig, c.QR.BaseURL)
	}
	if c.QR.MaxTokenAge <= 0 {
		return fmt.Errorf("%w: QR_TOKEN_MAX_AGE must be positive", domain.ErrConfig)
	}
	if c.QR.PreviewSize <= 0 || c.QR.DownloadSize <= 0 {
		return fmt.Errorf("%w: QR image sizes must be positive", domain.ErrConfig)
	}

	switch c.RateLimit.Backend {
	case RateLimitBackendMemory, RateLimitBackendRedis:
	default:
		return fmt.Errorf("%w: RATE_LIMIT_BACKEND must be %q or %q", domain.ErrConfig, RateLimitBackendMemory, RateLimitBackendRedis)
	}
	for _, proxy := range c.RateLimit.TrustedProxies {
		if !validProxy(proxy) {
			return fmt.Errorf("%w: RATE_LIMIT_TRUSTED_PROXIES entry %q is not an IP or CIDR", domain.ErrConfig, proxy)
		}
	}
	if c.RateLimit.SweepInterval <= 0 {
		return fmt.Errorf("%w: RATE_LIMIT_SWEEP_INTERVAL must be positive", domain.ErrConfig)
	}
	if c.Batch.Concurrency <= 0 {
		c.Batch.Concurrency = 1
	}
	return nil
}

func getEnvPositiveInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrConfig, key, value)
	}
	return n, nil
}

func validProxy(value string) bool {
	if strings.Contains(value, "/") {
		_, _, err := net.ParseCIDR(value)
		return err == nil
	}
	return net.ParseIP(value) != nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
