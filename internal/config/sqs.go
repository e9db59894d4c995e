package config

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type SQSConfig struct {
	AWSConfig
	ScanQueueURL   string
	ExportQueueURL string
}

// DefaultSQSConfig reads the scan and export queue settings. AWS_SQS_ENDPOINT
// overrides AWS_ENDPOINT_URL for SQS only.
func DefaultSQSConfig() *SQSConfig {
	awsCfg := defaultAWSConfig()
	awsCfg.Endpoint = getEnvWithDefault("AWS_SQS_ENDPOINT", awsCfg.Endpoint)

	return &SQSConfig{
		AWSConfig:      awsCfg,
		ScanQueueURL:   getEnvWithDefault("AWS_SQS_SCAN_QUEUE_URL", "http://localhost:4566/000000000000/qr-scan-events"),
		ExportQueueURL: getEnvWithDefault("AWS_SQS_EXPORT_QUEUE_URL", "http://localhost:4566/000000000000/qr-export-jobs"),
	}
}

func (c *SQSConfig) GetClient(ctx context.Context) (*sqs.Client, error) {
	cfg, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	return sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
	}), nil
}

// WorkerConfig sizes the SQS polling workers.
type WorkerConfig struct {
	Count        int
	PollInterval time.Duration
}

func DefaultWorkerConfig() *WorkerConfig {
	return &WorkerConfig{
		Count:        getEnvIntWithDefault("WORKER_COUNT", 1),
		PollInterval: getEnvDurationWithDefault("WORKER_POLL_INTERVAL", 5*time.Second),
	}
}
