package config

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config points at the bucket holding finished exports.
type S3Config struct {
	AWSConfig
	BucketName string
	PresignTTL time.Duration
}

func DefaultS3Config() *S3Config {
	return &S3Config{
		AWSConfig:  defaultAWSConfig(),
		BucketName: getEnvWithDefault("S3_EXPORT_BUCKET", "qr-exports"),
		PresignTTL: getEnvDurationWithDefault("S3_EXPORT_URL_TTL", 15*time.Minute),
	}
}

// GetClient builds the S3 client. A custom endpoint forces path-style
// addressing, which LocalStack and MinIO need.
func (c *S3Config) GetClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
