package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// AWSConfig is shared by the SQS and S3 clients. Endpoint is set for LocalStack runs.
type AWSConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

func defaultAWSConfig() AWSConfig {
	return AWSConfig{
		Region:          getEnvWithDefault("AWS_REGION", "us-east-1"),
		Endpoint:        getEnvWithDefault("AWS_ENDPOINT_URL", ""),
		AccessKeyID:     getEnvWithDefault("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnvWithDefault("AWS_SECRET_ACCESS_KEY", ""),
	}
}

// staticCredentials returns the keys to pin, if any. LocalStack accepts any
// keys, so a custom endpoint without keys gets placeholders.
func (c AWSConfig) staticCredentials() (string, string, bool) {
	switch {
	case c.AccessKeyID != "" && c.SecretAccessKey != "":
		return c.AccessKeyID, c.SecretAccessKey, true
	case c.Endpoint != "":
		return "test", "test", true
	default:
		return "", "", false
	}
}

// load resolves the SDK config. Without static keys the default credential
// chain applies (instance role, profile).
func (c AWSConfig) load(ctx context.Context) (aws.Config, error) {
	options := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(c.Region),
	}
	if id, secret, ok := c.staticCredentials(); ok {
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(id, secret, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return cfg, nil
}
