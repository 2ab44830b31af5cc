package archive

import (
	"errors"
	"fmt"
	"time"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/env"
)

// Config holds webhook archive configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
}

// LoadConfig loads archive configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("ARCHIVE_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("ARCHIVE_S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("ARCHIVE_S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("ARCHIVE_S3_BUCKET", ""),
		EndpointURL:     env.GetEnv("ARCHIVE_S3_ENDPOINT_URL", ""),
	}

	if config.IsEnabled() && (config.AccessKeyID == "") != (config.SecretAccessKey == "") {
		return nil, errors.New("ARCHIVE_S3_ACCESS_KEY_ID and ARCHIVE_S3_SECRET_ACCESS_KEY must be set together")
	}
	return config, nil
}

// IsEnabled returns true when a bucket is configured
func (c *Config) IsEnabled() bool {
	return c.BucketName != ""
}

// ObjectKey is webhooks/<org>/<yyyy>/<mm>/<dd>/<delivery>.json
func ObjectKey(orgID, deliveryID string, receivedAt time.Time) string {
	if orgID == "" {
		orgID = "unknown"
	}
	t := receivedAt.UTC()
	return fmt.Sprintf("webhooks/%s/%04d/%02d/%02d/%s.json", orgID, t.Year(), int(t.Month()), t.Day(), deliveryID)
}
