package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// Object is one raw webhook body to archive.
type Object struct {
	OrgID      string
	DeliveryID string
	ReceivedAt time.Time
	Body       []byte
}

// PutObjectAPI is the part of the S3 client the archiver needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver writes webhook bodies to S3.
type Archiver struct {
	api    PutObjectAPI
	bucket string
}

func NewArchiver(api PutObjectAPI, bucket string) *Archiver {
	return &Archiver{api: api, bucket: bucket}
}

// NewFromConfig builds an S3-backed Archiver. Static credentials are used when
// set, otherwise the default AWS credential chain.
func NewFromConfig(ctx context.Context, cfg *Config) (*Archiver, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("webhook archive is disabled")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	log.Infof("[Archive] Webhook archive enabled for bucket: %s", cfg.BucketName)
	return NewArchiver(s3Client, cfg.BucketName), nil
}

// Archive uploads the body and returns its object key.
func (a *Archiver) Archive(ctx context.Context, obj Object) (string, error) {
	key := ObjectKey(obj.OrgID, obj.DeliveryID, obj.ReceivedAt)
	_, err := a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(obj.Body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}
