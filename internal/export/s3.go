// Package export uploads feedback exports to S3 or any S3-compatible store
// such as MinIO.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/cds-scoring-engine/internal/feedback"
)

const jsonContentType = "application/json"

// Config holds S3 connection settings. Credentials fall back to the default
// AWS chain when AccessKeyID is empty.
type Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional, enables path-style addressing
	AccessKeyID     string
	SecretAccessKey string
}

// S3Uploader writes objects into a single bucket.
type S3Uploader struct {
	client *s3.Client
	bucket string
	logger *logrus.Logger
}

// NewS3Uploader builds an uploader. optFns are applied to the S3 client
// options after the endpoint settings.
func NewS3Uploader(ctx context.Context, cfg Config, logger *logrus.Logger, optFns ...func(*s3.Options)) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		for _, fn := range optFns {
			fn(o)
		}
	})

	return &S3Uploader{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Bucket returns the target bucket.
func (u *S3Uploader) Bucket() string {
	return u.bucket
}

// Upload stores the contents of r under key. The body is buffered so that the
// request can be signed and retried.
func (u *S3Uploader) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading upload body: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := u.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", u.bucket, key, err)
	}

	u.logger.WithFields(logrus.Fields{
		"bucket": u.bucket,
		"key":    key,
		"bytes":  len(body),
	}).Info("Uploaded object")
	return nil
}

// UploadFeedback exports every entry in store as JSON and uploads it under
// key. An empty key uses DefaultKey.
func (u *S3Uploader) UploadFeedback(ctx context.Context, store feedback.Store, key string) (string, error) {
	if key == "" {
		key = DefaultKey(time.Now())
	}
	var buf bytes.Buffer
	if err := store.ExportJSON(ctx, &buf); err != nil {
		return "", fmt.Errorf("exporting feedback: %w", err)
	}
	if err := u.Upload(ctx, key, &buf, jsonContentType); err != nil {
		return "", err
	}
	return key, nil
}

// DefaultKey is the object key used for a feedback export taken at t.
func DefaultKey(t time.Time) string {
	return fmt.Sprintf("feedback/feedback_export_%s.json", t.UTC().Format("20060102_150405"))
}
