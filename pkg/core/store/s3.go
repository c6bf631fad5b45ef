package store

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archive keeps report artifacts (source PDF, JSON, exports).
type Archive interface {
	Put(ctx context.Context, reportID, name string, data []byte) (string, error)
}

// putObjectAPI is the slice of the S3 client the archive uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ArchiveConfig configures the S3 archive. Empty keys fall back to the
// default AWS credential chain.
type ArchiveConfig struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// S3Archive writes artifacts under reports/{id}/{name}.
type S3Archive struct {
	client putObjectAPI
	bucket string
}

// NewS3Archive loads AWS config and builds the client.
func NewS3Archive(ctx context.Context, cfg ArchiveConfig) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("ARCHIVE_BUCKET not set")
	}

	var (
		awsCfg aws.Config
		err    error
	)
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Archive{client: s3.NewFromConfig(awsCfg), bucket: cfg.Bucket}, nil
}

// ArchiveKey is the object key for a report artifact.
func ArchiveKey(reportID, name string) string {
	return path.Join("reports", reportID, name)
}

// Put uploads data and returns its key.
func (a *S3Archive) Put(ctx context.Context, reportID, name string, data []byte) (string, error) {
	key := ArchiveKey(reportID, name)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(name)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return key, nil
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".html":
		return "text/html; charset=utf-8"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
