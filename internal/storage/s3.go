package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/jobscout/jobscout/internal/config"
)

// S3Store talks to any S3-compatible object store (AWS S3, R2, MinIO).
type S3Store struct {
	client  *s3.S3
	bucket  string
	baseURL string
}

func NewS3Store(cfg config.Config) (*S3Store, error) {
	awsCfg := &aws.Config{
		Region:      aws.String(cfg.StorageRegion),
		Credentials: credentials.NewStaticCredentials(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
	}
	if cfg.StorageEndpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.StorageEndpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create storage session: %w", err)
	}

	return &S3Store{
		client:  s3.New(sess),
		bucket:  cfg.StorageBucket,
		baseURL: strings.TrimRight(cfg.StorageBaseURL, "/"),
	}, nil
}

func (s *S3Store) Save(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return s.baseURL + "/" + key, nil
}

func (s *S3Store) KeyFromURL(url string) string {
	return strings.TrimPrefix(strings.TrimPrefix(url, s.baseURL), "/")
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}
