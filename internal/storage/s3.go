package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pageza/foodgram/backend/config"
)

// S3Store keeps images in a public-read bucket
type S3Store struct {
	s3      *config.S3Config
	baseURL string
}

// NewS3Store builds the public base URL from the endpoint (path style) or
// the standard virtual-hosted AWS address.
func NewS3Store(s3cfg *config.S3Config, region, endpoint string) *S3Store {
	base := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s3cfg.BucketName, region)
	if endpoint != "" {
		base = strings.TrimSuffix(endpoint, "/") + "/" + s3cfg.BucketName + "/"
	}
	return &S3Store{s3: s3cfg, baseURL: base}
}

func (s *S3Store) Save(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.s3.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload image to S3: %w", err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.s3.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image from S3: %w", err)
	}
	return nil
}

func (s *S3Store) URL(key string) string {
	return s.baseURL + strings.TrimPrefix(key, "/")
}
