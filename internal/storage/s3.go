package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3 stores blobs in an S3 compatible bucket via the MinIO client.
type S3 struct {
	client *minio.Client
	bucket string
}

// S3Options configure the S3 backend. Endpoint is host:port without a
// scheme; UseSSL selects https.
type S3Options struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// NewS3 builds the client without touching the network; a missing bucket
// surfaces on the first Put.
func NewS3(opts S3Options) (*S3, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("s3 storage needs an endpoint")
	}
	if opts.Bucket == "" {
		return nil, errors.New("s3 storage needs a bucket")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return &S3{client: client, bucket: opts.Bucket}, nil
}

// Put uploads the blob under key with the given content type.
func (s *S3) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}
