package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures an S3-compatible backend.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PublicURL overrides the URL prefix handed to clients, e.g. a CDN.
	PublicURL string
}

// S3Store stores objects in an S3-compatible service via minio-go.
type S3Store struct {
	cfg    S3Config
	client *minio.Client

	mu      sync.Mutex
	ensured map[string]bool
}

// NewS3Store creates the client. Buckets are created lazily on first upload.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	cfg.Endpoint = endpoint
	return &S3Store{cfg: cfg, client: cl, ensured: map[string]bool{}}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured[bucket] {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}
	s.ensured[bucket] = true
	return nil
}

func (s *S3Store) Upload(ctx context.Context, bucket, namingHint string, data []byte) (string, string, error) {
	if err := s.ensureBucket(ctx, bucket); err != nil {
		return "", "", fmt.Errorf("%w: ensure bucket %s: %v", ErrObjectStore, bucket, err)
	}

	contentType, ext := contentTypeAndExt(data)
	key := objectName(namingHint, ext)
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: put %s/%s: %v", ErrObjectStore, bucket, key, err)
	}
	return s.publicURL(bucket, key), key, nil
}

func (s *S3Store) Delete(ctx context.Context, bucket, key string) (bool, error) {
	if _, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %s/%s: %v", ErrObjectStore, bucket, key, err)
	}
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("%w: remove %s/%s: %v", ErrObjectStore, bucket, key, err)
	}
	return true, nil
}

func (s *S3Store) publicURL(bucket, key string) string {
	if s.cfg.PublicURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.cfg.PublicURL, bucket, key)
	}
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, bucket, key)
}
