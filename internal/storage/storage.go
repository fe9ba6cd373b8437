// Package storage uploads and removes binary objects (post images and
// avatars) behind the ObjectStore interface.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"socialgraph/internal/config"
	"socialgraph/internal/observability"

	"github.com/google/uuid"
)

// Buckets used by the service.
const (
	BucketPosts    = "posts"
	BucketProfiles = "profiles"
)

// ErrObjectStore wraps every backend failure.
var ErrObjectStore = errors.New("object store failure")

// ObjectStore stores bytes and hands back a stable public URL.
type ObjectStore interface {
	// Upload stores data under a name derived from namingHint and returns the
	// public URL and the object key.
	Upload(ctx context.Context, bucket, namingHint string, data []byte) (url, key string, err error)
	// Delete removes key and reports whether an object was removed.
	Delete(ctx context.Context, bucket, key string) (bool, error)
}

// New builds the backend selected by OBJECT_STORE.
func New(cfg *config.Config) (ObjectStore, error) {
	var (
		store ObjectStore
		err   error
	)
	switch cfg.ObjectStore {
	case "s3":
		store, err = NewS3Store(S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
	case "", "disk":
		store, err = NewDiskStore(cfg.UploadDir, cfg.PublicMediaURL)
	default:
		return nil, fmt.Errorf("unsupported object store %q", cfg.ObjectStore)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(store), nil
}

// Instrument counts every call on store in the object store metrics.
func Instrument(store ObjectStore) ObjectStore {
	return &instrumented{next: store}
}

type instrumented struct {
	next ObjectStore
}

// Unwrap returns the backend behind an instrumented store.
func Unwrap(store ObjectStore) ObjectStore {
	if s, ok := store.(*instrumented); ok {
		return s.next
	}
	return store
}

func (s *instrumented) Upload(ctx context.Context, bucket, namingHint string, data []byte) (string, string, error) {
	url, key, err := s.next.Upload(ctx, bucket, namingHint, data)
	observability.ObjectStoreOperations.WithLabelValues("upload", resultLabel(err)).Inc()
	return url, key, err
}

func (s *instrumented) Delete(ctx context.Context, bucket, key string) (bool, error) {
	removed, err := s.next.Delete(ctx, bucket, key)
	observability.ObjectStoreOperations.WithLabelValues("delete", resultLabel(err)).Inc()
	return removed, err
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// objectName builds "<hint>_<timestamp>_<short uuid><ext>" with path
// separators stripped from the hint.
func objectName(namingHint, ext string) string {
	hint := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', '.':
			return '_'
		}
		return r
	}, namingHint)
	if hint == "" {
		hint = "object"
	}
	return fmt.Sprintf("%s_%s_%s%s", hint, time.Now().UTC().Format("20060102T150405"), uuid.NewString()[:8], ext)
}
