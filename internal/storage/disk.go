package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore writes objects under <root>/<bucket>/<key> and serves them from
// <publicURL>/<bucket>/<key>.
type DiskStore struct {
	root      string
	publicURL string
}

// NewDiskStore creates root if needed.
func NewDiskStore(root, publicURL string) (*DiskStore, error) {
	if root == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{root: root, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Root returns the directory served as static media.
func (s *DiskStore) Root() string {
	return s.root
}

func (s *DiskStore) Upload(_ context.Context, bucket, namingHint string, data []byte) (string, string, error) {
	_, ext := contentTypeAndExt(data)
	key := objectName(namingHint, ext)

	path, err := s.path(bucket, key)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrObjectStore, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrObjectStore, err)
	}
	return fmt.Sprintf("%s/%s/%s", s.publicURL, bucket, key), key, nil
}

func (s *DiskStore) Delete(_ context.Context, bucket, key string) (bool, error) {
	path, err := s.path(bucket, key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrObjectStore, err)
	}
	return true, nil
}

// path rejects keys that would escape the bucket directory.
func (s *DiskStore) path(bucket, key string) (string, error) {
	if bucket == "" || key == "" || strings.Contains(bucket, "..") || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: invalid object path %q/%q", ErrObjectStore, bucket, key)
	}
	return filepath.Join(s.root, bucket, key), nil
}
