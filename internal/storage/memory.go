package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps objects in memory. Tests use it to inspect uploads and
// to inject failures.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// FailUpload and FailDelete make the next calls fail.
	FailUpload bool
	FailDelete bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}}
}

func (s *MemoryStore) Upload(_ context.Context, bucket, namingHint string, data []byte) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpload {
		return "", "", fmt.Errorf("%w: upload rejected", ErrObjectStore)
	}
	_, ext := contentTypeAndExt(data)
	key := objectName(namingHint, ext)
	s.objects[bucket+"/"+key] = append([]byte(nil), data...)
	return "memory://" + bucket + "/" + key, key, nil
}

func (s *MemoryStore) Delete(_ context.Context, bucket, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete {
		return false, fmt.Errorf("%w: delete rejected", ErrObjectStore)
	}
	if _, ok := s.objects[bucket+"/"+key]; !ok {
		return false, nil
	}
	delete(s.objects, bucket+"/"+key)
	return true, nil
}

// Has reports whether bucket/key is stored.
func (s *MemoryStore) Has(bucket, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[bucket+"/"+key]
	return ok
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
