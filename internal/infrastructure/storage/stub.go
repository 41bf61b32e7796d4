package storage

import (
	"context"
	"net/url"
	"sort"
	"sync"
	"time"

	appdocument "github.com/drymix/erp/internal/application/document"
)

var _ appdocument.ObjectStorage = (*MemoryObjectStorage)(nil)

// MemoryObjectStorage keeps objects in memory. It backs development setups
// without S3 and the tests; presigned URLs point at BaseURL and are not
// served by anything.
type MemoryObjectStorage struct {
	BaseURL string
	Bucket  string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryObjectStorage creates an empty in-memory store
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		BaseURL: "https://storage.invalid",
		Bucket:  "memory",
		objects: make(map[string]memoryObject),
	}
}

func (s *MemoryObjectStorage) url(op, key string, expiresIn time.Duration) (string, time.Time) {
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	expires := time.Now().Add(expiresIn)
	q := url.Values{"expires": {expires.UTC().Format(time.RFC3339)}}
	return s.BaseURL + "/" + op + "/" + key + "?" + q.Encode(), expires
}

// GenerateUploadURL returns a placeholder PUT URL
func (s *MemoryObjectStorage) GenerateUploadURL(_ context.Context, storageKey, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errNoKey
	}
	u, exp := s.url("upload", storageKey, expiresIn)
	return u, exp, nil
}

// GenerateDownloadURL returns a placeholder GET URL
func (s *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errNoKey
	}
	u, exp := s.url("download", storageKey, expiresIn)
	return u, exp, nil
}

// Upload stores data under storageKey
func (s *MemoryObjectStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errNoKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// Object returns the stored bytes of storageKey
func (s *MemoryObjectStorage) Object(storageKey string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[storageKey]
	return o.data, ok
}

// DeleteObject removes storageKey
func (s *MemoryObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errNoKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// ObjectExists reports whether storageKey was uploaded
func (s *MemoryObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errNoKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// GetBucket returns the name reported for stored files
func (s *MemoryObjectStorage) GetBucket() string {
	return s.Bucket
}

// Keys lists the stored keys in sorted order
func (s *MemoryObjectStorage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
