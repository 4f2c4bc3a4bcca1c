package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MockStorage is an in-memory ObjectStorage for testing
type MockStorage struct {
	objects  map[string]mockObject
	mu       sync.RWMutex
	putCalls int
	PutErr   error // returned by PutObject when set
	GetErr   error // returned by GetObject when set
}

type mockObject struct {
	content     []byte
	contentType string
}

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{objects: make(map[string]mockObject)}
}

// SetAsMockForTesting sets this mock as the global storage instance for testing
func (m *MockStorage) SetAsMockForTesting() {
	SetStorage(m)
}

// PutObject stores the body in memory
func (m *MockStorage) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	m.mu.Lock()
	m.putCalls++
	m.mu.Unlock()

	if m.PutErr != nil {
		return newError(ErrStorage, "STORAGE_WRITE_FAILED", "Failed to store file", m.PutErr)
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	m.mu.Lock()
	m.objects[key] = mockObject{content: content, contentType: contentType}
	m.mu.Unlock()
	return nil
}

// GetObject returns a stored object or a not-found error
func (m *MockStorage) GetObject(ctx context.Context, key string) (*StoredObject, error) {
	if m.GetErr != nil {
		return nil, newError(ErrStorage, "STORAGE_READ_FAILED", "Failed to read file", m.GetErr)
	}

	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, newError(ErrNotFound, "FILE_NOT_FOUND", "File not found", fmt.Errorf("no object %q", key))
	}

	return &StoredObject{
		Body:        io.NopCloser(bytes.NewReader(obj.content)),
		ContentType: obj.contentType,
		Size:        int64(len(obj.content)),
	}, nil
}

// DeleteObject removes an object from memory
func (m *MockStorage) DeleteObject(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Keys returns the stored keys (for test assertions)
func (m *MockStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

// Content returns the bytes stored under key
func (m *MockStorage) Content(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj.content, ok
}

// PutCalls reports how many uploads were attempted
func (m *MockStorage) PutCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.putCalls
}

// Clear removes all objects from memory
func (m *MockStorage) Clear() {
	m.mu.Lock()
	m.objects = make(map[string]mockObject)
	m.putCalls = 0
	m.mu.Unlock()
}
