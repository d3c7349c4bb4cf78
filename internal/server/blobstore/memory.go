package blobstore

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
)

// MemoryStore keeps objects in a map. It backs the "memory" blob backend
// and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: map[string]memoryObject{}, baseURL: baseURL}
}

func (s *MemoryStore) Upload(ctx context.Context, data []byte, contentType, folder string) (ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return ObjectRef{}, err
	}
	key := NewObjectKey(folder, contentType)
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[key] = memoryObject{data: buf, contentType: contentType}
	s.mu.Unlock()

	return ObjectRef{ObjectID: key, URL: ObjectURL(s.baseURL, "memory", key)}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, objectID string, _ models.MediaKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.objects, objectID)
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the stored object.
func (s *MemoryStore) Get(objectID string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[objectID]
	if !ok {
		return nil, "", false
	}
	buf := make([]byte, len(o.data))
	copy(buf, o.data)
	return buf, o.contentType, true
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
