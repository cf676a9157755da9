package memory

import (
	"context"
	"sync"

	"vet-practice/internal/ports/blob"
)

type object struct {
	contentType string
	data        []byte
}

// Store guarda los blobs en memoria. Es el backend de dev y de tests;
// las URLs que devuelve son rutas locales ("/{key}").
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewStore() *Store {
	return &Store{objects: make(map[string]object)}
}

func (s *Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[key] = object{contentType: contentType, data: cp}
	return "/" + key, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return blob.ErrNotFound
	}
	delete(s.objects, key)
	return nil
}

// Get existe para poder verificar contenidos en tests.
func (s *Store) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.objects[key]
	if !ok {
		return nil, "", false
	}
	return o.data, o.contentType, true
}

// Len devuelve cuántos blobs hay guardados.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
