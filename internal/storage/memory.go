package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps content in a map. Used by tests and ephemeral runs.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (m *MemoryStore) Save(ctx context.Context, originalName string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := uniqueName(originalName, time.Now())
	for m.items[name] != nil {
		name = uniqueName(originalName, time.Now())
	}
	m.items[name] = append([]byte(nil), data...)
	return name, nil
}

func (m *MemoryStore) Read(ctx context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.items[path]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, path)
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
