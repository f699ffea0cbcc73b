package storage

import (
	"context"
	"sync"

	"ebay-normalizer/utils"
)

// MemoryStore keeps every KeySet in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	sets map[string]*MemorySet
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]*MemorySet)}
}

// Set returns the KeySet for kind, creating it on first use.
func (m *MemoryStore) Set(kind string) KeySet {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sets[kind]
	if !ok {
		s = &MemorySet{seen: utils.NewStringSet()}
		m.sets[kind] = s
	}
	return s
}

func (m *MemoryStore) Close() error { return nil }

// MemorySet is a KeySet backed by a utils.StringSet.
type MemorySet struct {
	seen *utils.StringSet
}

func (s *MemorySet) TestAndSet(_ context.Context, key string) (bool, error) {
	return s.seen.Add(key), nil
}
