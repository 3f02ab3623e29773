package history

import (
	"context"
	"sync"
)

type entityKey struct {
	kind EntityKind
	id   uint64
}

// InMemoryStore keeps trails in process memory, append order preserved.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[entityKey][]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[entityKey][]Record)}
}

func (s *InMemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{kind: rec.Kind, id: rec.EntityID}
	s.records[key] = append(s.records[key], rec)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, kind EntityKind, entityID uint64) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record{}, s.records[entityKey{kind: kind, id: entityID}]...), nil
}

func (s *InMemoryStore) Count(_ context.Context, kind EntityKind, entityID uint64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[entityKey{kind: kind, id: entityID}]), nil
}
