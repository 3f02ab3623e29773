package registry

import (
	"context"
	"sync"

	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/sentinel"
)

// InMemoryStore holds role assignments in process memory. Default backend for
// tests and single-node runs.
type InMemoryStore struct {
	mu        sync.RWMutex
	admin     domain.Address
	banks     map[domain.Address]struct{}
	hospitals map[domain.Address]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		banks:     make(map[domain.Address]struct{}),
		hospitals: make(map[domain.Address]struct{}),
	}
}

func (s *InMemoryStore) Admin(_ context.Context) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.admin.IsZero() {
		return "", sentinel.ErrNotFound
	}
	return s.admin, nil
}

func (s *InMemoryStore) SetAdmin(_ context.Context, admin domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.admin.IsZero() {
		return sentinel.ErrAlreadyExists
	}
	s.admin = admin
	return nil
}

func (s *InMemoryStore) AddBank(_ context.Context, bank domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banks[bank] = struct{}{}
	return nil
}

func (s *InMemoryStore) HasBank(_ context.Context, bank domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.banks[bank]
	return ok, nil
}

func (s *InMemoryStore) AddHospital(_ context.Context, hospital domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hospitals[hospital] = struct{}{}
	return nil
}

func (s *InMemoryStore) RemoveHospital(_ context.Context, hospital domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hospitals, hospital)
	return nil
}

func (s *InMemoryStore) HasHospital(_ context.Context, hospital domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.hospitals[hospital]
	return ok, nil
}
