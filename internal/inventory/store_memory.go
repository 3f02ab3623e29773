package inventory

import (
	"context"
	"sort"
	"sync"

	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/sentinel"
)

// InMemoryStore keeps units in process memory with secondary indexes on
// status, recipient hospital, and owning bank.
type InMemoryStore struct {
	mu         sync.RWMutex
	units      map[uint64]*BloodUnit
	nextID     uint64
	byStatus   map[domain.BloodStatus]map[uint64]struct{}
	byHospital map[domain.Address]map[uint64]struct{}
	byBank     map[domain.Address]map[uint64]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		units:      make(map[uint64]*BloodUnit),
		byStatus:   make(map[domain.BloodStatus]map[uint64]struct{}),
		byHospital: make(map[domain.Address]map[uint64]struct{}),
		byBank:     make(map[domain.Address]map[uint64]struct{}),
	}
}

func (s *InMemoryStore) Create(_ context.Context, unit *BloodUnit) (*BloodUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := unit.Clone()
	stored.ID = s.nextID
	s.units[stored.ID] = stored
	s.index(stored)
	return stored.Clone(), nil
}

func (s *InMemoryStore) Get(_ context.Context, id uint64) (*BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	unit, ok := s.units[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return unit.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, unit *BloodUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.units[unit.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.unindex(old)
	stored := unit.Clone()
	s.units[stored.ID] = stored
	s.index(stored)
	return nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, status domain.BloodStatus, limit int) ([]*BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byStatus[status], limit), nil
}

func (s *InMemoryStore) ListByHospital(_ context.Context, hospital domain.Address, limit int) ([]*BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byHospital[hospital], limit), nil
}

func (s *InMemoryStore) ListByBank(_ context.Context, bank domain.Address, limit int) ([]*BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byBank[bank], limit), nil
}

func (s *InMemoryStore) ListAvailableByType(_ context.Context, bloodType domain.BloodType, now uint64, minQuantity uint32, limit int) ([]*BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*BloodUnit
	for id := range s.byStatus[domain.BloodStatusAvailable] {
		unit := s.units[id]
		if unit.BloodType != bloodType || unit.IsExpired(now) || unit.QuantityML < minQuantity {
			continue
		}
		matches = append(matches, unit)
	}
	// FIFO issue order: soonest expiration first, stable on ties by ID.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].ExpirationTS != matches[j].ExpirationTS {
			return matches[i].ExpirationTS < matches[j].ExpirationTS
		}
		return matches[i].ID < matches[j].ID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]*BloodUnit, len(matches))
	for i, u := range matches {
		out[i] = u.Clone()
	}
	return out, nil
}

func (s *InMemoryStore) AvailableQuantity(_ context.Context, bloodType domain.BloodType, now uint64, need uint32) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total uint32
	for id := range s.byStatus[domain.BloodStatusAvailable] {
		unit := s.units[id]
		if unit.BloodType != bloodType || unit.IsExpired(now) {
			continue
		}
		total += unit.QuantityML
		if need > 0 && total >= need {
			return total, nil
		}
	}
	return total, nil
}

func (s *InMemoryStore) collect(ids map[uint64]struct{}, limit int) []*BloodUnit {
	sorted := make([]uint64, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]*BloodUnit, len(sorted))
	for i, id := range sorted {
		out[i] = s.units[id].Clone()
	}
	return out
}

func (s *InMemoryStore) index(unit *BloodUnit) {
	addTo(s.byStatus, unit.Status, unit.ID)
	addTo(s.byBank, unit.BankID, unit.ID)
	if unit.RecipientHospital != nil {
		addTo(s.byHospital, *unit.RecipientHospital, unit.ID)
	}
}

func (s *InMemoryStore) unindex(unit *BloodUnit) {
	delete(s.byStatus[unit.Status], unit.ID)
	delete(s.byBank[unit.BankID], unit.ID)
	if unit.RecipientHospital != nil {
		delete(s.byHospital[*unit.RecipientHospital], unit.ID)
	}
}

func addTo[K comparable](m map[K]map[uint64]struct{}, key K, id uint64) {
	set, ok := m[key]
	if !ok {
		set = make(map[uint64]struct{})
		m[key] = set
	}
	set[id] = struct{}{}
}
