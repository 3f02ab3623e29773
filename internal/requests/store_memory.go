package requests

import (
	"context"
	"sort"
	"sync"

	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/sentinel"
)

// InMemoryStore keeps requests in process memory with secondary indexes on
// hospital, status, and the active duplicate key.
type InMemoryStore struct {
	mu          sync.RWMutex
	requests    map[uint64]*BloodRequest
	nextID      uint64
	byHospital  map[domain.Address]map[uint64]struct{}
	byStatus    map[domain.RequestStatus]map[uint64]struct{}
	activeByKey map[string]uint64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		requests:    make(map[uint64]*BloodRequest),
		byHospital:  make(map[domain.Address]map[uint64]struct{}),
		byStatus:    make(map[domain.RequestStatus]map[uint64]struct{}),
		activeByKey: make(map[string]uint64),
	}
}

func (s *InMemoryStore) Create(_ context.Context, req *BloodRequest) (*BloodRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := req.Clone()
	stored.ID = s.nextID
	s.requests[stored.ID] = stored
	s.index(stored)
	return stored.Clone(), nil
}

func (s *InMemoryStore) Get(_ context.Context, id uint64) (*BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return req.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, req *BloodRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.requests[req.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.unindex(old)
	stored := req.Clone()
	s.requests[stored.ID] = stored
	s.index(stored)
	return nil
}

func (s *InMemoryStore) ActiveIDByKey(_ context.Context, key string) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.activeByKey[key]
	return id, ok, nil
}

func (s *InMemoryStore) ListByHospital(_ context.Context, hospital domain.Address, status *domain.RequestStatus, page Page) ([]*BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window(s.filter(s.byHospital[hospital], func(r *BloodRequest) bool {
		return status == nil || r.Status == *status
	}, byID), page), nil
}

func (s *InMemoryStore) ListPending(_ context.Context, page Page) ([]*BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := s.filter(s.byStatus[domain.RequestStatusPending], func(*BloodRequest) bool {
		return true
	}, byUrgencyThenID)
	return s.window(matches, page), nil
}

func (s *InMemoryStore) ListByDateRange(_ context.Context, start, end uint64, status *domain.RequestStatus, page Page) ([]*BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make(map[uint64]struct{}, len(s.requests))
	for id := range s.requests {
		all[id] = struct{}{}
	}
	matches := s.filter(all, func(r *BloodRequest) bool {
		if r.CreatedAt < start || r.CreatedAt > end {
			return false
		}
		return status == nil || r.Status == *status
	}, byID)
	return s.window(matches, page), nil
}

func (s *InMemoryStore) ListByUrgency(_ context.Context, urgency domain.UrgencyLevel, status *domain.RequestStatus, page Page) ([]*BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make(map[uint64]struct{}, len(s.requests))
	for id := range s.requests {
		all[id] = struct{}{}
	}
	matches := s.filter(all, func(r *BloodRequest) bool {
		if r.Urgency != urgency {
			return false
		}
		return status == nil || r.Status == *status
	}, byID)
	return s.window(matches, page), nil
}

func byID(a, b *BloodRequest) bool { return a.ID < b.ID }

func byUrgencyThenID(a, b *BloodRequest) bool {
	if a.Urgency.Weight() != b.Urgency.Weight() {
		return a.Urgency.Weight() > b.Urgency.Weight()
	}
	return a.ID < b.ID
}

func (s *InMemoryStore) filter(ids map[uint64]struct{}, keep func(*BloodRequest) bool, less func(a, b *BloodRequest) bool) []*BloodRequest {
	var matches []*BloodRequest
	for id := range ids {
		req := s.requests[id]
		if keep(req) {
			matches = append(matches, req)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return less(matches[i], matches[j]) })
	return matches
}

func (s *InMemoryStore) window(matches []*BloodRequest, page Page) []*BloodRequest {
	if page.Offset >= len(matches) {
		return nil
	}
	matches = matches[page.Offset:]
	if page.Limit > 0 && len(matches) > page.Limit {
		matches = matches[:page.Limit]
	}
	out := make([]*BloodRequest, len(matches))
	for i, r := range matches {
		out[i] = r.Clone()
	}
	return out
}

// activeForKey: a request holds its duplicate key only while it can still be
// fulfilled. Fulfillment frees the key regardless of the completion stage, so
// a hospital can re-order identical parameters afterwards.
func activeForKey(st domain.RequestStatus) bool {
	switch st {
	case domain.RequestStatusPending, domain.RequestStatusApproved, domain.RequestStatusInProgress:
		return true
	}
	return false
}

func (s *InMemoryStore) index(req *BloodRequest) {
	addTo(s.byHospital, req.HospitalID, req.ID)
	addTo(s.byStatus, req.Status, req.ID)
	if activeForKey(req.Status) {
		s.activeByKey[req.DuplicateKey()] = req.ID
	}
}

func (s *InMemoryStore) unindex(req *BloodRequest) {
	delete(s.byHospital[req.HospitalID], req.ID)
	delete(s.byStatus[req.Status], req.ID)
	if s.activeByKey[req.DuplicateKey()] == req.ID {
		delete(s.activeByKey, req.DuplicateKey())
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
