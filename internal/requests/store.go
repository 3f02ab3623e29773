package requests

import (
	"context"

	"lifeledger/pkg/domain"
)

// Page bounds a query result window.
type Page struct {
	Limit  int
	Offset int
}

// Store persists blood requests. Implementations return sentinel errors; the
// service translates them. The ID counter lives inside Create so an ID is
// consumed only when a record is actually persisted.
type Store interface {
	// Create assigns the next sequential ID (from 1) and persists the request.
	// Backends that enforce the duplicate guard themselves return
	// sentinel.ErrConflict when an identical request is already active.
	Create(ctx context.Context, req *BloodRequest) (*BloodRequest, error)
	// Get returns sentinel.ErrNotFound for unknown IDs.
	Get(ctx context.Context, id uint64) (*BloodRequest, error)
	// Update overwrites an existing request; sentinel.ErrNotFound if absent.
	Update(ctx context.Context, req *BloodRequest) error

	// ActiveIDByKey returns the ID of the active (pending, approved, or
	// in-progress) request with the duplicate key, if one exists.
	ActiveIDByKey(ctx context.Context, key string) (uint64, bool, error)

	// ListByHospital returns the hospital's requests ascending by ID,
	// optionally filtered to one status.
	ListByHospital(ctx context.Context, hospital domain.Address, status *domain.RequestStatus, page Page) ([]*BloodRequest, error)
	// ListPending returns pending requests, most urgent first, ties by ID.
	ListPending(ctx context.Context, page Page) ([]*BloodRequest, error)
	// ListByDateRange returns requests created in [start, end] inclusive,
	// ascending by ID, optionally filtered to one status.
	ListByDateRange(ctx context.Context, start, end uint64, status *domain.RequestStatus, page Page) ([]*BloodRequest, error)
	// ListByUrgency returns requests at the urgency ascending by ID,
	// optionally filtered to one status.
	ListByUrgency(ctx context.Context, urgency domain.UrgencyLevel, status *domain.RequestStatus, page Page) ([]*BloodRequest, error)
}
