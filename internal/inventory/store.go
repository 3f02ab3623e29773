package inventory

import (
	"context"

	"lifeledger/pkg/domain"
)

// Store persists blood units. Implementations return sentinel errors; the
// service translates them into domain errors. The ID counter lives inside
// Create so an ID is consumed only when a record is actually persisted.
type Store interface {
	// Create assigns the next sequential ID (from 1), persists the unit, and
	// returns it with the ID set.
	Create(ctx context.Context, unit *BloodUnit) (*BloodUnit, error)
	// Get returns sentinel.ErrNotFound for unknown IDs.
	Get(ctx context.Context, id uint64) (*BloodUnit, error)
	// Update overwrites an existing unit; sentinel.ErrNotFound if absent.
	Update(ctx context.Context, unit *BloodUnit) error

	// ListByStatus returns up to limit units in the status, ascending by ID.
	// A limit <= 0 means no cap; all List methods share this convention.
	ListByStatus(ctx context.Context, status domain.BloodStatus, limit int) ([]*BloodUnit, error)
	// ListByHospital returns units whose recipient is the hospital.
	ListByHospital(ctx context.Context, hospital domain.Address, limit int) ([]*BloodUnit, error)
	// ListByBank returns units registered by the bank.
	ListByBank(ctx context.Context, bank domain.Address, limit int) ([]*BloodUnit, error)
	// ListAvailableByType returns Available, non-expired units of the type
	// with at least minQuantity ml, soonest expiration first, ties by ID.
	ListAvailableByType(ctx context.Context, bloodType domain.BloodType, now uint64, minQuantity uint32, limit int) ([]*BloodUnit, error)
	// AvailableQuantity sums Available, non-expired volume of the type,
	// stopping early once the sum reaches need.
	AvailableQuantity(ctx context.Context, bloodType domain.BloodType, now uint64, need uint32) (uint32, error)
}
