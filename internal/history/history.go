// Package history records every status change a ledger entity goes through.
// Records are append-only: nothing here updates or deletes, so the list for an
// entity is its full audit trail in chronological order.
package history

import (
	"context"

	"lifeledger/pkg/domain"
)

// EntityKind partitions the trail by entity family.
type EntityKind string

const (
	KindUnit    EntityKind = "unit"
	KindRequest EntityKind = "request"
)

// Record is one status transition. FromStatus is empty for the creation entry.
type Record struct {
	Kind       EntityKind
	EntityID   uint64
	FromStatus string
	ToStatus   string
	Actor      domain.Address
	Timestamp  uint64
	Reason     *string
}

// Store persists the append-only trail.
type Store interface {
	Append(ctx context.Context, rec Record) error
	// List returns the entity's records oldest first.
	List(ctx context.Context, kind EntityKind, entityID uint64) ([]Record, error)
	// Count returns the number of records for the entity.
	Count(ctx context.Context, kind EntityKind, entityID uint64) (int, error)
}
