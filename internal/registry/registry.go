// Package registry keeps the ledger's role assignments: the single admin
// address, the set of registered blood banks, and the set of authorized
// hospitals. Every privileged operation in the inventory and request surfaces
// gates on these sets.
package registry

import (
	"context"

	"lifeledger/pkg/domain"
)

// Store persists role assignments. Implementations return sentinel errors
// (pkg/platform/sentinel); the service translates them to domain errors.
type Store interface {
	// Admin returns the configured admin, or sentinel.ErrNotFound before
	// initialization.
	Admin(ctx context.Context) (domain.Address, error)
	// SetAdmin records the admin exactly once; sentinel.ErrAlreadyExists on
	// any later attempt.
	SetAdmin(ctx context.Context, admin domain.Address) error

	AddBank(ctx context.Context, bank domain.Address) error
	HasBank(ctx context.Context, bank domain.Address) (bool, error)

	AddHospital(ctx context.Context, hospital domain.Address) error
	RemoveHospital(ctx context.Context, hospital domain.Address) error
	HasHospital(ctx context.Context, hospital domain.Address) (bool, error)
}
