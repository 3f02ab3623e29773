// Package inventory implements the blood unit surface: registration,
// allocation, transfer, delivery, withdrawal, and the availability queries the
// request surface depends on.
package inventory

import (
	"lifeledger/pkg/domain"
)

// BloodUnit is one donated bag tracked from registration to a terminal state.
// Units are never deleted; terminal units stay queryable for the audit trail.
type BloodUnit struct {
	ID           uint64
	BloodType    domain.BloodType
	QuantityML   uint32
	ExpirationTS uint64
	DonorID      *string
	BankID       domain.Address
	RegisteredAt uint64
	Status       domain.BloodStatus

	// Allocation lifecycle. RecipientHospital is set while the unit is
	// reserved or moving and survives delivery.
	RecipientHospital *domain.Address
	AllocatedAt       *uint64
	TransferredAt     *uint64
	DeliveredAt       *uint64
}

// IsExpired reports whether the unit's shelf life has run out at ts.
func (u *BloodUnit) IsExpired(ts uint64) bool {
	return ts >= u.ExpirationTS
}

// Clone returns a deep copy so stores never hand out aliased pointers.
func (u *BloodUnit) Clone() *BloodUnit {
	if u == nil {
		return nil
	}
	c := *u
	c.DonorID = clonePtr(u.DonorID)
	c.RecipientHospital = clonePtr(u.RecipientHospital)
	c.AllocatedAt = clonePtr(u.AllocatedAt)
	c.TransferredAt = clonePtr(u.TransferredAt)
	c.DeliveredAt = clonePtr(u.DeliveredAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
