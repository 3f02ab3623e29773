// Package requests implements the hospital blood request surface: creation,
// review, assignment, fulfillment, and the query engine over requests.
package requests

import (
	"fmt"

	"lifeledger/pkg/domain"
)

// BloodRequest is one hospital order. Requests are never deleted; terminal
// requests stay queryable for the audit trail.
type BloodRequest struct {
	ID              uint64
	HospitalID      domain.Address
	BloodType       domain.BloodType
	QuantityML      uint32
	Urgency         domain.UrgencyLevel
	RequiredBy      uint64
	DeliveryAddress string

	// Clinical metadata, free text supplied by the hospital.
	PatientRef string
	Procedure  string
	Notes      string

	CreatedAt     uint64
	Status        domain.RequestStatus
	FulfilledAt   *uint64
	AssignedUnits []uint64
}

// DuplicateKey identifies materially identical orders. A hospital may not hold
// more than one active request per key; re-ordering after the first reaches a
// terminal state is fine.
func (r *BloodRequest) DuplicateKey() string {
	return fmt.Sprintf("%s|%s|%d|%s|%d|%s",
		r.HospitalID, r.BloodType, r.QuantityML, r.Urgency, r.RequiredBy, r.DeliveryAddress)
}

// Clone returns a deep copy so stores never hand out aliased pointers.
func (r *BloodRequest) Clone() *BloodRequest {
	if r == nil {
		return nil
	}
	c := *r
	if r.FulfilledAt != nil {
		ts := *r.FulfilledAt
		c.FulfilledAt = &ts
	}
	c.AssignedUnits = append([]uint64(nil), r.AssignedUnits...)
	return &c
}
