package inventory

import (
	"context"

	dErrors "lifeledger/pkg/domain-errors"
	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/events"
)

// The request surface drives unit cascades through these methods. Each runs
// under the inventory lock as one atomic step: everything is validated before
// the first unit changes.

// UnitsExist fails with UnitNotFound on the first unknown ID.
func (s *Service) UnitsExist(ctx context.Context, unitIDs []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range unitIDs {
		if _, err := s.getUnit(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeliverAllForRequest walks every unit to Delivered as part of fulfilling a
// request. Units must be reserved for (or already in transit to) the hospital
// and unexpired; a Reserved unit passes through InTransit so the trail shows
// the full path.
func (s *Service) DeliverAllForRequest(ctx context.Context, bank domain.Address, unitIDs []uint64, hospital domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	units := make([]*BloodUnit, 0, len(unitIDs))
	for _, id := range unitIDs {
		unit, err := s.getUnit(ctx, id)
		if err != nil {
			return err
		}
		if unit.RecipientHospital == nil || *unit.RecipientHospital != hospital {
			return dErrors.Newf(dErrors.CodeInvalidStatus,
				"blood unit %d is not reserved for the requesting hospital", id)
		}
		if unit.Status != domain.BloodStatusReserved && unit.Status != domain.BloodStatusInTransit {
			return dErrors.Newf(dErrors.CodeInvalidStatusTransition,
				"blood unit %d is %s, cannot deliver", id, unit.Status)
		}
		if unit.IsExpired(now) {
			return dErrors.Newf(dErrors.CodeUnitExpired, "blood unit %d is expired", id)
		}
		units = append(units, unit)
	}

	return s.run(ctx, func(ctx context.Context) error {
		for _, unit := range units {
			if unit.Status == domain.BloodStatusReserved {
				unit.TransferredAt = &now
				if err := s.transition(ctx, unit, domain.BloodStatusInTransit, bank, events.ActionTransferInitiated, nil, now); err != nil {
					return err
				}
			}
			unit.DeliveredAt = &now
			if err := s.transition(ctx, unit, domain.BloodStatusDelivered, bank, events.ActionDeliveryConfirmed, nil, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReleaseAllForRequest returns a cancelled request's Reserved units to the
// Available pool. Units already past Reserved are left alone.
func (s *Service) ReleaseAllForRequest(ctx context.Context, actor domain.Address, unitIDs []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	reason := "request cancelled"
	for _, id := range unitIDs {
		unit, err := s.getUnit(ctx, id)
		if err != nil {
			return err
		}
		if unit.Status != domain.BloodStatusReserved {
			continue
		}
		unit.RecipientHospital = nil
		unit.AllocatedAt = nil
		if err := s.transition(ctx, unit, domain.BloodStatusAvailable, actor, events.ActionAllocationCancel, &reason, now); err != nil {
			return err
		}
	}
	return nil
}
