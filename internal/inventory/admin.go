package inventory

import (
	"context"

	dErrors "lifeledger/pkg/domain-errors"
	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/events"
)

// UpdateStatus is the admin override for a single unit. It still walks the
// unit state machine; admins can short-circuit process steps, not invent
// transitions the machine forbids.
func (s *Service) UpdateStatus(ctx context.Context, admin domain.Address, unitID uint64, newStatus domain.BloodStatus, reason *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.RequireAdmin(ctx, admin); err != nil {
		return s.reject(err)
	}
	now := s.clock.Now()
	unit, err := s.validateStatusOverride(ctx, unitID, newStatus, now)
	if err != nil {
		return s.reject(err)
	}
	return s.transition(ctx, unit, newStatus, admin, events.ActionUnitStatusSet, reason, now)
}

// BatchUpdateStatus applies one override to several units atomically.
func (s *Service) BatchUpdateStatus(ctx context.Context, admin domain.Address, unitIDs []uint64, newStatus domain.BloodStatus, reason *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.RequireAdmin(ctx, admin); err != nil {
		return s.reject(err)
	}
	if len(unitIDs) == 0 {
		return s.reject(dErrors.New(dErrors.CodeInvalidQuantity, "batch cannot be empty"))
	}
	if len(unitIDs) > s.policy.MaxBatchSize {
		return s.reject(dErrors.Newf(dErrors.CodeBatchSizeExceeded,
			"batch of %d exceeds the maximum of %d", len(unitIDs), s.policy.MaxBatchSize))
	}

	now := s.clock.Now()
	units := make([]*BloodUnit, 0, len(unitIDs))
	for _, id := range unitIDs {
		unit, err := s.validateStatusOverride(ctx, id, newStatus, now)
		if err != nil {
			return s.reject(err)
		}
		units = append(units, unit)
	}
	return s.run(ctx, func(ctx context.Context) error {
		for _, unit := range units {
			if err := s.transition(ctx, unit, newStatus, admin, events.ActionUnitStatusSet, reason, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) validateStatusOverride(ctx context.Context, unitID uint64, newStatus domain.BloodStatus, now uint64) (*BloodUnit, error) {
	if !newStatus.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidStatus, "unknown blood status: "+newStatus.String())
	}
	unit, err := s.getUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if err := s.guardExpiry(unit, newStatus, now); err != nil {
		return nil, err
	}
	if !unit.Status.CanTransitionTo(newStatus) {
		return nil, dErrors.Newf(dErrors.CodeInvalidStatusTransition,
			"blood unit %d cannot move from %s to %s", unitID, unit.Status, newStatus)
	}
	return unit, nil
}
