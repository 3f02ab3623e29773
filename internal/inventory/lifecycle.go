package inventory

import (
	"context"

	"lifeledger/internal/history"
	"lifeledger/internal/validation"
	dErrors "lifeledger/pkg/domain-errors"
	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/events"
)

// RegisterBloodInput carries the bank-supplied fields for a new unit.
type RegisterBloodInput struct {
	BloodType    domain.BloodType
	QuantityML   uint32
	ExpirationTS uint64
	DonorID      *string
}

// RegisterBlood records a freshly donated unit and returns its sequential ID.
// Bank only; the unit enters the inventory as Available.
func (s *Service) RegisterBlood(ctx context.Context, bank domain.Address, in RegisterBloodInput) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.RequireBank(ctx, bank); err != nil {
		return 0, s.reject(err)
	}
	now := s.clock.Now()
	if err := validation.BloodType(in.BloodType); err != nil {
		return 0, s.reject(err)
	}
	if err := validation.UnitQuantity(s.policy, in.QuantityML); err != nil {
		return 0, s.reject(err)
	}
	if err := validation.Expiration(s.policy, now, in.ExpirationTS); err != nil {
		return 0, s.reject(err)
	}

	var unit *BloodUnit
	err := s.run(ctx, func(ctx context.Context) error {
		created, err := s.store.Create(ctx, &BloodUnit{
			BloodType:    in.BloodType,
			QuantityML:   in.QuantityML,
			ExpirationTS: in.ExpirationTS,
			DonorID:      in.DonorID,
			BankID:       bank,
			RegisteredAt: now,
			Status:       domain.BloodStatusAvailable,
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register blood unit")
		}
		unit = created

		if err := s.trail.Append(ctx, history.Record{
			Kind:      history.KindUnit,
			EntityID:  unit.ID,
			ToStatus:  domain.BloodStatusAvailable.String(),
			Actor:     bank,
			Timestamp: now,
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record registration")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	event := events.New(events.TopicBlood, events.ActionUnitRegistered, unit.ID, bank, now).
		WithTransition("", domain.BloodStatusAvailable.String()).
		WithField("blood_type", in.BloodType.String())
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Printf("event emission failed unit=%d action=%s err=%v", unit.ID, event.Action, err)
	}

	s.metrics.IncUnitRegistered()
	s.logger.Printf("unit registered id=%d bank=%s type=%s ml=%d", unit.ID, bank, in.BloodType, in.QuantityML)
	return unit.ID, nil
}

// Allocate reserves an Available unit for a hospital.
func (s *Service) Allocate(ctx context.Context, bank domain.Address, unitID uint64, hospital domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.RequireBank(ctx, bank); err != nil {
		return s.reject(err)
	}
	now := s.clock.Now()
	unit, err := s.validateAllocation(ctx, bank, unitID, hospital, now)
	if err != nil {
		return s.reject(err)
	}
	return s.commitAllocation(ctx, unit, bank, hospital, now)
}

// BatchAllocate reserves several units for one hospital atomically: every unit
// is validated before any is touched, and the first failure rejects the whole
// batch.
func (s *Service) BatchAllocate(ctx context.Context, bank domain.Address, unitIDs []uint64, hospital domain.Address) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.RequireBank(ctx, bank); err != nil {
		return nil, s.reject(err)
	}
	if len(unitIDs) == 0 {
		return nil, s.reject(dErrors.New(dErrors.CodeInvalidQuantity, "batch cannot be empty"))
	}
	if len(unitIDs) > s.policy.MaxBatchSize {
		return nil, s.reject(dErrors.Newf(dErrors.CodeBatchSizeExceeded,
			"batch of %d exceeds the maximum of %d", len(unitIDs), s.policy.MaxBatchSize))
	}

	now := s.clock.Now()
	seen := make(map[uint64]struct{}, len(unitIDs))
	units := make([]*BloodUnit, 0, len(unitIDs))
	for _, id := range unitIDs {
		if _, dup := seen[id]; dup {
			return nil, s.reject(dErrors.Newf(dErrors.CodeAlreadyAllocated, "blood unit %d listed twice", id))
		}
		seen[id] = struct{}{}
		unit, err := s.validateAllocation(ctx, bank, id, hospital, now)
		if err != nil {
			return nil, s.reject(err)
		}
		units = append(units, unit)
	}

	allocated := make([]uint64, 0, len(units))
	err := s.run(ctx, func(ctx context.Context) error {
		for _, unit := range units {
			if err := s.commitAllocation(ctx, unit, bank, hospital, now); err != nil {
				return err
			}
			allocated = append(allocated, unit.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return allocated, nil
}

func (s *Service) validateAllocation(ctx context.Context, bank domain.Address, unitID uint64, hospital domain.Address, now uint64) (*BloodUnit, error) {
	ok, err := s.registry.IsHospital(ctx, hospital)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorizedHospital, "recipient is not an authorized hospital")
	}

	unit, err := s.getUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit.BankID != bank {
		return nil, dErrors.Newf(dErrors.CodeUnauthorized, "blood unit %d belongs to another bank", unitID)
	}
	if err := s.guardExpiry(unit, domain.BloodStatusReserved, now); err != nil {
		return nil, err
	}
	if unit.Status == domain.BloodStatusReserved {
		return nil, dErrors.Newf(dErrors.CodeAlreadyAllocated, "blood unit %d is already allocated", unitID)
	}
	if !unit.Status.CanTransitionTo(domain.BloodStatusReserved) {
		return nil, dErrors.Newf(dErrors.CodeInvalidStatusTransition,
			"blood unit %d cannot move from %s to %s", unitID, unit.Status, domain.BloodStatusReserved)
	}
	return unit, nil
}

func (s *Service) commitAllocation(ctx context.Context, unit *BloodUnit, bank, hospital domain.Address, now uint64) error {
	unit.RecipientHospital = &hospital
	unit.AllocatedAt = &now
	if err := s.transition(ctx, unit, domain.BloodStatusReserved, bank, events.ActionUnitAllocated, nil, now); err != nil {
		return err
	}
	s.logger.Printf("unit allocated id=%d hospital=%s", unit.ID, hospital)
	return nil
}

// CancelAllocation returns a Reserved unit to the Available pool.
func (s *Service) CancelAllocation(ctx context.Context, bank domain.Address, unitID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.RequireBank(ctx, bank); err != nil {
		return s.reject(err)
	}
	now := s.clock.Now()
	unit, err := s.getUnit(ctx, unitID)
	if err != nil {
		return s.reject(err)
	}
	if unit.BankID != bank {
		return s.reject(dErrors.Newf(dErrors.CodeUnauthorized, "blood unit %d belongs to another bank", unitID))
	}
	if err := s.guardExpiry(unit, domain.BloodStatusAvailable, now); err != nil {
		return s.reject(err)
	}
	if unit.Status != domain.BloodStatusReserved {
		return s.reject(dErrors.Newf(dErrors.CodeInvalidStatusTransition,
			"blood unit %d is %s, not reserved", unitID, unit.Status))
	}

	unit.RecipientHospital = nil
	unit.AllocatedAt = nil
	return s.transition(ctx, unit, domain.BloodStatusAvailable, bank, events.ActionAllocationCancel, nil, now)
}

// InitiateTransfer moves a Reserved unit into transit toward its hospital.
func (s *Service) InitiateTransfer(ctx context.Context, bank domain.Address, unitID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.RequireBank(ctx, bank); err != nil {
		return s.reject(err)
	}
	now := s.clock.Now()
	unit, err := s.getUnit(ctx, unitID)
	if err != nil {
		return s.reject(err)
	}
	if unit.BankID != bank {
		return s.reject(dErrors.Newf(dErrors.CodeUnauthorized, "blood unit %d belongs to another bank", unitID))
	}
	if err := s.guardExpiry(unit, domain.BloodStatusInTransit, now); err != nil {
		return s.reject(err)
	}
	if unit.Status != domain.BloodStatusReserved {
		return s.reject(dErrors.Newf(dErrors.CodeInvalidStatusTransition,
			"blood unit %d is %s, not reserved", unitID, unit.Status))
	}

	unit.TransferredAt = &now
	return s.transition(ctx, unit, domain.BloodStatusInTransit, bank, events.ActionTransferInitiated, nil, now)
}

// ConfirmDelivery lets the recipient hospital acknowledge receipt. A unit that
// expired in transit is force-expired here and the call still fails with
// UnitExpired, so the trail shows what actually happened to the bag.
func (s *Service) ConfirmDelivery(ctx context.Context, hospital domain.Address, unitID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.RequireHospital(ctx, hospital); err != nil {
		return s.reject(err)
	}
	now := s.clock.Now()
	unit, err := s.getUnit(ctx, unitID)
	if err != nil {
		return s.reject(err)
	}
	if unit.RecipientHospital == nil || *unit.RecipientHospital != hospital {
		return s.reject(dErrors.Newf(dErrors.CodeUnauthorizedHospital,
			"blood unit %d is not allocated to this hospital", unitID))
	}
	if unit.Status != domain.BloodStatusInTransit {
		return s.reject(dErrors.Newf(dErrors.CodeInvalidStatusTransition,
			"blood unit %d is %s, not in transit", unitID, unit.Status))
	}
	if unit.IsExpired(now) {
		if err := s.transition(ctx, unit, domain.BloodStatusExpired, hospital, events.ActionUnitExpired, nil, now); err != nil {
			return err
		}
		return s.reject(dErrors.Newf(dErrors.CodeUnitExpired, "blood unit %d expired in transit", unitID))
	}

	unit.DeliveredAt = &now
	return s.transition(ctx, unit, domain.BloodStatusDelivered, hospital, events.ActionDeliveryConfirmed, nil, now)
}

// Withdraw discards a unit. The owning bank can withdraw any of its
// non-terminal units; the recipient hospital can withdraw a unit reserved for
// or in transit to it (e.g. found contaminated on arrival). Terminal units,
// delivered included, cannot be withdrawn.
func (s *Service) Withdraw(ctx context.Context, caller domain.Address, unitID uint64, reason domain.WithdrawalReason, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	unit, err := s.getUnit(ctx, unitID)
	if err != nil {
		return s.reject(err)
	}
	if !reason.Valid() {
		return s.reject(dErrors.New(dErrors.CodeInvalidStatus, "unknown withdrawal reason: "+reason.String()))
	}

	switch {
	case unit.BankID == caller:
		if err := s.registry.RequireBank(ctx, caller); err != nil {
			return s.reject(err)
		}
	case unit.RecipientHospital != nil && *unit.RecipientHospital == caller:
		if err := s.registry.RequireHospital(ctx, caller); err != nil {
			return s.reject(err)
		}
	default:
		return s.reject(dErrors.Newf(dErrors.CodeUnauthorized,
			"caller has no claim on blood unit %d", unitID))
	}

	if !unit.Status.CanTransitionTo(domain.BloodStatusDiscarded) {
		return s.reject(dErrors.Newf(dErrors.CodeInvalidStatusTransition,
			"blood unit %d is already %s", unitID, unit.Status))
	}

	detail := reason.String()
	if note != "" {
		detail += ": " + note
	}
	return s.transition(ctx, unit, domain.BloodStatusDiscarded, caller, events.ActionUnitWithdrawn, &detail, now)
}
