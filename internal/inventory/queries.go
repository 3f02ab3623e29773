package inventory

import (
	"context"

	"lifeledger/internal/history"
	"lifeledger/internal/validation"
	dErrors "lifeledger/pkg/domain-errors"
	"lifeledger/pkg/domain"
)

// GetUnit returns a single unit by ID.
func (s *Service) GetUnit(ctx context.Context, unitID uint64) (*BloodUnit, error) {
	return s.getUnit(ctx, unitID)
}

// QueryByStatus lists units in a status, ascending by ID. A max of 0 returns
// every match.
func (s *Service) QueryByStatus(ctx context.Context, status domain.BloodStatus, max int) ([]*BloodUnit, error) {
	if !status.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidStatus, "unknown blood status: "+status.String())
	}
	units, err := s.store.ListByStatus(ctx, status, validation.MaxResults(max))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query by status")
	}
	return units, nil
}

// QueryByHospital lists units allocated or delivered to a hospital.
func (s *Service) QueryByHospital(ctx context.Context, hospital domain.Address, max int) ([]*BloodUnit, error) {
	units, err := s.store.ListByHospital(ctx, hospital, validation.MaxResults(max))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query by hospital")
	}
	return units, nil
}

// QueryByBank lists units registered by a bank.
func (s *Service) QueryByBank(ctx context.Context, bank domain.Address, max int) ([]*BloodUnit, error) {
	units, err := s.store.ListByBank(ctx, bank, validation.MaxResults(max))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query by bank")
	}
	return units, nil
}

// QueryByBloodType lists Available, non-expired units of the type holding at
// least minQuantity ml, in FIFO issue order (soonest expiration first, ties by
// ID). A max of 0 returns every match.
func (s *Service) QueryByBloodType(ctx context.Context, bloodType domain.BloodType, minQuantity uint32, max int) ([]*BloodUnit, error) {
	if err := validation.BloodType(bloodType); err != nil {
		return nil, err
	}
	units, err := s.store.ListAvailableByType(ctx, bloodType, s.clock.Now(), minQuantity, validation.MaxResults(max))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query by blood type")
	}
	return units, nil
}

// CheckAvailability reports whether the Available, non-expired pool of the
// type holds at least quantityML in total.
func (s *Service) CheckAvailability(ctx context.Context, bloodType domain.BloodType, quantityML uint32) (bool, error) {
	if err := validation.BloodType(bloodType); err != nil {
		return false, err
	}
	total, err := s.store.AvailableQuantity(ctx, bloodType, s.clock.Now(), quantityML)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sum availability")
	}
	return total >= quantityML, nil
}

// GetHistory returns the unit's full status trail, oldest first.
func (s *Service) GetHistory(ctx context.Context, unitID uint64) ([]history.Record, error) {
	if _, err := s.getUnit(ctx, unitID); err != nil {
		return nil, err
	}
	records, err := s.trail.List(ctx, history.KindUnit, unitID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load unit history")
	}
	return records, nil
}

// GetStatusChangeCount returns how many trail records the unit has.
func (s *Service) GetStatusChangeCount(ctx context.Context, unitID uint64) (int, error) {
	if _, err := s.getUnit(ctx, unitID); err != nil {
		return 0, err
	}
	count, err := s.trail.Count(ctx, history.KindUnit, unitID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count unit history")
	}
	return count, nil
}
