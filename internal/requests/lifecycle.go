package requests

import (
	"context"
	"errors"

	"lifeledger/internal/history"
	"lifeledger/internal/validation"
	dErrors "lifeledger/pkg/domain-errors"
	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/events"
	"lifeledger/pkg/platform/sentinel"
)

// CreateRequestInput carries the hospital-supplied fields for a new request.
type CreateRequestInput struct {
	BloodType       domain.BloodType
	QuantityML      uint32
	Urgency         domain.UrgencyLevel
	RequiredBy      uint64
	DeliveryAddress string
	PatientRef      string
	Procedure       string
	Notes           string
}

// CreateRequest opens a Pending order and returns its sequential ID. Hospital
// only; a materially identical active order is rejected as a duplicate.
func (s *Service) CreateRequest(ctx context.Context, hospital domain.Address, in CreateRequestInput) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.RequireHospital(ctx, hospital); err != nil {
		return 0, s.reject(err)
	}
	now := s.clock.Now()
	if err := validation.BloodType(in.BloodType); err != nil {
		return 0, s.reject(err)
	}
	if err := validation.RequestQuantity(s.policy, in.QuantityML); err != nil {
		return 0, s.reject(err)
	}
	if err := validation.RequiredBy(s.policy, now, in.RequiredBy, in.Urgency); err != nil {
		return 0, s.reject(err)
	}
	if err := validation.DeliveryAddress(in.DeliveryAddress); err != nil {
		return 0, s.reject(err)
	}

	req := &BloodRequest{
		HospitalID:      hospital,
		BloodType:       in.BloodType,
		QuantityML:      in.QuantityML,
		Urgency:         in.Urgency,
		RequiredBy:      in.RequiredBy,
		DeliveryAddress: in.DeliveryAddress,
		PatientRef:      in.PatientRef,
		Procedure:       in.Procedure,
		Notes:           in.Notes,
		CreatedAt:       now,
		Status:          domain.RequestStatusPending,
	}
	if existing, found, err := s.store.ActiveIDByKey(ctx, req.DuplicateKey()); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check duplicates")
	} else if found {
		return 0, s.reject(dErrors.Newf(dErrors.CodeDuplicateRequest,
			"an identical request %d is already active", existing))
	}

	var created *BloodRequest
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.store.Create(ctx, req)
		if err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Another instance won the race; the database index is the
				// last word on the duplicate guard.
				return dErrors.New(dErrors.CodeDuplicateRequest, "an identical request is already active")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create blood request")
		}

		if err := s.trail.Append(ctx, history.Record{
			Kind:      history.KindRequest,
			EntityID:  created.ID,
			ToStatus:  domain.RequestStatusPending.String(),
			Actor:     hospital,
			Timestamp: now,
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record creation")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	event := events.New(events.TopicRequest, events.ActionRequestCreated, created.ID, hospital, now).
		WithTransition("", domain.RequestStatusPending.String()).
		WithField("blood_type", in.BloodType.String()).
		WithField("urgency", in.Urgency.String())
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Printf("event emission failed request=%d action=%s err=%v", created.ID, event.Action, err)
	}

	s.metrics.IncRequestCreated()
	s.logger.Printf("request created id=%d hospital=%s type=%s ml=%d urgency=%s",
		created.ID, hospital, in.BloodType, in.QuantityML, in.Urgency)
	return created.ID, nil
}

// ApproveRequest moves a Pending request to Approved. Admin only.
func (s *Service) ApproveRequest(ctx context.Context, admin domain.Address, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.RequireAdmin(ctx, admin); err != nil {
		return s.reject(err)
	}
	now := s.clock.Now()
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return s.reject(err)
	}
	if err := s.requireTransition(req, domain.RequestStatusApproved); err != nil {
		return s.reject(err)
	}
	if now > req.RequiredBy {
		return s.reject(dErrors.Newf(dErrors.CodeRequestExpired,
			"blood request %d is past its required-by time", id))
	}
	return s.transition(ctx, req, domain.RequestStatusApproved, admin, events.ActionRequestApproved, nil, now)
}

// RejectRequest moves a Pending request to Rejected with a stated reason.
// Admin only.
func (s *Service) RejectRequest(ctx context.Context, admin domain.Address, id uint64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.RequireAdmin(ctx, admin); err != nil {
		return s.reject(err)
	}
	if reason == "" {
		return s.reject(dErrors.New(dErrors.CodeInvalidStatus, "a rejection needs a reason"))
	}
	now := s.clock.Now()
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return s.reject(err)
	}
	if err := s.requireTransition(req, domain.RequestStatusRejected); err != nil {
		return s.reject(err)
	}
	return s.transition(ctx, req, domain.RequestStatusRejected, admin, events.ActionRequestRejected, &reason, now)
}

// UpdateStatus is the admin override along the request state machine. Moving
// to Fulfilled stamps FulfilledAt.
func (s *Service) UpdateStatus(ctx context.Context, admin domain.Address, id uint64, newStatus domain.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.RequireAdmin(ctx, admin); err != nil {
		return s.reject(err)
	}
	if !newStatus.Valid() {
		return s.reject(dErrors.New(dErrors.CodeInvalidStatus, "unknown request status: "+newStatus.String()))
	}
	now := s.clock.Now()
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return s.reject(err)
	}
	if err := s.requireTransition(req, newStatus); err != nil {
		return s.reject(err)
	}
	return s.transition(ctx, req, newStatus, admin, events.ActionRequestStatusSet, nil, now)
}

// CancelRequest lets the owning hospital or the admin cancel an in-flight
// request. Reserved assigned units go back to the Available pool.
func (s *Service) CancelRequest(ctx context.Context, caller domain.Address, id uint64, reason *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return s.reject(err)
	}

	if req.HospitalID == caller {
		if err := s.registry.RequireHospital(ctx, caller); err != nil {
			return s.reject(err)
		}
	} else if err := s.registry.RequireAdmin(ctx, caller); err != nil {
		return s.reject(dErrors.Newf(dErrors.CodeUnauthorized,
			"only the owning hospital or the admin can cancel request %d", id))
	}

	if !req.Status.CanCancel() {
		return s.reject(dErrors.Newf(dErrors.CodeInvalidStatusTransition,
			"blood request %d is %s and cannot be cancelled", id, req.Status))
	}

	// Releasing the reserved units and cancelling the request share one
	// transaction scope so neither surface can land without the other.
	err = s.run(ctx, func(ctx context.Context) error {
		if len(req.AssignedUnits) > 0 {
			if err := s.inventory.ReleaseAllForRequest(ctx, caller, req.AssignedUnits); err != nil {
				return err
			}
			req.AssignedUnits = nil
		}
		return s.transition(ctx, req, domain.RequestStatusCancelled, caller, events.ActionRequestCancelled, reason, now)
	})
	if err != nil {
		return s.reject(err)
	}
	return nil
}

// AssignUnits records which inventory units are earmarked for the request.
// Admin only; every unit must exist.
func (s *Service) AssignUnits(ctx context.Context, admin domain.Address, id uint64, unitIDs []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.RequireAdmin(ctx, admin); err != nil {
		return s.reject(err)
	}
	if len(unitIDs) == 0 {
		return s.reject(dErrors.New(dErrors.CodeInvalidQuantity, "assignment cannot be empty"))
	}
	now := s.clock.Now()
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return s.reject(err)
	}
	if !req.Status.CanCancel() { // pending, approved, or in progress
		return s.reject(dErrors.Newf(dErrors.CodeInvalidStatusTransition,
			"blood request %d is %s, units cannot be assigned", id, req.Status))
	}
	if err := s.inventory.UnitsExist(ctx, unitIDs); err != nil {
		return s.reject(err)
	}

	req.AssignedUnits = append([]uint64(nil), unitIDs...)
	if err := s.store.Update(ctx, req); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist assignment")
	}

	event := events.New(events.TopicRequest, events.ActionUnitsAssigned, id, admin, now).
		WithField("units", joinIDs(unitIDs))
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Printf("event emission failed request=%d action=%s err=%v", id, event.Action, err)
	}
	return nil
}

// FulfillRequest delivers the named units to the requesting hospital and
// closes the order. Bank only; the request must be Approved or InProgress and
// every unit must be reserved for (or in transit to) the hospital and fresh.
func (s *Service) FulfillRequest(ctx context.Context, bank domain.Address, id uint64, unitIDs []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.RequireBank(ctx, bank); err != nil {
		return s.reject(err)
	}
	if len(unitIDs) == 0 {
		return s.reject(dErrors.New(dErrors.CodeInvalidQuantity, "fulfillment needs at least one unit"))
	}
	now := s.clock.Now()
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return s.reject(err)
	}
	if req.Status != domain.RequestStatusApproved && req.Status != domain.RequestStatusInProgress {
		return s.reject(dErrors.Newf(dErrors.CodeInvalidStatusTransition,
			"blood request %d is %s, not approved or in progress", id, req.Status))
	}

	// The unit cascade validates everything before touching any unit, and the
	// cascade and the request transition run in one transaction scope on
	// transactional backends, so a failure leaves both surfaces unchanged.
	err = s.run(ctx, func(ctx context.Context) error {
		if err := s.inventory.DeliverAllForRequest(ctx, bank, unitIDs, req.HospitalID); err != nil {
			return err
		}
		req.AssignedUnits = append([]uint64(nil), unitIDs...)
		return s.transition(ctx, req, domain.RequestStatusFulfilled, bank, events.ActionRequestFulfilled, nil, now)
	})
	if err != nil {
		return s.reject(err)
	}
	return nil
}

// CompleteRequest closes the optional post-delivery confirmation stage.
// Admin only; available only when the completion stage is enabled.
func (s *Service) CompleteRequest(ctx context.Context, admin domain.Address, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.policy.CompletionStage {
		return s.reject(dErrors.New(dErrors.CodeInvalidStatusTransition, "the completion stage is not enabled"))
	}
	if err := s.registry.RequireAdmin(ctx, admin); err != nil {
		return s.reject(err)
	}
	now := s.clock.Now()
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return s.reject(err)
	}
	if err := s.requireTransition(req, domain.RequestStatusCompleted); err != nil {
		return s.reject(err)
	}
	return s.transition(ctx, req, domain.RequestStatusCompleted, admin, events.ActionRequestCompleted, nil, now)
}
