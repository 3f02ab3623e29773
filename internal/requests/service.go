package requests

import (
	"context"
	"errors"
	"log"
	"sync"

	"lifeledger/internal/history"
	"lifeledger/internal/platform/clock"
	"lifeledger/internal/platform/config"
	"lifeledger/internal/platform/metrics"
	"lifeledger/internal/registry"
	dErrors "lifeledger/pkg/domain-errors"
	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/events"
	"lifeledger/pkg/platform/sentinel"
	txcontext "lifeledger/pkg/platform/tx"
)

// InventoryGateway is the slice of the inventory surface the request surface
// drives during fulfillment and cancellation cascades.
type InventoryGateway interface {
	UnitsExist(ctx context.Context, unitIDs []uint64) error
	DeliverAllForRequest(ctx context.Context, bank domain.Address, unitIDs []uint64, hospital domain.Address) error
	ReleaseAllForRequest(ctx context.Context, actor domain.Address, unitIDs []uint64) error
}

// Service orchestrates the blood request lifecycle. Like the inventory side,
// public mutating operations are serialized by a mutex and validate everything
// before committing.
type Service struct {
	mu sync.Mutex

	store     Store
	trail     history.Store
	registry  *registry.Service
	inventory InventoryGateway
	emitter   events.Emitter
	clock     clock.Clock
	policy    config.Policy
	metrics   *metrics.Metrics
	logger    *log.Logger
	run       txcontext.Runner
}

// Option tweaks service construction.
type Option func(*Service)

// WithRunner routes the commit phase of every mutation through run, so
// Postgres-backed deployments commit entity and trail rows in one transaction.
func WithRunner(run txcontext.Runner) Option {
	return func(s *Service) { s.run = run }
}

func NewService(
	store Store,
	trail history.Store,
	reg *registry.Service,
	inv InventoryGateway,
	emitter events.Emitter,
	clk clock.Clock,
	policy config.Policy,
	m *metrics.Metrics,
	logger *log.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		store:     store,
		trail:     trail,
		registry:  reg,
		inventory: inv,
		emitter:   emitter,
		clock:     clk,
		policy:    policy,
		metrics:   m,
		logger:    logger,
		run:       txcontext.InProcess(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) getRequest(ctx context.Context, id uint64) (*BloodRequest, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeRequestNotFound, "blood request %d not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load blood request")
	}
	return req, nil
}

// transition applies the status change, persists the request, appends the
// trail record, and emits the event. Callers validate before calling.
func (s *Service) transition(ctx context.Context, req *BloodRequest, to domain.RequestStatus, actor domain.Address, action events.Action, reason *string, now uint64) error {
	from := req.Status
	req.Status = to
	if to == domain.RequestStatusFulfilled && req.FulfilledAt == nil {
		req.FulfilledAt = &now
	}
	err := s.run(ctx, func(ctx context.Context) error {
		if err := s.store.Update(ctx, req); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist blood request")
		}
		if err := s.trail.Append(ctx, history.Record{
			Kind:       history.KindRequest,
			EntityID:   req.ID,
			FromStatus: from.String(),
			ToStatus:   to.String(),
			Actor:      actor,
			Timestamp:  now,
			Reason:     reason,
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record status change")
		}
		return nil
	})
	if err != nil {
		return err
	}

	event := events.New(events.TopicRequest, action, req.ID, actor, now).
		WithTransition(from.String(), to.String())
	if reason != nil {
		event = event.WithField("reason", *reason)
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		// State is committed; a lost event must not fail the operation.
		s.logger.Printf("event emission failed request=%d action=%s err=%v", req.ID, action, err)
	}
	s.metrics.ObserveTransition("request", from.String(), to.String())
	return nil
}

func (s *Service) requireTransition(req *BloodRequest, to domain.RequestStatus) error {
	if !req.Status.CanTransitionTo(to, s.policy.CompletionStage) {
		return dErrors.Newf(dErrors.CodeInvalidStatusTransition,
			"blood request %d cannot move from %s to %s", req.ID, req.Status, to)
	}
	return nil
}

func (s *Service) reject(err error) error {
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		s.metrics.ObserveRejection(string(dErr.Code))
	}
	return err
}
