package inventory

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

// Service orchestrates the blood unit lifecycle. Public mutating operations
// are serialized by a mutex so every operation sees a settled inventory,
// validates everything, then commits entity + trail + event together.
type Service struct {
	mu sync.Mutex

	store    Store
	trail    history.Store
	registry *registry.Service
	emitter  events.Emitter
	clock    clock.Clock
	policy   config.Policy
	metrics  *metrics.Metrics
	logger   *log.Logger
	run      txcontext.Runner
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
	emitter events.Emitter,
	clk clock.Clock,
	policy config.Policy,
	m *metrics.Metrics,
	logger *log.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		store:    store,
		trail:    trail,
		registry: reg,
		emitter:  emitter,
		clock:    clk,
		policy:   policy,
		metrics:  m,
		logger:   logger,
		run:      txcontext.InProcess(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the shared role registry so transport can route
// initialize / register_bank / register_hospital through one place.
func (s *Service) Registry() *registry.Service { return s.registry }

func (s *Service) getUnit(ctx context.Context, id uint64) (*BloodUnit, error) {
	unit, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeUnitNotFound, "blood unit %d not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load blood unit")
	}
	return unit, nil
}

// guardExpiry enforces expiry precedence: once a unit's shelf life has run
// out, the only transitions still allowed are into Expired or Discarded.
func (s *Service) guardExpiry(unit *BloodUnit, target domain.BloodStatus, now uint64) error {
	if !unit.IsExpired(now) {
		return nil
	}
	if target == domain.BloodStatusExpired || target == domain.BloodStatusDiscarded {
		return nil
	}
	return dErrors.Newf(dErrors.CodeUnitExpired, "blood unit %d is expired", unit.ID)
}

// transition applies the status change, persists the unit, appends the trail
// record, and emits the event. Callers validate before calling.
func (s *Service) transition(ctx context.Context, unit *BloodUnit, to domain.BloodStatus, actor domain.Address, action events.Action, reason *string, now uint64) error {
	from := unit.Status
	unit.Status = to
	err := s.run(ctx, func(ctx context.Context) error {
		if err := s.store.Update(ctx, unit); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist blood unit")
		}
		if err := s.trail.Append(ctx, history.Record{
			Kind:       history.KindUnit,
			EntityID:   unit.ID,
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

	event := events.New(events.TopicBlood, action, unit.ID, actor, now).
		WithTransition(from.String(), to.String())
	if reason != nil {
		event = event.WithField("reason", *reason)
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		// State is committed; a lost event must not fail the operation.
		s.logger.Printf("event emission failed unit=%d action=%s err=%v", unit.ID, action, err)
	}
	s.metrics.ObserveTransition("unit", from.String(), to.String())
	return nil
}

func (s *Service) reject(err error) error {
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		s.metrics.ObserveRejection(string(dErr.Code))
	}
	return err
}
