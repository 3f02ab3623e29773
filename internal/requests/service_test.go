package requests

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/suite"

	"lifeledger/internal/history"
	"lifeledger/internal/inventory"
	"lifeledger/internal/platform/clock"
	"lifeledger/internal/platform/config"
	"lifeledger/internal/platform/identity"
	"lifeledger/internal/registry"
	dErrors "lifeledger/pkg/domain-errors"
	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/events"
	txcontext "lifeledger/pkg/platform/tx"
)

const (
	admin     = domain.Address("ADMIN")
	bankA     = domain.Address("BANK_A")
	hospitalA = domain.Address("HOSP_A")
	hospitalB = domain.Address("HOSP_B")

	base = uint64(1_700_000_000)
	hour = uint64(60 * 60)
	day  = 24 * hour
)

type RequestsSuite struct {
	suite.Suite
	svc      *Service
	inv      *inventory.Service
	clock    *clock.Manual
	recorder *events.Recorder
	ctx      context.Context
}

func (s *RequestsSuite) SetupTest() {
	s.buildServices(config.DefaultPolicy())
}

func (s *RequestsSuite) buildServices(policy config.Policy) {
	logger := log.New(io.Discard, "", 0)
	s.ctx = context.Background()

	reg := registry.NewService(registry.NewInMemoryStore(), identity.AllowAll{}, logger)
	s.Require().NoError(reg.Initialize(s.ctx, admin))
	s.Require().NoError(reg.RegisterBank(s.ctx, admin, bankA))
	s.Require().NoError(reg.RegisterHospital(s.ctx, admin, hospitalA))
	s.Require().NoError(reg.RegisterHospital(s.ctx, admin, hospitalB))

	s.clock = clock.NewManual(base)
	s.recorder = events.NewRecorder()
	trail := history.NewInMemoryStore()

	s.inv = inventory.NewService(inventory.NewInMemoryStore(), trail, reg, s.recorder, s.clock, policy, nil, logger)
	s.svc = NewService(NewInMemoryStore(), trail, reg, s.inv, s.recorder, s.clock, policy, nil, logger)
}

func TestRequestsSuite(t *testing.T) {
	suite.Run(t, new(RequestsSuite))
}

// create opens a Normal-urgency request for hospitalA.
func (s *RequestsSuite) create(qty uint32) uint64 {
	id, err := s.svc.CreateRequest(s.ctx, hospitalA, CreateRequestInput{
		BloodType:       domain.BloodTypeOPositive,
		QuantityML:      qty,
		Urgency:         domain.UrgencyNormal,
		RequiredBy:      s.clock.Now() + 2*day,
		DeliveryAddress: "1 Emergency Dept",
	})
	s.Require().NoError(err)
	return id
}

// reserveUnits registers and allocates n units of 450ml to the hospital.
func (s *RequestsSuite) reserveUnits(n int, hospital domain.Address) []uint64 {
	ids := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		id, err := s.inv.RegisterBlood(s.ctx, bankA, inventory.RegisterBloodInput{
			BloodType:    domain.BloodTypeOPositive,
			QuantityML:   450,
			ExpirationTS: s.clock.Now() + 30*day,
		})
		s.Require().NoError(err)
		s.Require().NoError(s.inv.Allocate(s.ctx, bankA, id, hospital))
		ids = append(ids, id)
	}
	return ids
}

func (s *RequestsSuite) request(id uint64) *BloodRequest {
	req, err := s.svc.GetRequest(s.ctx, id)
	s.Require().NoError(err)
	return req
}

func (s *RequestsSuite) TestCreateRequest() {
	s.Run("assigns sequential ids from 1", func() {
		s.Equal(uint64(1), s.create(500))
		s.Equal(uint64(2), s.create(1000))
	})

	s.Run("rejects non-hospital caller", func() {
		_, err := s.svc.CreateRequest(s.ctx, bankA, CreateRequestInput{
			BloodType:       domain.BloodTypeOPositive,
			QuantityML:      500,
			Urgency:         domain.UrgencyNormal,
			RequiredBy:      base + 2*day,
			DeliveryAddress: "1 Emergency Dept",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorizedHospital))
	})

	s.Run("rejects short lead time for the urgency", func() {
		_, err := s.svc.CreateRequest(s.ctx, hospitalA, CreateRequestInput{
			BloodType:       domain.BloodTypeOPositive,
			QuantityML:      500,
			Urgency:         domain.UrgencyUrgent,
			RequiredBy:      s.clock.Now() + 4*hour - 1,
			DeliveryAddress: "1 Emergency Dept",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRequiredBy))
	})

	s.Run("rejects blank delivery address", func() {
		_, err := s.svc.CreateRequest(s.ctx, hospitalA, CreateRequestInput{
			BloodType:       domain.BloodTypeOPositive,
			QuantityML:      500,
			Urgency:         domain.UrgencyNormal,
			RequiredBy:      s.clock.Now() + 2*day,
			DeliveryAddress: "  ",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidDeliveryAddress))
	})

	s.Run("rejects an identical active request", func() {
		_, err := s.svc.CreateRequest(s.ctx, hospitalA, CreateRequestInput{
			BloodType:       domain.BloodTypeOPositive,
			QuantityML:      500,
			Urgency:         domain.UrgencyNormal,
			RequiredBy:      base + 2*day,
			DeliveryAddress: "1 Emergency Dept",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateRequest))
	})

	s.Run("cancellation frees the duplicate key", func() {
		s.Require().NoError(s.svc.CancelRequest(s.ctx, hospitalA, 1, nil))
		id, err := s.svc.CreateRequest(s.ctx, hospitalA, CreateRequestInput{
			BloodType:       domain.BloodTypeOPositive,
			QuantityML:      500,
			Urgency:         domain.UrgencyNormal,
			RequiredBy:      base + 2*day,
			DeliveryAddress: "1 Emergency Dept",
		})
		s.Require().NoError(err)
		s.Equal(uint64(3), id)
	})

	s.Run("failed creation does not consume an id", func() {
		s.Equal(uint64(4), s.create(750))
	})
}

func (s *RequestsSuite) TestApproveAndReject() {
	id := s.create(500)

	s.Run("admin approves a pending request", func() {
		s.Require().NoError(s.svc.ApproveRequest(s.ctx, admin, id))
		s.Equal(domain.RequestStatusApproved, s.request(id).Status)
	})

	s.Run("approval is not repeatable", func() {
		err := s.svc.ApproveRequest(s.ctx, admin, id)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition))
	})

	s.Run("non-admin cannot approve", func() {
		other := s.create(750)
		err := s.svc.ApproveRequest(s.ctx, hospitalA, other)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejection needs a reason", func() {
		other := s.create(1000)
		err := s.svc.RejectRequest(s.ctx, admin, other, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatus))

		s.Require().NoError(s.svc.RejectRequest(s.ctx, admin, other, "insufficient stock"))
		s.Equal(domain.RequestStatusRejected, s.request(other).Status)
	})

	s.Run("approval past required-by fails", func() {
		late, err := s.svc.CreateRequest(s.ctx, hospitalB, CreateRequestInput{
			BloodType:       domain.BloodTypeOPositive,
			QuantityML:      500,
			Urgency:         domain.UrgencyCritical,
			RequiredBy:      s.clock.Now() + 2*hour,
			DeliveryAddress: "2 Trauma Ward",
		})
		s.Require().NoError(err)

		s.clock.Advance(3 * hour)
		err = s.svc.ApproveRequest(s.ctx, admin, late)
		s.True(dErrors.HasCode(err, dErrors.CodeRequestExpired))
	})

	s.Run("unknown request is rejected", func() {
		err := s.svc.ApproveRequest(s.ctx, admin, 999)
		s.True(dErrors.HasCode(err, dErrors.CodeRequestNotFound))
	})
}

func (s *RequestsSuite) TestCancelReleasesUnits() {
	id := s.create(900)
	s.Require().NoError(s.svc.ApproveRequest(s.ctx, admin, id))
	units := s.reserveUnits(2, hospitalA)
	s.Require().NoError(s.svc.AssignUnits(s.ctx, admin, id, units))

	s.Run("owner hospital cancels and the units go back", func() {
		reason := "patient recovered"
		s.Require().NoError(s.svc.CancelRequest(s.ctx, hospitalA, id, &reason))

		req := s.request(id)
		s.Equal(domain.RequestStatusCancelled, req.Status)
		s.Empty(req.AssignedUnits)

		for _, unitID := range units {
			unit, err := s.inv.GetUnit(s.ctx, unitID)
			s.Require().NoError(err)
			s.Equal(domain.BloodStatusAvailable, unit.Status)
			s.Nil(unit.RecipientHospital)
		}
	})

	s.Run("release is on the unit trail", func() {
		records, err := s.inv.GetHistory(s.ctx, units[0])
		s.Require().NoError(err)
		last := records[len(records)-1]
		s.Equal("reserved", last.FromStatus)
		s.Equal("available", last.ToStatus)
		s.Require().NotNil(last.Reason)
		s.Equal("request cancelled", *last.Reason)
	})

	s.Run("a cancelled request stays cancelled", func() {
		err := s.svc.CancelRequest(s.ctx, hospitalA, id, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition))
	})

	s.Run("another hospital cannot cancel", func() {
		other := s.create(600)
		err := s.svc.CancelRequest(s.ctx, hospitalB, other, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("admin can cancel any request", func() {
		other := s.create(700)
		s.Require().NoError(s.svc.CancelRequest(s.ctx, admin, other, nil))
		s.Equal(domain.RequestStatusCancelled, s.request(other).Status)
	})
}

func (s *RequestsSuite) TestAssignUnits() {
	id := s.create(900)

	s.Run("unknown units are rejected", func() {
		err := s.svc.AssignUnits(s.ctx, admin, id, []uint64{123})
		s.True(dErrors.HasCode(err, dErrors.CodeUnitNotFound))
		s.Empty(s.request(id).AssignedUnits)
	})

	s.Run("assignment records the unit ids", func() {
		units := s.reserveUnits(2, hospitalA)
		s.Require().NoError(s.svc.AssignUnits(s.ctx, admin, id, units))
		s.Equal(units, s.request(id).AssignedUnits)
	})

	s.Run("non-admin cannot assign", func() {
		err := s.svc.AssignUnits(s.ctx, hospitalA, id, []uint64{1})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *RequestsSuite) TestFulfillRequest() {
	id := s.create(900)
	s.Require().NoError(s.svc.ApproveRequest(s.ctx, admin, id))
	units := s.reserveUnits(2, hospitalA)

	s.Run("fulfillment needs an approved request", func() {
		pending := s.create(600)
		err := s.svc.FulfillRequest(s.ctx, bankA, pending, units)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition))
	})

	s.Run("units reserved for another hospital reject the whole call", func() {
		foreign := s.reserveUnits(1, hospitalB)
		err := s.svc.FulfillRequest(s.ctx, bankA, id, append(append([]uint64{}, units...), foreign...))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatus))

		s.Equal(domain.RequestStatusApproved, s.request(id).Status)
		for _, unitID := range units {
			unit, err := s.inv.GetUnit(s.ctx, unitID)
			s.Require().NoError(err)
			s.Equal(domain.BloodStatusReserved, unit.Status, "no unit may move on a failed fulfillment")
		}
	})

	s.Run("fulfillment delivers every unit and closes the order", func() {
		s.Require().NoError(s.svc.FulfillRequest(s.ctx, bankA, id, units))

		req := s.request(id)
		s.Equal(domain.RequestStatusFulfilled, req.Status)
		s.Require().NotNil(req.FulfilledAt)
		s.Equal(s.clock.Now(), *req.FulfilledAt)
		s.Equal(units, req.AssignedUnits)

		for _, unitID := range units {
			unit, err := s.inv.GetUnit(s.ctx, unitID)
			s.Require().NoError(err)
			s.Equal(domain.BloodStatusDelivered, unit.Status)
		}
	})

	s.Run("the unit trail walks the full path", func() {
		records, err := s.inv.GetHistory(s.ctx, units[0])
		s.Require().NoError(err)
		statuses := make([]string, len(records))
		for i, r := range records {
			statuses[i] = r.ToStatus
		}
		s.Equal([]string{"available", "reserved", "in_transit", "delivered"}, statuses)
	})

	s.Run("a fulfilled request is terminal by default", func() {
		err := s.svc.FulfillRequest(s.ctx, bankA, id, units)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition))
	})
}

type scopeKey struct{}

// scopedRunner mimics the transactional Runner: a nested call joins the scope
// already on the context instead of opening a new one.
func scopedRunner(begins *int) txcontext.Runner {
	return func(ctx context.Context, fn func(context.Context) error) error {
		if ctx.Value(scopeKey{}) != nil {
			return fn(ctx)
		}
		*begins++
		return fn(context.WithValue(ctx, scopeKey{}, struct{}{}))
	}
}

func (s *RequestsSuite) TestCascadesShareOneScope() {
	var begins int
	runner := scopedRunner(&begins)

	logger := log.New(io.Discard, "", 0)
	reg := registry.NewService(registry.NewInMemoryStore(), identity.AllowAll{}, logger)
	s.Require().NoError(reg.Initialize(s.ctx, admin))
	s.Require().NoError(reg.RegisterBank(s.ctx, admin, bankA))
	s.Require().NoError(reg.RegisterHospital(s.ctx, admin, hospitalA))

	trail := history.NewInMemoryStore()
	policy := config.DefaultPolicy()
	s.inv = inventory.NewService(inventory.NewInMemoryStore(), trail, reg, s.recorder, s.clock, policy, nil, logger,
		inventory.WithRunner(runner))
	s.svc = NewService(NewInMemoryStore(), trail, reg, s.inv, s.recorder, s.clock, policy, nil, logger,
		WithRunner(runner))

	s.Run("fulfillment commits the unit cascade and the request together", func() {
		id := s.create(900)
		s.Require().NoError(s.svc.ApproveRequest(s.ctx, admin, id))
		units := s.reserveUnits(2, hospitalA)

		begins = 0
		s.Require().NoError(s.svc.FulfillRequest(s.ctx, bankA, id, units))
		s.Equal(1, begins, "delivery cascade and request transition must share one scope")
	})

	s.Run("cancellation commits the release and the request together", func() {
		id := s.create(600)
		s.Require().NoError(s.svc.ApproveRequest(s.ctx, admin, id))
		units := s.reserveUnits(1, hospitalA)
		s.Require().NoError(s.svc.AssignUnits(s.ctx, admin, id, units))

		begins = 0
		s.Require().NoError(s.svc.CancelRequest(s.ctx, hospitalA, id, nil))
		s.Equal(1, begins, "release cascade and cancellation must share one scope")
	})
}

func (s *RequestsSuite) TestCompletionStage() {
	s.Run("disabled by default", func() {
		id := s.create(500)
		err := s.svc.CompleteRequest(s.ctx, admin, id)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition))
	})

	s.Run("enabled policy adds the stage", func() {
		policy := config.DefaultPolicy()
		policy.CompletionStage = true
		s.buildServices(policy)

		id := s.create(900)
		s.Require().NoError(s.svc.ApproveRequest(s.ctx, admin, id))
		units := s.reserveUnits(1, hospitalA)
		s.Require().NoError(s.svc.FulfillRequest(s.ctx, bankA, id, units))

		s.Require().NoError(s.svc.CompleteRequest(s.ctx, admin, id))
		s.Equal(domain.RequestStatusCompleted, s.request(id).Status)
	})

	s.Run("only fulfilled requests complete", func() {
		policy := config.DefaultPolicy()
		policy.CompletionStage = true
		s.buildServices(policy)

		id := s.create(500)
		err := s.svc.CompleteRequest(s.ctx, admin, id)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition))
	})
}

func (s *RequestsSuite) TestQueryPendingOrdersByUrgency() {
	mk := func(hospital domain.Address, urgency domain.UrgencyLevel, qty uint32) uint64 {
		lead := 2 * day
		id, err := s.svc.CreateRequest(s.ctx, hospital, CreateRequestInput{
			BloodType:       domain.BloodTypeOPositive,
			QuantityML:      qty,
			Urgency:         urgency,
			RequiredBy:      s.clock.Now() + lead,
			DeliveryAddress: "1 Emergency Dept",
		})
		s.Require().NoError(err)
		return id
	}

	normal := mk(hospitalA, domain.UrgencyNormal, 500)
	critical1 := mk(hospitalA, domain.UrgencyCritical, 600)
	urgent := mk(hospitalB, domain.UrgencyUrgent, 700)
	critical2 := mk(hospitalB, domain.UrgencyCritical, 800)

	reqs, err := s.svc.QueryPending(s.ctx, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(reqs, 4)
	s.Equal(critical1, reqs[0].ID)
	s.Equal(critical2, reqs[1].ID, "equal urgency ties break by id")
	s.Equal(urgent, reqs[2].ID)
	s.Equal(normal, reqs[3].ID)

	s.Run("approved requests leave the queue", func() {
		s.Require().NoError(s.svc.ApproveRequest(s.ctx, admin, critical1))
		reqs, err := s.svc.QueryPending(s.ctx, 0, 0)
		s.Require().NoError(err)
		s.Require().Len(reqs, 3)
		s.Equal(critical2, reqs[0].ID)
	})

	s.Run("pagination windows the queue", func() {
		reqs, err := s.svc.QueryPending(s.ctx, 2, 1)
		s.Require().NoError(err)
		s.Require().Len(reqs, 2)
		s.Equal(urgent, reqs[0].ID)
		s.Equal(normal, reqs[1].ID)
	})
}

func (s *RequestsSuite) TestHospitalAndDateRangeQueries() {
	a1 := s.create(500)
	s.clock.Advance(hour)
	b1, err := s.svc.CreateRequest(s.ctx, hospitalB, CreateRequestInput{
		BloodType:       domain.BloodTypeOPositive,
		QuantityML:      500,
		Urgency:         domain.UrgencyNormal,
		RequiredBy:      s.clock.Now() + 2*day,
		DeliveryAddress: "2 Trauma Ward",
	})
	s.Require().NoError(err)
	s.clock.Advance(hour)
	a2 := s.create(750)
	s.Require().NoError(s.svc.RejectRequest(s.ctx, admin, a2, "stock check failed"))

	s.Run("hospital query with status filter", func() {
		reqs, err := s.svc.QueryHospitalRequests(s.ctx, hospitalA, nil, 0, 0)
		s.Require().NoError(err)
		s.Require().Len(reqs, 2)
		s.Equal(a1, reqs[0].ID)

		rejected := domain.RequestStatusRejected
		reqs, err = s.svc.QueryHospitalRequests(s.ctx, hospitalA, &rejected, 0, 0)
		s.Require().NoError(err)
		s.Require().Len(reqs, 1)
		s.Equal(a2, reqs[0].ID)
	})

	s.Run("date range bounds are inclusive", func() {
		reqs, err := s.svc.QueryByDateRange(s.ctx, base+hour, base+2*hour, nil, 0, 0)
		s.Require().NoError(err)
		s.Require().Len(reqs, 2)
		s.Equal(b1, reqs[0].ID)
		s.Equal(a2, reqs[1].ID)

		reqs, err = s.svc.QueryByDateRange(s.ctx, base, base+hour-1, nil, 0, 0)
		s.Require().NoError(err)
		s.Require().Len(reqs, 1)
		s.Equal(a1, reqs[0].ID)
	})

	s.Run("inverted range is rejected", func() {
		_, err := s.svc.QueryByDateRange(s.ctx, base+day, base, nil, 0, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatus))
	})

	s.Run("urgency query", func() {
		reqs, err := s.svc.QueryByUrgency(s.ctx, domain.UrgencyNormal, nil, 0, 0)
		s.Require().NoError(err)
		s.Len(reqs, 3)
	})
}
