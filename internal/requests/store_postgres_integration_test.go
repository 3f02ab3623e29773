//go:build integration

package requests_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"lifeledger/internal/requests"
	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/sentinel"
	"lifeledger/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *requests.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = requests.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "blood_requests"))
}

func (s *PostgresStoreSuite) newRequest(urgency domain.UrgencyLevel, quantity uint32) *requests.BloodRequest {
	return &requests.BloodRequest{
		HospitalID:      "addr-hospital",
		BloodType:       domain.BloodTypeONegative,
		QuantityML:      quantity,
		Urgency:         urgency,
		RequiredBy:      5000,
		DeliveryAddress: "1 Hospital Way",
		CreatedAt:       1000,
		Status:          domain.RequestStatusPending,
	}
}

func (s *PostgresStoreSuite) TestRoundTripWithAssignedUnits() {
	ctx := context.Background()

	req := s.newRequest(domain.UrgencyNormal, 500)
	req.PatientRef = "patient-9"
	created, err := s.store.Create(ctx, req)
	s.Require().NoError(err)
	s.Equal(uint64(1), created.ID)

	fulfilledAt := uint64(4000)
	created.Status = domain.RequestStatusFulfilled
	created.FulfilledAt = &fulfilledAt
	created.AssignedUnits = []uint64{3, 7, 11}
	s.Require().NoError(s.store.Update(ctx, created))

	got, err := s.store.Get(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusFulfilled, got.Status)
	s.Equal("patient-9", got.PatientRef)
	s.Equal([]uint64{3, 7, 11}, got.AssignedUnits)
	s.Require().NotNil(got.FulfilledAt)
	s.Equal(fulfilledAt, *got.FulfilledAt)
}

func (s *PostgresStoreSuite) TestGetUnknownRequest() {
	_, err := s.store.Get(context.Background(), 404)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestActiveIDByKeyFollowsStatus() {
	ctx := context.Background()

	req := s.newRequest(domain.UrgencyNormal, 500)
	created, err := s.store.Create(ctx, req)
	s.Require().NoError(err)

	id, found, err := s.store.ActiveIDByKey(ctx, created.DuplicateKey())
	s.Require().NoError(err)
	s.True(found)
	s.Equal(created.ID, id)

	// A terminal status frees the key.
	created.Status = domain.RequestStatusCancelled
	s.Require().NoError(s.store.Update(ctx, created))

	_, found, err = s.store.ActiveIDByKey(ctx, created.DuplicateKey())
	s.Require().NoError(err)
	s.False(found)
}

func (s *PostgresStoreSuite) TestDuplicateKeyEnforcedByIndex() {
	ctx := context.Background()

	first, err := s.store.Create(ctx, s.newRequest(domain.UrgencyNormal, 500))
	s.Require().NoError(err)

	// An identical active request trips the partial unique index.
	_, err = s.store.Create(ctx, s.newRequest(domain.UrgencyNormal, 500))
	s.ErrorIs(err, sentinel.ErrConflict)

	// A terminal status frees the key for reuse.
	first.Status = domain.RequestStatusCancelled
	s.Require().NoError(s.store.Update(ctx, first))

	again, err := s.store.Create(ctx, s.newRequest(domain.UrgencyNormal, 500))
	s.Require().NoError(err)
	s.Greater(again.ID, first.ID)
}

func (s *PostgresStoreSuite) TestListPendingOrdersByUrgency() {
	ctx := context.Background()

	normal, err := s.store.Create(ctx, s.newRequest(domain.UrgencyNormal, 100))
	s.Require().NoError(err)
	critical, err := s.store.Create(ctx, s.newRequest(domain.UrgencyCritical, 200))
	s.Require().NoError(err)
	urgent, err := s.store.Create(ctx, s.newRequest(domain.UrgencyUrgent, 300))
	s.Require().NoError(err)
	criticalLater, err := s.store.Create(ctx, s.newRequest(domain.UrgencyCritical, 400))
	s.Require().NoError(err)

	got, err := s.store.ListPending(ctx, requests.Page{Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(got, 4)
	s.Equal(critical.ID, got[0].ID)
	s.Equal(criticalLater.ID, got[1].ID)
	s.Equal(urgent.ID, got[2].ID)
	s.Equal(normal.ID, got[3].ID)

	// Pagination window.
	page, err := s.store.ListPending(ctx, requests.Page{Limit: 2, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(criticalLater.ID, page[0].ID)
	s.Equal(urgent.ID, page[1].ID)
}

func (s *PostgresStoreSuite) TestListByHospitalWithStatusFilter() {
	ctx := context.Background()

	first, err := s.store.Create(ctx, s.newRequest(domain.UrgencyNormal, 100))
	s.Require().NoError(err)
	second, err := s.store.Create(ctx, s.newRequest(domain.UrgencyNormal, 200))
	s.Require().NoError(err)

	second.Status = domain.RequestStatusApproved
	s.Require().NoError(s.store.Update(ctx, second))

	all, err := s.store.ListByHospital(ctx, "addr-hospital", nil, requests.Page{Limit: 10})
	s.Require().NoError(err)
	s.Len(all, 2)

	approved := domain.RequestStatusApproved
	filtered, err := s.store.ListByHospital(ctx, "addr-hospital", &approved, requests.Page{Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(filtered, 1)
	s.Equal(second.ID, filtered[0].ID)

	none, err := s.store.ListByHospital(ctx, "addr-other", nil, requests.Page{Limit: 10})
	s.Require().NoError(err)
	s.Empty(none)
	_ = first
}

func (s *PostgresStoreSuite) TestListByDateRangeInclusive() {
	ctx := context.Background()

	early := s.newRequest(domain.UrgencyNormal, 100)
	early.CreatedAt = 1000
	late := s.newRequest(domain.UrgencyNormal, 200)
	late.CreatedAt = 2000

	first, err := s.store.Create(ctx, early)
	s.Require().NoError(err)
	second, err := s.store.Create(ctx, late)
	s.Require().NoError(err)

	got, err := s.store.ListByDateRange(ctx, 1000, 2000, nil, requests.Page{Limit: 10})
	s.Require().NoError(err)
	s.Len(got, 2)

	got, err = s.store.ListByDateRange(ctx, 1001, 2000, nil, requests.Page{Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(second.ID, got[0].ID)

	got, err = s.store.ListByDateRange(ctx, 0, 999, nil, requests.Page{Limit: 10})
	s.Require().NoError(err)
	s.Empty(got)
	_ = first
}
