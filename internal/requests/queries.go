package requests

import (
	"context"
	"strconv"
	"strings"

	"lifeledger/internal/history"
	"lifeledger/internal/validation"
	dErrors "lifeledger/pkg/domain-errors"
	"lifeledger/pkg/domain"
)

// GetRequest returns a single request by ID.
func (s *Service) GetRequest(ctx context.Context, id uint64) (*BloodRequest, error) {
	return s.getRequest(ctx, id)
}

// QueryHospitalRequests lists a hospital's requests ascending by ID,
// optionally filtered to one status.
func (s *Service) QueryHospitalRequests(ctx context.Context, hospital domain.Address, status *domain.RequestStatus, limit, offset int) ([]*BloodRequest, error) {
	if err := validStatusFilter(status); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListByHospital(ctx, hospital, status, s.page(limit, offset))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query hospital requests")
	}
	return reqs, nil
}

// QueryPending lists the fulfillment queue: pending requests, most urgent
// first, ties by ID.
func (s *Service) QueryPending(ctx context.Context, limit, offset int) ([]*BloodRequest, error) {
	reqs, err := s.store.ListPending(ctx, s.page(limit, offset))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query pending requests")
	}
	return reqs, nil
}

// QueryByDateRange lists requests created in [start, end], both inclusive.
func (s *Service) QueryByDateRange(ctx context.Context, start, end uint64, status *domain.RequestStatus, limit, offset int) ([]*BloodRequest, error) {
	if start > end {
		return nil, dErrors.New(dErrors.CodeInvalidStatus, "start must not be after end")
	}
	if err := validStatusFilter(status); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListByDateRange(ctx, start, end, status, s.page(limit, offset))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query by date range")
	}
	return reqs, nil
}

// QueryByUrgency lists requests at one urgency level ascending by ID.
func (s *Service) QueryByUrgency(ctx context.Context, urgency domain.UrgencyLevel, status *domain.RequestStatus, limit, offset int) ([]*BloodRequest, error) {
	if !urgency.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidStatus, "unknown urgency level: "+urgency.String())
	}
	if err := validStatusFilter(status); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListByUrgency(ctx, urgency, status, s.page(limit, offset))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query by urgency")
	}
	return reqs, nil
}

// GetHistory returns the request's full status trail, oldest first.
func (s *Service) GetHistory(ctx context.Context, id uint64) ([]history.Record, error) {
	if _, err := s.getRequest(ctx, id); err != nil {
		return nil, err
	}
	records, err := s.trail.List(ctx, history.KindRequest, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request history")
	}
	return records, nil
}

func (s *Service) page(limit, offset int) Page {
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: validation.Limit(s.policy, limit), Offset: offset}
}

func validStatusFilter(status *domain.RequestStatus) error {
	if status != nil && !status.Valid() {
		return dErrors.New(dErrors.CodeInvalidStatus, "unknown request status: "+status.String())
	}
	return nil
}

func joinIDs(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, ",")
}
