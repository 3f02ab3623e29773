package requests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/sentinel"
	txcontext "lifeledger/pkg/platform/tx"
)

// PostgresStore persists requests in the blood_requests table. Assigned unit
// IDs live in a bigint array column; the duplicate key is inserted alongside
// the row and guarded by a partial unique index over active statuses, so
// at-most-one-active-duplicate holds even across instances.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const requestColumns = `id, hospital_id, blood_type, quantity_ml, urgency, required_by,
	delivery_address, patient_ref, procedure, notes, created_at, status, fulfilled_at, assigned_units`

func (s *PostgresStore) Create(ctx context.Context, req *BloodRequest) (*BloodRequest, error) {
	query := `
		INSERT INTO blood_requests (hospital_id, blood_type, quantity_ml, urgency, required_by,
			delivery_address, patient_ref, procedure, notes, created_at, status, fulfilled_at,
			assigned_units, duplicate_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	created := req.Clone()
	err := s.querier(ctx).QueryRowContext(ctx, query,
		req.HospitalID.String(),
		req.BloodType.String(),
		req.QuantityML,
		req.Urgency.String(),
		req.RequiredBy,
		req.DeliveryAddress,
		req.PatientRef,
		req.Procedure,
		req.Notes,
		req.CreatedAt,
		req.Status.String(),
		req.FulfilledAt,
		pq.Array(int64Slice(req.AssignedUnits)),
		req.DuplicateKey(),
	).Scan(&created.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("insert blood request: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uint64) (*BloodRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE id = $1`
	req, err := scanRequest(s.querier(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blood request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) Update(ctx context.Context, req *BloodRequest) error {
	query := `
		UPDATE blood_requests
		SET status = $2, fulfilled_at = $3, assigned_units = $4
		WHERE id = $1
	`
	res, err := s.querier(ctx).ExecContext(ctx, query,
		req.ID,
		req.Status.String(),
		req.FulfilledAt,
		pq.Array(int64Slice(req.AssignedUnits)),
	)
	if err != nil {
		return fmt.Errorf("update blood request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update blood request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ActiveIDByKey(ctx context.Context, key string) (uint64, bool, error) {
	query := `
		SELECT id FROM blood_requests
		WHERE duplicate_key = $1 AND status IN ('pending', 'approved', 'in_progress')
		LIMIT 1
	`
	var id uint64
	err := s.querier(ctx).QueryRowContext(ctx, query, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup duplicate key: %w", err)
	}
	return id, true, nil
}

func (s *PostgresStore) ListByHospital(ctx context.Context, hospital domain.Address, status *domain.RequestStatus, page Page) ([]*BloodRequest, error) {
	query := `
		SELECT ` + requestColumns + ` FROM blood_requests
		WHERE hospital_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY id ASC
		LIMIT $3 OFFSET $4
	`
	return s.list(ctx, query, hospital.String(), statusPtr(status), page.Limit, page.Offset)
}

func (s *PostgresStore) ListPending(ctx context.Context, page Page) ([]*BloodRequest, error) {
	query := `
		SELECT ` + requestColumns + ` FROM blood_requests
		WHERE status = 'pending'
		ORDER BY CASE urgency WHEN 'critical' THEN 3 WHEN 'urgent' THEN 2 ELSE 1 END DESC, id ASC
		LIMIT $1 OFFSET $2
	`
	return s.list(ctx, query, page.Limit, page.Offset)
}

func (s *PostgresStore) ListByDateRange(ctx context.Context, start, end uint64, status *domain.RequestStatus, page Page) ([]*BloodRequest, error) {
	query := `
		SELECT ` + requestColumns + ` FROM blood_requests
		WHERE created_at >= $1 AND created_at <= $2 AND ($3::text IS NULL OR status = $3)
		ORDER BY id ASC
		LIMIT $4 OFFSET $5
	`
	return s.list(ctx, query, start, end, statusPtr(status), page.Limit, page.Offset)
}

func (s *PostgresStore) ListByUrgency(ctx context.Context, urgency domain.UrgencyLevel, status *domain.RequestStatus, page Page) ([]*BloodRequest, error) {
	query := `
		SELECT ` + requestColumns + ` FROM blood_requests
		WHERE urgency = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY id ASC
		LIMIT $3 OFFSET $4
	`
	return s.list(ctx, query, urgency.String(), statusPtr(status), page.Limit, page.Offset)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*BloodRequest, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query blood requests: %w", err)
	}
	defer rows.Close()

	var reqs []*BloodRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blood request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blood requests: %w", err)
	}
	return reqs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*BloodRequest, error) {
	var (
		req       BloodRequest
		hospital  string
		bloodType string
		urgency   string
		status    string
		units     []int64
	)
	err := row.Scan(
		&req.ID, &hospital, &bloodType, &req.QuantityML, &urgency, &req.RequiredBy,
		&req.DeliveryAddress, &req.PatientRef, &req.Procedure, &req.Notes,
		&req.CreatedAt, &status, &req.FulfilledAt, pq.Array(&units),
	)
	if err != nil {
		return nil, err
	}
	req.HospitalID = domain.Address(hospital)
	req.BloodType = domain.BloodType(bloodType)
	req.Urgency = domain.UrgencyLevel(urgency)
	req.Status = domain.RequestStatus(status)
	for _, u := range units {
		req.AssignedUnits = append(req.AssignedUnits, uint64(u))
	}
	return &req, nil
}

func int64Slice(ids []uint64) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func statusPtr(status *domain.RequestStatus) *string {
	if status == nil {
		return nil
	}
	s := status.String()
	return &s
}
