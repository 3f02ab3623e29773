package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/sentinel"
	txcontext "lifeledger/pkg/platform/tx"
)

// PostgresStore persists units in the blood_units table. The sequential ID
// comes from the table's sequence inside the operation's transaction, so a
// rolled-back operation never publishes an ID.
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

const unitColumns = `id, blood_type, quantity_ml, expiration_ts, donor_id, bank_id,
	registered_at, status, recipient_hospital, allocated_at, transferred_at, delivered_at`

func (s *PostgresStore) Create(ctx context.Context, unit *BloodUnit) (*BloodUnit, error) {
	query := `
		INSERT INTO blood_units (blood_type, quantity_ml, expiration_ts, donor_id, bank_id,
			registered_at, status, recipient_hospital, allocated_at, transferred_at, delivered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	created := unit.Clone()
	err := s.querier(ctx).QueryRowContext(ctx, query,
		unit.BloodType.String(),
		unit.QuantityML,
		unit.ExpirationTS,
		unit.DonorID,
		unit.BankID.String(),
		unit.RegisteredAt,
		unit.Status.String(),
		addrPtr(unit.RecipientHospital),
		unit.AllocatedAt,
		unit.TransferredAt,
		unit.DeliveredAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("insert blood unit: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uint64) (*BloodUnit, error) {
	query := `SELECT ` + unitColumns + ` FROM blood_units WHERE id = $1`
	unit, err := scanUnit(s.querier(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blood unit: %w", err)
	}
	return unit, nil
}

func (s *PostgresStore) Update(ctx context.Context, unit *BloodUnit) error {
	query := `
		UPDATE blood_units
		SET status = $2, recipient_hospital = $3, allocated_at = $4,
			transferred_at = $5, delivered_at = $6
		WHERE id = $1
	`
	res, err := s.querier(ctx).ExecContext(ctx, query,
		unit.ID,
		unit.Status.String(),
		addrPtr(unit.RecipientHospital),
		unit.AllocatedAt,
		unit.TransferredAt,
		unit.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("update blood unit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update blood unit: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status domain.BloodStatus, limit int) ([]*BloodUnit, error) {
	query := `SELECT ` + unitColumns + ` FROM blood_units WHERE status = $1 ORDER BY id ASC LIMIT $2`
	return s.list(ctx, query, status.String(), limit)
}

func (s *PostgresStore) ListByHospital(ctx context.Context, hospital domain.Address, limit int) ([]*BloodUnit, error) {
	query := `SELECT ` + unitColumns + ` FROM blood_units WHERE recipient_hospital = $1 ORDER BY id ASC LIMIT $2`
	return s.list(ctx, query, hospital.String(), limit)
}

func (s *PostgresStore) ListByBank(ctx context.Context, bank domain.Address, limit int) ([]*BloodUnit, error) {
	query := `SELECT ` + unitColumns + ` FROM blood_units WHERE bank_id = $1 ORDER BY id ASC LIMIT $2`
	return s.list(ctx, query, bank.String(), limit)
}

func (s *PostgresStore) ListAvailableByType(ctx context.Context, bloodType domain.BloodType, now uint64, minQuantity uint32, limit int) ([]*BloodUnit, error) {
	query := `
		SELECT ` + unitColumns + `
		FROM blood_units
		WHERE status = 'available' AND blood_type = $1 AND expiration_ts > $2 AND quantity_ml >= $3
		ORDER BY expiration_ts ASC, id ASC
		LIMIT $4
	`
	rows, err := s.querier(ctx).QueryContext(ctx, query, bloodType.String(), now, minQuantity, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("query available units: %w", err)
	}
	defer rows.Close()
	return scanUnits(rows)
}

func (s *PostgresStore) AvailableQuantity(ctx context.Context, bloodType domain.BloodType, now uint64, need uint32) (uint32, error) {
	// The early-exit contract only requires the result to be accurate up to
	// need; a single aggregate keeps this one round trip.
	query := `
		SELECT COALESCE(SUM(quantity_ml), 0)
		FROM blood_units
		WHERE status = 'available' AND blood_type = $1 AND expiration_ts > $2
	`
	var total uint32
	if err := s.querier(ctx).QueryRowContext(ctx, query, bloodType.String(), now).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum available volume: %w", err)
	}
	_ = need
	return total, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, key any, limit int) ([]*BloodUnit, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, query, key, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("query blood units: %w", err)
	}
	defer rows.Close()
	return scanUnits(rows)
}

// limitArg renders a max-results cap as a LIMIT argument. Zero means no cap,
// which Postgres spells LIMIT NULL.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUnit(row rowScanner) (*BloodUnit, error) {
	var (
		unit      BloodUnit
		bloodType string
		bank      string
		status    string
		recipient *string
	)
	err := row.Scan(
		&unit.ID, &bloodType, &unit.QuantityML, &unit.ExpirationTS, &unit.DonorID, &bank,
		&unit.RegisteredAt, &status, &recipient, &unit.AllocatedAt, &unit.TransferredAt, &unit.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}
	unit.BloodType = domain.BloodType(bloodType)
	unit.BankID = domain.Address(bank)
	unit.Status = domain.BloodStatus(status)
	if recipient != nil {
		addr := domain.Address(*recipient)
		unit.RecipientHospital = &addr
	}
	return &unit, nil
}

func scanUnits(rows *sql.Rows) ([]*BloodUnit, error) {
	var units []*BloodUnit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blood unit: %w", err)
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blood units: %w", err)
	}
	return units, nil
}

func addrPtr(a *domain.Address) *string {
	if a == nil {
		return nil
	}
	s := a.String()
	return &s
}
