package history

import (
	"context"
	"database/sql"
	"fmt"

	"lifeledger/pkg/domain"
	txcontext "lifeledger/pkg/platform/tx"
)

// PostgresStore persists trails in the status_changes table. Writes join the
// operation's transaction when one is in the context so the trail commits
// atomically with the entity mutation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO status_changes (entity_kind, entity_id, from_status, to_status, actor, ts, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		string(rec.Kind),
		rec.EntityID,
		rec.FromStatus,
		rec.ToStatus,
		rec.Actor.String(),
		rec.Timestamp,
		rec.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, kind EntityKind, entityID uint64) ([]Record, error) {
	query := `
		SELECT entity_kind, entity_id, from_status, to_status, actor, ts, reason
		FROM status_changes
		WHERE entity_kind = $1 AND entity_id = $2
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(kind), entityID)
	if err != nil {
		return nil, fmt.Errorf("query status changes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec Record
			k   string
			act string
		)
		if err := rows.Scan(&k, &rec.EntityID, &rec.FromStatus, &rec.ToStatus, &act, &rec.Timestamp, &rec.Reason); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		rec.Kind = EntityKind(k)
		rec.Actor = domain.Address(act)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status changes: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Count(ctx context.Context, kind EntityKind, entityID uint64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM status_changes WHERE entity_kind = $1 AND entity_id = $2`
	if err := s.db.QueryRowContext(ctx, query, string(kind), entityID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count status changes: %w", err)
	}
	return count, nil
}
