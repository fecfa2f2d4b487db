package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"betpool/internal/domain"
)

// RecordStore implements domain.RecordStore using PostgreSQL. The
// settlement_records table is the durable journal; rows are never updated,
// only appended and eventually archived away.
type RecordStore struct {
	pool *pgxpool.Pool
}

// NewRecordStore creates a new RecordStore backed by the given connection pool.
func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

// Append inserts a settlement record. The detail map is stored as JSONB.
func (s *RecordStore) Append(ctx context.Context, rec domain.Record) error {
	detailJSON, err := json.Marshal(rec.Detail)
	if err != nil {
		return fmt.Errorf("postgres: marshal record detail: %w", err)
	}

	var marketID *uint64
	if rec.MarketID != 0 {
		marketID = &rec.MarketID
	}

	const query = `
		INSERT INTO settlement_records (id, record_type, market_id, occurred_at, detail)
		VALUES ($1, $2, $3, $4, $5)`
	_, err = s.pool.Exec(ctx, query, rec.ID, string(rec.Type), marketID, rec.At, detailJSON)
	if err != nil {
		return fmt.Errorf("postgres: append record %s: %w", rec.Type, err)
	}
	return nil
}

// ListByMarket returns the journal for one market, oldest first.
func (s *RecordStore) ListByMarket(ctx context.Context, marketID uint64, opts domain.ListOpts) ([]domain.Record, error) {
	query := `
		SELECT id, record_type, market_id, occurred_at, detail
		FROM settlement_records
		WHERE market_id = $1`
	args := []any{marketID}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY occurred_at ASC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	return s.queryRecords(ctx, query, args...)
}

// List returns journal records across all markets, newest first.
func (s *RecordStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Record, error) {
	query := `
		SELECT id, record_type, market_id, occurred_at, detail
		FROM settlement_records
		WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY occurred_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	return s.queryRecords(ctx, query, args...)
}

// ListBefore returns all records that occurred strictly before the cutoff,
// oldest first, for archival.
func (s *RecordStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Record, error) {
	const query = `
		SELECT id, record_type, market_id, occurred_at, detail
		FROM settlement_records
		WHERE occurred_at < $1
		ORDER BY occurred_at ASC`
	return s.queryRecords(ctx, query, before)
}

// DeleteBefore removes records that occurred strictly before the cutoff and
// returns the number of rows deleted.
func (s *RecordStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM settlement_records WHERE occurred_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete records before %s: %w", before, err)
	}
	return tag.RowsAffected(), nil
}

func (s *RecordStore) queryRecords(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query records: %w", err)
	}
	defer rows.Close()

	var recs []domain.Record
	for rows.Next() {
		var rec domain.Record
		var typ string
		var marketID *uint64
		var detailJSON []byte

		if err := rows.Scan(&rec.ID, &typ, &marketID, &rec.At, &detailJSON); err != nil {
			return nil, fmt.Errorf("postgres: scan record: %w", err)
		}
		rec.Type = domain.RecordType(typ)
		if marketID != nil {
			rec.MarketID = *marketID
		}
		if detailJSON != nil {
			if err := json.Unmarshal(detailJSON, &rec.Detail); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal record detail: %w", err)
			}
		}

		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: query records rows: %w", err)
	}
	return recs, nil
}
