package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"betpool/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL. A snapshot
// captures a market's final aggregates at resolution or cancellation time;
// the engine remains the source of truth while it is running.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a new SnapshotStore backed by the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Put stores a snapshot of the market keyed by (market_id, taken_at).
func (s *SnapshotStore) Put(ctx context.Context, m domain.Market) error {
	const query = `
		INSERT INTO market_snapshots (
			market_id, taken_at, home_team_id, away_team_id,
			start_time, end_time, status, outcome,
			total_home_stake, total_away_stake, total_draw_stake, total_stake
		) VALUES ($1, NOW(), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (market_id, taken_at) DO NOTHING`
	_, err := s.pool.Exec(ctx, query,
		m.ID, m.HomeTeamID, m.AwayTeamID,
		m.StartTime, m.EndTime, m.Status.String(), m.Outcome.String(),
		m.TotalHomeStake, m.TotalAwayStake, m.TotalDrawStake, m.TotalStake,
	)
	if err != nil {
		return fmt.Errorf("postgres: put snapshot for market %d: %w", m.ID, err)
	}
	return nil
}

// Get returns the most recent snapshot for the given market.
func (s *SnapshotStore) Get(ctx context.Context, marketID uint64) (domain.Market, error) {
	const query = `
		SELECT market_id, home_team_id, away_team_id,
		       start_time, end_time, status, outcome,
		       total_home_stake, total_away_stake, total_draw_stake, total_stake
		FROM market_snapshots
		WHERE market_id = $1
		ORDER BY taken_at DESC
		LIMIT 1`

	m, err := scanMarket(s.pool.QueryRow(ctx, query, marketID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Market{}, fmt.Errorf("postgres: snapshot for market %d: %w", marketID, domain.ErrMarketNotFound)
	}
	if err != nil {
		return domain.Market{}, fmt.Errorf("postgres: get snapshot for market %d: %w", marketID, err)
	}
	return m, nil
}

// ListBefore returns snapshots taken strictly before the cutoff, oldest
// first, for archival.
func (s *SnapshotStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Market, error) {
	const query = `
		SELECT market_id, home_team_id, away_team_id,
		       start_time, end_time, status, outcome,
		       total_home_stake, total_away_stake, total_draw_stake, total_stake
		FROM market_snapshots
		WHERE taken_at < $1
		ORDER BY taken_at ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots before %s: %w", before, err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list snapshots rows: %w", err)
	}
	return markets, nil
}

// DeleteBefore removes snapshots taken strictly before the cutoff and
// returns the number of rows deleted.
func (s *SnapshotStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM market_snapshots WHERE taken_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete snapshots before %s: %w", before, err)
	}
	return tag.RowsAffected(), nil
}

func scanMarket(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	var status, outcome string

	err := row.Scan(
		&m.ID, &m.HomeTeamID, &m.AwayTeamID,
		&m.StartTime, &m.EndTime, &status, &outcome,
		&m.TotalHomeStake, &m.TotalAwayStake, &m.TotalDrawStake, &m.TotalStake,
	)
	if err != nil {
		return domain.Market{}, err
	}
	m.Status = domain.ParseMarketStatus(status)
	m.Outcome = domain.ParseOutcome(outcome)
	return m, nil
}
