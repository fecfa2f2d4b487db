package engine

import (
	"time"

	"betpool/internal/domain"
)

// marketLifecycle owns market records and their state machine. Markets move
// Open -> Resolved or Open -> Cancelled, both terminal. Ids are sequential
// from 1; a failed creation does not advance the counter. All access is
// serialized by the owning Engine.
type marketLifecycle struct {
	markets map[uint64]*domain.Market
	nextID  uint64
	teams   *teamRegistry
}

func newMarketLifecycle(teams *teamRegistry) *marketLifecycle {
	return &marketLifecycle{
		markets: make(map[uint64]*domain.Market),
		teams:   teams,
	}
}

func (l *marketLifecycle) create(homeTeamID, awayTeamID uint64, startTime, endTime, now time.Time) (domain.Market, error) {
	if homeTeamID == awayTeamID {
		return domain.Market{}, domain.ErrInvalidArguments
	}
	if !startTime.After(now) {
		return domain.Market{}, domain.ErrInvalidArguments
	}
	if !endTime.After(startTime) {
		return domain.Market{}, domain.ErrInvalidArguments
	}
	if !l.teams.exists(homeTeamID) || !l.teams.exists(awayTeamID) {
		return domain.Market{}, domain.ErrTeamNotFound
	}

	l.nextID++
	m := &domain.Market{
		ID:         l.nextID,
		HomeTeamID: homeTeamID,
		AwayTeamID: awayTeamID,
		StartTime:  startTime,
		EndTime:    endTime,
		Status:     domain.MarketStatusOpen,
		Outcome:    domain.OutcomePending,
	}
	l.markets[m.ID] = m
	return *m, nil
}

// resolve finalizes the market and returns its snapshot together with the
// performance fee collected from the pool.
func (l *marketLifecycle) resolve(id uint64, outcome domain.Outcome, now time.Time) (domain.Market, int64, error) {
	m, ok := l.markets[id]
	if !ok {
		return domain.Market{}, 0, domain.ErrMarketNotFound
	}
	if m.Status != domain.MarketStatusOpen {
		return domain.Market{}, 0, domain.ErrMarketNotOpen
	}
	if now.Before(m.EndTime) {
		return domain.Market{}, 0, domain.ErrMatchNotEnded
	}
	if !outcome.Valid() {
		return domain.Market{}, 0, domain.ErrInvalidOutcome
	}

	m.Status = domain.MarketStatusResolved
	m.Outcome = outcome
	return *m, Fee(m.TotalStake), nil
}

func (l *marketLifecycle) cancel(id uint64) (domain.Market, error) {
	m, ok := l.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrMarketNotFound
	}
	if m.Status != domain.MarketStatusOpen {
		return domain.Market{}, domain.ErrMarketNotOpen
	}
	m.Status = domain.MarketStatusCancelled
	return *m, nil
}

// applyStakeDeltas adds per-outcome deltas to the aggregates. Only the stake
// ledger holds a reference to the lifecycle, wired at construction; it calls
// this strictly as the tail of a successful bet placement, after the open
// and cutoff gates have passed, so no status validation happens here.
func (l *marketLifecycle) applyStakeDeltas(id uint64, homeDelta, awayDelta, drawDelta int64) {
	m := l.markets[id]
	m.TotalHomeStake += homeDelta
	m.TotalAwayStake += awayDelta
	m.TotalDrawStake += drawDelta
	m.TotalStake += homeDelta + awayDelta + drawDelta
}

func (l *marketLifecycle) get(id uint64) (domain.Market, error) {
	m, ok := l.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrMarketNotFound
	}
	return *m, nil
}

func (l *marketLifecycle) count() uint64 { return l.nextID }

func (l *marketLifecycle) listOpen(opts domain.ListOpts) []domain.Market {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	out := make([]domain.Market, 0, limit)
	skipped := 0
	for id := uint64(1); id <= l.nextID && len(out) < limit; id++ {
		m, ok := l.markets[id]
		if !ok || m.Status != domain.MarketStatusOpen {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		out = append(out, *m)
	}
	return out
}
