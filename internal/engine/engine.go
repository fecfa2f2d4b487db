package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"betpool/internal/domain"
)

// Options configures a new Engine. Gate and Transfer are required; Clock
// defaults to the system clock, Sink and Admins may be nil (records are then
// only logged, admin management is unavailable).
type Options struct {
	Gate     domain.CapabilityGate
	Transfer domain.TransferLedger
	Sink     domain.RecordSink
	Admins   domain.AdminManager
	Clock    Clock
	Logger   *slog.Logger
}

// Engine is the settlement facade. Every public operation runs under one
// mutex, giving the one-transaction-at-a-time execution model the settlement
// rules assume; no operation is observable mid-way.
type Engine struct {
	mu sync.Mutex

	clock    Clock
	gate     domain.CapabilityGate
	transfer domain.TransferLedger
	sink     domain.RecordSink
	admins   domain.AdminManager
	logger   *slog.Logger

	teams   *teamRegistry
	markets *marketLifecycle
	ledger  *stakeLedger
	fees    *feeAccumulator
}

// New creates an Engine with empty registry, markets, and ledger.
func New(opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	teams := newTeamRegistry()
	markets := newMarketLifecycle(teams)
	return &Engine{
		clock:    clock,
		gate:     opts.Gate,
		transfer: opts.Transfer,
		sink:     opts.Sink,
		admins:   opts.Admins,
		logger:   logger.With(slog.String("component", "engine")),
		teams:    teams,
		markets:  markets,
		ledger:   newStakeLedger(markets),
		fees:     &feeAccumulator{},
	}
}

// ConfigureFeeTransfer sets the outbound transfer path for fee withdrawal.
// It can succeed at most once; a second call fails with ErrAlreadyConfigured.
func (e *Engine) ConfigureFeeTransfer(transfer domain.TransferLedger) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fees.configure(transfer)
}

// emit appends a committed record to the sink. Emission happens inside the
// operation lock so the journal order matches commit order. Sink failures
// are logged, never propagated: the transition is already committed.
func (e *Engine) emit(ctx context.Context, typ domain.RecordType, marketID uint64, detail map[string]any) {
	rec := domain.Record{
		ID:       uuid.NewString(),
		Type:     typ,
		MarketID: marketID,
		At:       e.clock.Now().UTC(),
		Detail:   detail,
	}
	if e.sink == nil {
		return
	}
	if err := e.sink.Append(ctx, rec); err != nil {
		e.logger.ErrorContext(ctx, "record sink append failed",
			slog.String("record_type", string(typ)),
			slog.Uint64("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}
}

// ---------------------------------------------------------------------------
// Team registry
// ---------------------------------------------------------------------------

// CreateTeam registers a new team. Operator only.
func (e *Engine) CreateTeam(ctx context.Context, caller common.Address, name, metadata string) (domain.Team, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gate.IsAuthorizedOperator(caller) {
		return domain.Team{}, domain.ErrUnauthorized
	}
	t, err := e.teams.create(name, metadata, e.clock.Now())
	if err != nil {
		return domain.Team{}, err
	}
	e.emit(ctx, domain.RecordTeamCreated, 0, map[string]any{
		"team_id": t.ID,
		"name":    t.Name,
	})
	return t, nil
}

// CreateBulkTeams registers up to 50 teams in one call. The parallel name
// and metadata slices must match; the whole batch is validated before any
// team is created. Operator only.
func (e *Engine) CreateBulkTeams(ctx context.Context, caller common.Address, names, metadatas []string) ([]domain.Team, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gate.IsAuthorizedOperator(caller) {
		return nil, domain.ErrUnauthorized
	}
	teams, err := e.teams.createBulk(names, metadatas, e.clock.Now())
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		e.emit(ctx, domain.RecordTeamCreated, 0, map[string]any{
			"team_id": t.ID,
			"name":    t.Name,
		})
	}
	return teams, nil
}

// UpdateTeam renames a team or replaces its metadata. Operator only.
func (e *Engine) UpdateTeam(ctx context.Context, caller common.Address, id uint64, name, metadata string) (domain.Team, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gate.IsAuthorizedOperator(caller) {
		return domain.Team{}, domain.ErrUnauthorized
	}
	t, err := e.teams.update(id, name, metadata, e.clock.Now())
	if err != nil {
		return domain.Team{}, err
	}
	e.emit(ctx, domain.RecordTeamUpdated, 0, map[string]any{
		"team_id": t.ID,
		"name":    t.Name,
	})
	return t, nil
}

// GetTeam returns a team by id.
func (e *Engine) GetTeam(id uint64) (domain.Team, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.teams.get(id)
}

// TeamExists reports whether a team id is registered.
func (e *Engine) TeamExists(id uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.teams.exists(id)
}

// GetTotalTeams returns the number of teams ever created.
func (e *Engine) GetTotalTeams() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.teams.count()
}

// ListTeams returns teams with offset pagination.
func (e *Engine) ListTeams(opts domain.ListOpts) []domain.Team {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.teams.list(opts)
}

// ---------------------------------------------------------------------------
// Market lifecycle
// ---------------------------------------------------------------------------

// CreateMarket opens a new market between two distinct registered teams.
// startTime must be strictly in the future and endTime after startTime.
// Operator only.
func (e *Engine) CreateMarket(ctx context.Context, caller common.Address, homeTeamID, awayTeamID uint64, startTime, endTime time.Time) (domain.Market, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gate.IsAuthorizedOperator(caller) {
		return domain.Market{}, domain.ErrUnauthorized
	}
	m, err := e.markets.create(homeTeamID, awayTeamID, startTime, endTime, e.clock.Now())
	if err != nil {
		return domain.Market{}, err
	}
	e.emit(ctx, domain.RecordMarketCreated, m.ID, map[string]any{
		"home_team_id": m.HomeTeamID,
		"away_team_id": m.AwayTeamID,
		"start_time":   m.StartTime.UTC(),
		"end_time":     m.EndTime.UTC(),
	})
	return m, nil
}

// ResolveMarket finalizes an open market with the winning outcome once the
// match has ended, and collects the performance fee from the pool. The
// transition is terminal. Operator only.
func (e *Engine) ResolveMarket(ctx context.Context, caller common.Address, marketID uint64, outcome domain.Outcome) (domain.Market, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gate.IsAuthorizedOperator(caller) {
		return domain.Market{}, domain.ErrUnauthorized
	}
	m, fee, err := e.markets.resolve(marketID, outcome, e.clock.Now())
	if err != nil {
		return domain.Market{}, err
	}
	e.fees.accumulate(fee)

	e.emit(ctx, domain.RecordMarketResolved, m.ID, map[string]any{
		"outcome":     m.Outcome.String(),
		"total_stake": m.TotalStake,
	})
	e.emit(ctx, domain.RecordFeeCollected, m.ID, map[string]any{
		"fee":              fee,
		"accumulated_fees": e.fees.accumulated(),
	})
	e.logger.InfoContext(ctx, "market resolved",
		slog.Uint64("market_id", m.ID),
		slog.String("outcome", m.Outcome.String()),
		slog.Int64("total_stake", m.TotalStake),
		slog.Int64("fee", fee),
	)
	return m, nil
}

// CancelMarket voids an open market. Bettors reclaim their stakes in full
// and no fee is collected. The transition is terminal. Operator only.
func (e *Engine) CancelMarket(ctx context.Context, caller common.Address, marketID uint64) (domain.Market, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gate.IsAuthorizedOperator(caller) {
		return domain.Market{}, domain.ErrUnauthorized
	}
	m, err := e.markets.cancel(marketID)
	if err != nil {
		return domain.Market{}, err
	}
	e.emit(ctx, domain.RecordMarketCancelled, m.ID, map[string]any{
		"total_stake": m.TotalStake,
	})
	return m, nil
}

// GetMarket returns a market snapshot by id.
func (e *Engine) GetMarket(id uint64) (domain.Market, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.markets.get(id)
}

// GetOdds computes live odds for a market from its aggregate snapshot.
func (e *Engine) GetOdds(id uint64) (domain.Odds, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.markets.get(id)
	if err != nil {
		return domain.Odds{}, err
	}
	return CalculateOdds(m.TotalStake, m.TotalHomeStake, m.TotalAwayStake, m.TotalDrawStake), nil
}

// GetTotalMarkets returns the number of markets ever created.
func (e *Engine) GetTotalMarkets() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.markets.count()
}

// ListOpenMarkets returns open markets with offset pagination.
func (e *Engine) ListOpenMarkets(opts domain.ListOpts) []domain.Market {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.markets.listOpen(opts)
}

// ---------------------------------------------------------------------------
// Stake ledger
// ---------------------------------------------------------------------------

// PlaceBet wagers amount on one outcome of an open market, before the
// betting cutoff. The stake is drawn from the bettor through the transfer
// collaborator before any state is recorded; a transfer failure leaves the
// ledger untouched. Open to any caller.
func (e *Engine) PlaceBet(ctx context.Context, bettor common.Address, marketID uint64, outcome domain.Outcome, amount int64) (domain.Bet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	bet, err := e.ledger.placeBet(ctx, bettor, marketID, outcome, amount, e.clock.Now(), e.transfer)
	if err != nil {
		return domain.Bet{}, err
	}
	e.emit(ctx, domain.RecordBetPlaced, marketID, map[string]any{
		"bettor":  bet.Bettor.Hex(),
		"outcome": bet.Outcome.String(),
		"amount":  bet.Amount,
	})
	e.logger.DebugContext(ctx, "bet placed",
		slog.Uint64("market_id", marketID),
		slog.Int64("amount", bet.Amount),
	)
	return bet, nil
}

// ClaimWinnings settles the caller's bet on a finalized market: the full
// stake back on a cancelled market, the parimutuel payout on a won
// resolution. Succeeds at most once per (market, bettor).
func (e *Engine) ClaimWinnings(ctx context.Context, bettor common.Address, marketID uint64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	payout, err := e.ledger.claim(ctx, bettor, marketID, e.transfer)
	if err != nil {
		return 0, err
	}
	e.emit(ctx, domain.RecordWinningsClaimed, marketID, map[string]any{
		"bettor": bettor.Hex(),
		"payout": payout,
	})
	return payout, nil
}

// GetUserBet returns the bet a bettor holds on a market.
func (e *Engine) GetUserBet(marketID uint64, bettor common.Address) (domain.Bet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.getBet(marketID, bettor)
}

// HasClaimed reports whether a bettor has settled their bet on a market.
func (e *Engine) HasClaimed(marketID uint64, bettor common.Address) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.hasClaimed(marketID, bettor)
}

// CalculatePotentialWinnings projects the bettor's payout from the live
// aggregate snapshot without mutating anything.
func (e *Engine) CalculatePotentialWinnings(marketID uint64, bettor common.Address) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.potentialWinnings(marketID, bettor)
}

// ---------------------------------------------------------------------------
// Fees
// ---------------------------------------------------------------------------

// GetAccumulatedFees returns the current fee pool in base units.
func (e *Engine) GetAccumulatedFees() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fees.accumulated()
}

// WithdrawFees drains the fee pool to recipient. Top-level authority only.
func (e *Engine) WithdrawFees(ctx context.Context, caller, recipient common.Address) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gate.IsTopLevelAuthority(caller) {
		return 0, domain.ErrUnauthorized
	}
	amount, err := e.fees.withdraw(ctx, recipient)
	if err != nil {
		return 0, err
	}
	e.emit(ctx, domain.RecordFeesWithdrawn, 0, map[string]any{
		"recipient": recipient.Hex(),
		"amount":    amount,
	})
	return amount, nil
}

// ---------------------------------------------------------------------------
// Admin management
// ---------------------------------------------------------------------------

// AddAdmin grants operator capability to an address. Top-level authority
// only.
func (e *Engine) AddAdmin(ctx context.Context, caller, admin common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gate.IsTopLevelAuthority(caller) {
		return domain.ErrUnauthorized
	}
	if e.admins == nil {
		return domain.ErrNotConfigured
	}
	if err := e.admins.AddAdmin(admin); err != nil {
		return err
	}
	e.emit(ctx, domain.RecordAdminAdded, 0, map[string]any{"admin": admin.Hex()})
	return nil
}

// RemoveAdmin revokes operator capability from an address. Top-level
// authority only.
func (e *Engine) RemoveAdmin(ctx context.Context, caller, admin common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gate.IsTopLevelAuthority(caller) {
		return domain.ErrUnauthorized
	}
	if e.admins == nil {
		return domain.ErrNotConfigured
	}
	if err := e.admins.RemoveAdmin(admin); err != nil {
		return err
	}
	e.emit(ctx, domain.RecordAdminRemoved, 0, map[string]any{"admin": admin.Hex()})
	return nil
}
