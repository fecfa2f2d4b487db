package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"betpool/internal/domain"
)

const (
	// BettingCutoff is the lockout window before a match's end time. A bet
	// at exactly endTime-BettingCutoff is already closed.
	BettingCutoff = 10 * time.Minute

	// MinBet is one whole unit of the staked asset in base units
	// (6-decimal stable token).
	MinBet int64 = 1_000_000
)

type betKey struct {
	marketID uint64
	bettor   common.Address
}

// stakeLedger records individual bets and settles claims. It is the only
// component allowed to mutate market stake aggregates, through the lifecycle
// reference it is handed at construction. All access is serialized by the
// owning Engine.
type stakeLedger struct {
	bets    map[betKey]*domain.Bet
	markets *marketLifecycle
}

func newStakeLedger(markets *marketLifecycle) *stakeLedger {
	return &stakeLedger{
		bets:    make(map[betKey]*domain.Bet),
		markets: markets,
	}
}

// placeBet validates the wager, draws the stake from the bettor, and only
// then records the bet and reports the stake delta to the lifecycle. A
// transfer failure therefore leaves no trace in the ledger or aggregates.
func (s *stakeLedger) placeBet(ctx context.Context, bettor common.Address, marketID uint64, outcome domain.Outcome, amount int64, now time.Time, transfer domain.TransferLedger) (domain.Bet, error) {
	m, err := s.markets.get(marketID)
	if err != nil {
		return domain.Bet{}, err
	}
	if m.Status != domain.MarketStatusOpen {
		return domain.Bet{}, domain.ErrMarketNotOpen
	}
	if !now.Before(m.EndTime.Add(-BettingCutoff)) {
		return domain.Bet{}, domain.ErrBettingClosed
	}
	if amount < MinBet {
		return domain.Bet{}, domain.ErrBetTooLow
	}
	if !outcome.Valid() {
		return domain.Bet{}, domain.ErrInvalidOutcome
	}
	key := betKey{marketID: marketID, bettor: bettor}
	if _, ok := s.bets[key]; ok {
		return domain.Bet{}, domain.ErrDuplicateBet
	}

	if err := transfer.TransferFrom(ctx, bettor, amount); err != nil {
		return domain.Bet{}, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	bet := &domain.Bet{
		MarketID: marketID,
		Bettor:   bettor,
		Outcome:  outcome,
		Amount:   amount,
		PlacedAt: now,
	}
	s.bets[key] = bet

	var homeDelta, awayDelta, drawDelta int64
	switch outcome {
	case domain.OutcomeHomeWin:
		homeDelta = amount
	case domain.OutcomeAwayWin:
		awayDelta = amount
	case domain.OutcomeDraw:
		drawDelta = amount
	}
	s.markets.applyStakeDeltas(marketID, homeDelta, awayDelta, drawDelta)

	return *bet, nil
}

// claim settles a bet exactly once. The claimed flag is set strictly before
// the external transfer so a replayed claim during the transfer window reads
// the settled state; on transfer failure the flag is restored and the whole
// operation rolls back.
func (s *stakeLedger) claim(ctx context.Context, bettor common.Address, marketID uint64, transfer domain.TransferLedger) (int64, error) {
	m, err := s.markets.get(marketID)
	if err != nil {
		return 0, err
	}
	bet, ok := s.bets[betKey{marketID: marketID, bettor: bettor}]
	if !ok {
		return 0, domain.ErrNoBet
	}
	if bet.Claimed {
		return 0, domain.ErrAlreadyClaimed
	}

	var payout int64
	switch m.Status {
	case domain.MarketStatusCancelled:
		payout = bet.Amount
	case domain.MarketStatusResolved:
		if bet.Outcome == m.Outcome {
			payout = CalculateWinnings(m.TotalStake, m.OutcomeStake(m.Outcome), bet.Amount)
		}
	default:
		return 0, domain.ErrMarketNotFinalized
	}
	if payout == 0 {
		// Losing bet; claimed state stays untouched.
		return 0, domain.ErrNothingToClaim
	}

	bet.Claimed = true
	if err := transfer.Transfer(ctx, bettor, payout); err != nil {
		bet.Claimed = false
		return 0, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}
	return payout, nil
}

func (s *stakeLedger) getBet(marketID uint64, bettor common.Address) (domain.Bet, error) {
	if _, err := s.markets.get(marketID); err != nil {
		return domain.Bet{}, err
	}
	bet, ok := s.bets[betKey{marketID: marketID, bettor: bettor}]
	if !ok {
		return domain.Bet{}, domain.ErrNoBet
	}
	return *bet, nil
}

func (s *stakeLedger) hasClaimed(marketID uint64, bettor common.Address) (bool, error) {
	bet, err := s.getBet(marketID, bettor)
	if err != nil {
		return false, err
	}
	return bet.Claimed, nil
}

// potentialWinnings projects the payout a bettor would receive if their
// chosen outcome wins (or has won), using the live aggregate snapshot. For a
// cancelled market the projection is the refund.
func (s *stakeLedger) potentialWinnings(marketID uint64, bettor common.Address) (int64, error) {
	m, err := s.markets.get(marketID)
	if err != nil {
		return 0, err
	}
	bet, err := s.getBet(marketID, bettor)
	if err != nil {
		return 0, err
	}
	switch m.Status {
	case domain.MarketStatusCancelled:
		return bet.Amount, nil
	case domain.MarketStatusResolved:
		if bet.Outcome != m.Outcome {
			return 0, nil
		}
	}
	return CalculateWinnings(m.TotalStake, m.OutcomeStake(bet.Outcome), bet.Amount), nil
}
