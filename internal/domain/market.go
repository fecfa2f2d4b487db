package domain

import "time"

// MarketStatus represents the lifecycle state of a market.
type MarketStatus uint8

const (
	MarketStatusOpen MarketStatus = iota

	// MarketStatusLocked is reserved for a pre-resolution lock step. No
	// transition currently produces it; the betting cutoff is the only
	// lock-like gate. Kept so the status encoding stays forward compatible.
	MarketStatusLocked

	MarketStatusResolved
	MarketStatusCancelled
)

// String returns the lowercase wire name of the status.
func (s MarketStatus) String() string {
	switch s {
	case MarketStatusOpen:
		return "open"
	case MarketStatusLocked:
		return "locked"
	case MarketStatusResolved:
		return "resolved"
	case MarketStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseMarketStatus maps a wire name back to a MarketStatus. Unknown names
// map to MarketStatusOpen.
func ParseMarketStatus(s string) MarketStatus {
	switch s {
	case "locked":
		return MarketStatusLocked
	case "resolved":
		return MarketStatusResolved
	case "cancelled":
		return MarketStatusCancelled
	default:
		return MarketStatusOpen
	}
}

// Outcome identifies one of the three mutually exclusive match results.
// OutcomePending means the market has not been resolved yet and is never a
// valid betting target.
type Outcome uint8

const (
	OutcomePending Outcome = iota
	OutcomeHomeWin
	OutcomeAwayWin
	OutcomeDraw
)

// Valid reports whether o is a bettable (and resolvable) outcome.
func (o Outcome) Valid() bool {
	return o == OutcomeHomeWin || o == OutcomeAwayWin || o == OutcomeDraw
}

// String returns the lowercase wire name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeHomeWin:
		return "home_win"
	case OutcomeAwayWin:
		return "away_win"
	case OutcomeDraw:
		return "draw"
	default:
		return "unknown"
	}
}

// ParseOutcome maps a wire name back to an Outcome. Unknown names map to
// OutcomePending, which every validation path rejects.
func ParseOutcome(s string) Outcome {
	switch s {
	case "home_win", "home":
		return OutcomeHomeWin
	case "away_win", "away":
		return OutcomeAwayWin
	case "draw":
		return OutcomeDraw
	default:
		return OutcomePending
	}
}

// Market is a single bettable match between two registered teams. Stake
// aggregates are maintained by the engine; TotalStake always equals the sum
// of the three per-outcome totals.
type Market struct {
	ID         uint64       `json:"id"`
	HomeTeamID uint64       `json:"home_team_id"`
	AwayTeamID uint64       `json:"away_team_id"`
	StartTime  time.Time    `json:"start_time"`
	EndTime    time.Time    `json:"end_time"`
	Status     MarketStatus `json:"status"`
	Outcome    Outcome      `json:"outcome"`

	// Stake totals in base units of the staked asset.
	TotalHomeStake int64 `json:"total_home_stake"`
	TotalAwayStake int64 `json:"total_away_stake"`
	TotalDrawStake int64 `json:"total_draw_stake"`
	TotalStake     int64 `json:"total_stake"`
}

// OutcomeStake returns the aggregate stake recorded for one outcome.
func (m Market) OutcomeStake(o Outcome) int64 {
	switch o {
	case OutcomeHomeWin:
		return m.TotalHomeStake
	case OutcomeAwayWin:
		return m.TotalAwayStake
	case OutcomeDraw:
		return m.TotalDrawStake
	default:
		return 0
	}
}

// Odds holds fractional odds for the three outcomes, scaled so that 10000
// means 1.0x.
type Odds struct {
	Home uint64 `json:"home"`
	Away uint64 `json:"away"`
	Draw uint64 `json:"draw"`
}
