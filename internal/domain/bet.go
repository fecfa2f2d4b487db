package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Bet is a single wager by one bettor on one market. At most one bet exists
// per (market, bettor) pair; once placed, neither the amount nor the outcome
// can change. Claimed flips to true exactly once, at settlement.
type Bet struct {
	MarketID uint64         `json:"market_id"`
	Bettor   common.Address `json:"bettor"`
	Outcome  Outcome        `json:"outcome"`
	Amount   int64          `json:"amount"`
	Claimed  bool           `json:"claimed"`
	PlacedAt time.Time      `json:"placed_at"`
}
