package domain

import "time"

// RecordStream is the durable signal bus stream every settlement record is
// appended to. Consumers replay it with SignalBus.StreamRead.
const RecordStream = "stream:records"

// RecordType names one kind of observable settlement record.
type RecordType string

const (
	RecordTeamCreated     RecordType = "team_created"
	RecordTeamUpdated     RecordType = "team_updated"
	RecordMarketCreated   RecordType = "market_created"
	RecordBetPlaced       RecordType = "bet_placed"
	RecordMarketResolved  RecordType = "market_resolved"
	RecordMarketCancelled RecordType = "market_cancelled"
	RecordWinningsClaimed RecordType = "winnings_claimed"
	RecordFeeCollected    RecordType = "fee_collected"
	RecordFeesWithdrawn   RecordType = "fees_withdrawn"
	RecordAdminAdded      RecordType = "admin_added"
	RecordAdminRemoved    RecordType = "admin_removed"
)

// Record is one entry in the append-only settlement journal. Every committed
// state transition emits exactly one record (resolution additionally emits a
// fee-collection record). MarketID is zero for records that are not tied to
// a market (team and admin records).
type Record struct {
	ID       string         `json:"id"`
	Type     RecordType     `json:"type"`
	MarketID uint64         `json:"market_id,omitempty"`
	At       time.Time      `json:"at"`
	Detail   map[string]any `json:"detail,omitempty"`
}
