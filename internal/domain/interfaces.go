package domain

import (
	"context"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// TransferLedger is the external value-transfer collaborator for the staked
// asset. Both operations are atomic: either the full amount moves or neither
// side is debited or credited. A failure is surfaced to engine callers as
// ErrTransferFailed.
type TransferLedger interface {
	// TransferFrom draws amount from payer into the pool.
	TransferFrom(ctx context.Context, payer common.Address, amount int64) error
	// Transfer pays amount out of the pool to payee.
	Transfer(ctx context.Context, payee common.Address, amount int64) error
}

// CapabilityGate is the external authorization collaborator. The engine
// treats it as opaque: it only ever asks the two questions below.
type CapabilityGate interface {
	// IsAuthorizedOperator reports whether caller may create, resolve, and
	// cancel markets and manage the team registry.
	IsAuthorizedOperator(caller common.Address) bool
	// IsTopLevelAuthority reports whether caller may withdraw accumulated
	// fees and manage the operator set itself.
	IsTopLevelAuthority(caller common.Address) bool
}

// AdminManager mutates the operator set behind a CapabilityGate. Only the
// top-level authority may reach these through the engine.
type AdminManager interface {
	AddAdmin(admin common.Address) error
	RemoveAdmin(admin common.Address) error
}

// RecordSink receives settlement records after the engine has committed the
// corresponding state transition. Sink failures are an observability
// problem, not a settlement problem: implementations must not be able to
// roll the engine back, and the engine logs (rather than propagates) errors.
type RecordSink interface {
	Append(ctx context.Context, rec Record) error
}

// RecordStore persists the append-only settlement journal.
type RecordStore interface {
	Append(ctx context.Context, rec Record) error
	ListByMarket(ctx context.Context, marketID uint64, opts ListOpts) ([]Record, error)
	List(ctx context.Context, opts ListOpts) ([]Record, error)
	// ListBefore returns records created strictly before the cutoff, for
	// archival.
	ListBefore(ctx context.Context, before time.Time) ([]Record, error)
	// DeleteBefore removes records created strictly before the cutoff. Only
	// the archiver calls this, after a verified upload.
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// SnapshotStore persists final market snapshots taken at resolution or
// cancellation time.
type SnapshotStore interface {
	Put(ctx context.Context, m Market) error
	Get(ctx context.Context, marketID uint64) (Market, error)
	ListBefore(ctx context.Context, before time.Time) ([]Market, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// OddsCache caches computed odds per market with a short TTL. A miss is
// reported as ErrMarketNotFound wrapped by the implementation; callers fall
// through to the engine.
type OddsCache interface {
	Get(ctx context.Context, marketID uint64) (Odds, error)
	Set(ctx context.Context, marketID uint64, o Odds) error
	Invalidate(ctx context.Context, marketID uint64) error
}

// StreamMessage is a single entry read back from a durable record stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// Signal is a single message delivered to a subscriber. Channel is the
// concrete channel the message was published on, even when the subscription
// used a wildcard pattern.
type Signal struct {
	Channel string
	Payload []byte
}

// SignalBus publishes settlement records for live consumers and appends them
// to a durable, capped stream.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan Signal, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream, lastID string, count int) ([]StreamMessage, error)
}

// BlobWriter uploads archive objects to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver exports aged journal records and market snapshots to object
// storage.
type Archiver interface {
	ArchiveRecords(ctx context.Context, before time.Time) (int64, error)
	ArchiveSnapshots(ctx context.Context, before time.Time) (int64, error)
}
