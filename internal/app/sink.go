package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"betpool/internal/domain"
)

// recordFanout implements domain.RecordSink by writing each record to the
// Postgres journal and fanning it out over the signal bus: the "records"
// channel for firehose consumers, a per-market channel, and a capped durable
// stream. All targets are attempted even when one fails; the engine treats
// the joined error as an observability problem and keeps going.
type recordFanout struct {
	store domain.RecordStore
	bus   domain.SignalBus
}

// newRecordFanout builds the sink. Either target may be nil and is then
// skipped.
func newRecordFanout(store domain.RecordStore, bus domain.SignalBus) *recordFanout {
	return &recordFanout{store: store, bus: bus}
}

// Append writes rec to the journal and publishes it on the bus.
func (f *recordFanout) Append(ctx context.Context, rec domain.Record) error {
	var errs []error

	if f.store != nil {
		if err := f.store.Append(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("journal: %w", err))
		}
	}

	if f.bus != nil {
		payload, err := json.Marshal(rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("marshal record: %w", err))
			return errors.Join(errs...)
		}

		if err := f.bus.Publish(ctx, "records", payload); err != nil {
			errs = append(errs, err)
		}
		if rec.MarketID != 0 {
			ch := "records:market:" + strconv.FormatUint(rec.MarketID, 10)
			if err := f.bus.Publish(ctx, ch, payload); err != nil {
				errs = append(errs, err)
			}
		}
		if err := f.bus.StreamAppend(ctx, domain.RecordStream, payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Compile-time interface check.
var _ domain.RecordSink = (*recordFanout)(nil)
