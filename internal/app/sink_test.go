package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"betpool/internal/domain"
)

type fakeJournal struct {
	appended []domain.Record
	fail     bool
}

func (j *fakeJournal) Append(_ context.Context, rec domain.Record) error {
	if j.fail {
		return errors.New("journal down")
	}
	j.appended = append(j.appended, rec)
	return nil
}

func (j *fakeJournal) ListByMarket(context.Context, uint64, domain.ListOpts) ([]domain.Record, error) {
	return nil, nil
}

func (j *fakeJournal) List(context.Context, domain.ListOpts) ([]domain.Record, error) {
	return nil, nil
}

func (j *fakeJournal) ListBefore(context.Context, time.Time) ([]domain.Record, error) {
	return nil, nil
}

func (j *fakeJournal) DeleteBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type published struct {
	channel string
	payload []byte
}

type fakeBus struct {
	published []published
	streamed  []published
	failPub   bool
}

func (b *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	if b.failPub {
		return errors.New("bus down")
	}
	b.published = append(b.published, published{channel, payload})
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string) (<-chan domain.Signal, error) {
	return nil, nil
}

func (b *fakeBus) StreamAppend(_ context.Context, stream string, payload []byte) error {
	b.streamed = append(b.streamed, published{stream, payload})
	return nil
}

func (b *fakeBus) StreamRead(context.Context, string, string, int) ([]domain.StreamMessage, error) {
	return nil, nil
}

func TestRecordFanout(t *testing.T) {
	ctx := context.Background()
	rec := domain.Record{
		ID:       "r1",
		Type:     domain.RecordBetPlaced,
		MarketID: 7,
		At:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("fans out to journal, channels, and stream", func(t *testing.T) {
		journal := &fakeJournal{}
		bus := &fakeBus{}
		sink := newRecordFanout(journal, bus)

		if err := sink.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if len(journal.appended) != 1 {
			t.Errorf("journal rows = %d, want 1", len(journal.appended))
		}
		channels := make([]string, len(bus.published))
		for i, p := range bus.published {
			channels[i] = p.channel
		}
		if len(channels) != 2 || channels[0] != "records" || channels[1] != "records:market:7" {
			t.Errorf("channels = %v, want [records records:market:7]", channels)
		}
		if len(bus.streamed) != 1 || bus.streamed[0].channel != domain.RecordStream {
			t.Errorf("streamed = %v, want one append to %s", bus.streamed, domain.RecordStream)
		}
	})

	t.Run("market-less records skip the per-market channel", func(t *testing.T) {
		bus := &fakeBus{}
		sink := newRecordFanout(nil, bus)

		global := rec
		global.MarketID = 0
		if err := sink.Append(ctx, global); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if len(bus.published) != 1 || bus.published[0].channel != "records" {
			t.Errorf("published = %v, want only the firehose channel", bus.published)
		}
	})

	t.Run("a failed target does not stop the others", func(t *testing.T) {
		journal := &fakeJournal{fail: true}
		bus := &fakeBus{}
		sink := newRecordFanout(journal, bus)

		if err := sink.Append(ctx, rec); err == nil {
			t.Fatal("Append succeeded, want joined error")
		}
		if len(bus.streamed) != 1 {
			t.Errorf("stream appends = %d, want 1 despite journal failure", len(bus.streamed))
		}

		bus = &fakeBus{failPub: true}
		sink = newRecordFanout(&fakeJournal{}, bus)
		if err := sink.Append(ctx, rec); err == nil {
			t.Fatal("Append succeeded, want joined error")
		}
		if len(bus.streamed) != 1 {
			t.Errorf("stream appends = %d, want 1 despite publish failure", len(bus.streamed))
		}
	})
}
