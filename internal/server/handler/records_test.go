package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"betpool/internal/domain"
)

type stubBus struct {
	messages   []domain.StreamMessage
	gotStream  string
	gotLastID  string
	gotCount   int
	failRead bool
}

func (b *stubBus) Publish(context.Context, string, []byte) error { return nil }

func (b *stubBus) Subscribe(context.Context, string) (<-chan domain.Signal, error) {
	return nil, nil
}

func (b *stubBus) StreamAppend(context.Context, string, []byte) error { return nil }

func (b *stubBus) StreamRead(_ context.Context, stream, lastID string, count int) ([]domain.StreamMessage, error) {
	b.gotStream = stream
	b.gotLastID = lastID
	b.gotCount = count
	if b.failRead {
		return nil, io.ErrUnexpectedEOF
	}
	return b.messages, nil
}

type stubRecordStore struct{}

func (stubRecordStore) Append(context.Context, domain.Record) error { return nil }

func (stubRecordStore) ListByMarket(context.Context, uint64, domain.ListOpts) ([]domain.Record, error) {
	return nil, nil
}

func (stubRecordStore) List(context.Context, domain.ListOpts) ([]domain.Record, error) {
	return nil, nil
}

func (stubRecordStore) ListBefore(context.Context, time.Time) ([]domain.Record, error) {
	return nil, nil
}

func (stubRecordStore) DeleteBefore(context.Context, time.Time) (int64, error) { return 0, nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStreamRecordsReplay(t *testing.T) {
	bus := &stubBus{messages: []domain.StreamMessage{
		{ID: "1-0", Payload: []byte(`{"type":"bet_placed"}`)},
		{ID: "2-0", Payload: []byte(`{"type":"market_resolved"}`)},
	}}
	h := NewRecordsHandler(stubRecordStore{}, bus, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/records/stream?after=0&count=50", nil)
	rr := httptest.NewRecorder()
	h.StreamRecords(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body)
	}
	if bus.gotStream != domain.RecordStream {
		t.Errorf("stream = %q, want %q", bus.gotStream, domain.RecordStream)
	}
	if bus.gotLastID != "0" || bus.gotCount != 50 {
		t.Errorf("read after=%q count=%d, want after=0 count=50", bus.gotLastID, bus.gotCount)
	}

	var resp struct {
		Entries []struct {
			ID     string          `json:"id"`
			Record json.RawMessage `json:"record"`
		} `json:"entries"`
		Next string `json:"next"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(resp.Entries))
	}
	if resp.Entries[0].ID != "1-0" {
		t.Errorf("first entry id = %q, want 1-0", resp.Entries[0].ID)
	}
	if resp.Next != "2-0" {
		t.Errorf("next cursor = %q, want 2-0", resp.Next)
	}
}

func TestStreamRecordsDefaultsAndCaps(t *testing.T) {
	bus := &stubBus{}
	h := NewRecordsHandler(stubRecordStore{}, bus, testLogger())

	rr := httptest.NewRecorder()
	h.StreamRecords(rr, httptest.NewRequest(http.MethodGet, "/api/records/stream", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if bus.gotLastID != "0" || bus.gotCount != 100 {
		t.Errorf("defaults after=%q count=%d, want after=0 count=100", bus.gotLastID, bus.gotCount)
	}

	rr = httptest.NewRecorder()
	h.StreamRecords(rr, httptest.NewRequest(http.MethodGet, "/api/records/stream?count=5000", nil))
	if bus.gotCount != 1000 {
		t.Errorf("count = %d, want capped at 1000", bus.gotCount)
	}

	rr = httptest.NewRecorder()
	h.StreamRecords(rr, httptest.NewRequest(http.MethodGet, "/api/records/stream?count=abc", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status for bad count = %d, want 400", rr.Code)
	}
}

func TestStreamRecordsWithoutBus(t *testing.T) {
	h := NewRecordsHandler(stubRecordStore{}, nil, testLogger())
	rr := httptest.NewRecorder()
	h.StreamRecords(rr, httptest.NewRequest(http.MethodGet, "/api/records/stream", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestStreamRecordsReadFailure(t *testing.T) {
	h := NewRecordsHandler(stubRecordStore{}, &stubBus{failRead: true}, testLogger())
	rr := httptest.NewRecorder()
	h.StreamRecords(rr, httptest.NewRequest(http.MethodGet, "/api/records/stream", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}
