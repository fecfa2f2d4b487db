package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"betpool/internal/domain"
)

// RecordsHandler serves the settlement journal query endpoints.
type RecordsHandler struct {
	store  domain.RecordStore
	bus    domain.SignalBus
	logger *slog.Logger
}

// NewRecordsHandler creates a RecordsHandler backed by the journal store and
// the signal bus. bus may be nil, in which case stream replay returns 503.
func NewRecordsHandler(store domain.RecordStore, bus domain.SignalBus, logger *slog.Logger) *RecordsHandler {
	return &RecordsHandler{store: store, bus: bus, logger: logger}
}

// listRecordsResponse wraps the list endpoint output with metadata.
type listRecordsResponse struct {
	Records []domain.Record `json:"records"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ListRecords returns journal records across all markets, newest first.
// Optional since/until query parameters accept RFC 3339 timestamps.
// GET /api/records?limit=50&offset=0&since=...&until=...
func (h *RecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	if !parseTimeRange(w, r, &opts) {
		return
	}

	recs, err := h.store.List(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list records failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	writeJSON(w, http.StatusOK, listRecordsResponse{
		Records: recs,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// ListMarketRecords returns the journal for one market, oldest first.
// GET /api/markets/{id}/records
func (h *RecordsHandler) ListMarketRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	opts := parseListOpts(r)
	if !parseTimeRange(w, r, &opts) {
		return
	}

	recs, err := h.store.ListByMarket(r.Context(), id, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list market records failed",
			slog.Uint64("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	writeJSON(w, http.StatusOK, listRecordsResponse{
		Records: recs,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// streamEntry is one replayed record together with its stream cursor.
type streamEntry struct {
	ID     string          `json:"id"`
	Record json.RawMessage `json:"record"`
}

// streamRecordsResponse wraps the replay endpoint output. Next is the cursor
// to pass as after on the following request; it is empty when the page was
// empty.
type streamRecordsResponse struct {
	Entries []streamEntry `json:"entries"`
	Next    string        `json:"next,omitempty"`
}

// StreamRecords replays the durable record stream. after is the last stream
// ID the caller has seen ("0" replays from the beginning); count caps the
// page size at 1000.
// GET /api/records/stream?after=0&count=100
func (h *RecordsHandler) StreamRecords(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil {
		writeError(w, http.StatusServiceUnavailable, "record stream not available")
		return
	}

	q := r.URL.Query()
	after := q.Get("after")
	if after == "" {
		after = "0"
	}
	count := 100
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid count")
			return
		}
		count = min(n, 1000)
	}

	msgs, err := h.bus.StreamRead(r.Context(), domain.RecordStream, after, count)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "stream replay failed",
			slog.String("after", after),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read record stream")
		return
	}

	resp := streamRecordsResponse{Entries: make([]streamEntry, 0, len(msgs))}
	for _, m := range msgs {
		resp.Entries = append(resp.Entries, streamEntry{ID: m.ID, Record: m.Payload})
	}
	if len(msgs) > 0 {
		resp.Next = msgs[len(msgs)-1].ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseTimeRange fills opts.Since/Until from the query string. It writes a
// 400 response and returns false on malformed timestamps.
func parseTimeRange(w http.ResponseWriter, r *http.Request, opts *domain.ListOpts) bool {
	q := r.URL.Query()
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since timestamp")
			return false
		}
		opts.Since = &t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid until timestamp")
			return false
		}
		opts.Until = &t
	}
	return true
}
