package handler

import (
	"log/slog"
	"net/http"
	"time"

	"betpool/internal/domain"
	"betpool/internal/engine"
)

// MarketHandler serves market lifecycle endpoints.
type MarketHandler struct {
	engine    *engine.Engine
	odds      domain.OddsCache // optional; nil disables caching
	snapshots domain.SnapshotStore
	logger    *slog.Logger
}

// NewMarketHandler creates a MarketHandler. odds and snapshots may be nil,
// in which case odds are always computed live and no terminal snapshot is
// persisted.
func NewMarketHandler(eng *engine.Engine, odds domain.OddsCache, snapshots domain.SnapshotStore, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{engine: eng, odds: odds, snapshots: snapshots, logger: logger}
}

type createMarketRequest struct {
	HomeTeamID uint64    `json:"home_team_id"`
	AwayTeamID uint64    `json:"away_team_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// CreateMarket opens a new market between two registered teams. Operator only.
// POST /api/markets
func (h *MarketHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}
	var req createMarketRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m, err := h.engine.CreateMarket(r.Context(), caller, req.HomeTeamID, req.AwayTeamID, req.StartTime, req.EndTime)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

type resolveMarketRequest struct {
	Outcome string `json:"outcome"`
}

// ResolveMarket finalizes a market with the winning outcome. Operator only.
// POST /api/markets/{id}/resolve
func (h *MarketHandler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req resolveMarketRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m, err := h.engine.ResolveMarket(r.Context(), caller, id, domain.ParseOutcome(req.Outcome))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.finalize(r, m)
	writeJSON(w, http.StatusOK, m)
}

// CancelMarket voids an open market so bettors can reclaim their stakes.
// Operator only.
// POST /api/markets/{id}/cancel
func (h *MarketHandler) CancelMarket(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	m, err := h.engine.CancelMarket(r.Context(), caller, id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.finalize(r, m)
	writeJSON(w, http.StatusOK, m)
}

// finalize persists a terminal market snapshot and drops the cached odds.
// Both are best-effort; the settlement itself has already committed.
func (h *MarketHandler) finalize(r *http.Request, m domain.Market) {
	if h.snapshots != nil {
		if err := h.snapshots.Put(r.Context(), m); err != nil {
			h.logger.ErrorContext(r.Context(), "persist market snapshot failed",
				slog.Uint64("market_id", m.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	if h.odds != nil {
		if err := h.odds.Invalidate(r.Context(), m.ID); err != nil {
			h.logger.WarnContext(r.Context(), "invalidate odds cache failed",
				slog.Uint64("market_id", m.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// GetMarket returns a single market by its id.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	m, err := h.engine.GetMarket(id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GetSnapshot returns the persisted terminal snapshot of a market. Only
// resolved and cancelled markets have one; 404 otherwise.
// GET /api/markets/{id}/snapshot
func (h *MarketHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshots not available")
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	m, err := h.snapshots.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GetOdds returns the current odds for a market, served from the cache when
// fresh and recomputed from live aggregates otherwise.
// GET /api/markets/{id}/odds
func (h *MarketHandler) GetOdds(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if h.odds != nil {
		if o, err := h.odds.Get(r.Context(), id); err == nil {
			writeJSON(w, http.StatusOK, o)
			return
		}
	}

	o, err := h.engine.GetOdds(id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if h.odds != nil {
		if err := h.odds.Set(r.Context(), id, o); err != nil {
			h.logger.WarnContext(r.Context(), "set odds cache failed",
				slog.Uint64("market_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	writeJSON(w, http.StatusOK, o)
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Total   uint64          `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ListMarkets returns open markets with pagination. Total counts every
// market ever created, open or not.
// GET /api/markets?limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	markets := h.engine.ListOpenMarkets(opts)
	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: markets,
		Total:   h.engine.GetTotalMarkets(),
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}
