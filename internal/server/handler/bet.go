package handler

import (
	"log/slog"
	"net/http"

	"betpool/internal/domain"
	"betpool/internal/engine"
)

// BetHandler serves stake ledger endpoints.
type BetHandler struct {
	engine *engine.Engine
	odds   domain.OddsCache // optional; nil disables invalidation
	logger *slog.Logger
}

// NewBetHandler creates a BetHandler. odds may be nil.
func NewBetHandler(eng *engine.Engine, odds domain.OddsCache, logger *slog.Logger) *BetHandler {
	return &BetHandler{engine: eng, odds: odds, logger: logger}
}

type placeBetRequest struct {
	Outcome string `json:"outcome"`
	Amount  int64  `json:"amount"`
}

// PlaceBet wagers on one outcome of an open market. Open to any caller with
// sufficient balance.
// POST /api/markets/{id}/bets
func (h *BetHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req placeBetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	bet, err := h.engine.PlaceBet(r.Context(), caller, id, domain.ParseOutcome(req.Outcome), req.Amount)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	// Stake aggregates moved; the cached odds are stale.
	if h.odds != nil {
		if err := h.odds.Invalidate(r.Context(), id); err != nil {
			h.logger.WarnContext(r.Context(), "invalidate odds cache failed",
				slog.Uint64("market_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	writeJSON(w, http.StatusCreated, bet)
}

// ClaimWinnings settles the caller's bet on a finalized market.
// POST /api/markets/{id}/claim
func (h *BetHandler) ClaimWinnings(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	payout, err := h.engine.ClaimWinnings(r.Context(), caller, id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"market_id": id,
		"payout":    payout,
	})
}

// GetBet returns the bet an address holds on a market.
// GET /api/markets/{id}/bets/{address}
func (h *BetHandler) GetBet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	bettor, ok := addressParam(w, r, "address")
	if !ok {
		return
	}

	bet, err := h.engine.GetUserBet(id, bettor)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, bet)
}

// GetPotentialWinnings projects the payout an address would receive, from
// live aggregates on an open market or the final figures on a settled one.
// GET /api/markets/{id}/bets/{address}/potential
func (h *BetHandler) GetPotentialWinnings(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	bettor, ok := addressParam(w, r, "address")
	if !ok {
		return
	}

	payout, err := h.engine.CalculatePotentialWinnings(id, bettor)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	claimed, err := h.engine.HasClaimed(id, bettor)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"market_id": id,
		"bettor":    bettor.Hex(),
		"potential": payout,
		"claimed":   claimed,
	})
}
