package handler

import (
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"betpool/internal/engine"
)

// FeesHandler serves fee pool endpoints.
type FeesHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewFeesHandler creates a FeesHandler with the given engine and logger.
func NewFeesHandler(eng *engine.Engine, logger *slog.Logger) *FeesHandler {
	return &FeesHandler{engine: eng, logger: logger}
}

// GetAccumulatedFees returns the current fee pool in base units.
// GET /api/fees
func (h *FeesHandler) GetAccumulatedFees(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"accumulated_fees": h.engine.GetAccumulatedFees(),
	})
}

type withdrawFeesRequest struct {
	Recipient string `json:"recipient"`
}

// WithdrawFees drains the fee pool to a recipient address. Top-level
// authority only.
// POST /api/fees/withdraw
func (h *FeesHandler) WithdrawFees(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}
	var req withdrawFeesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !common.IsHexAddress(req.Recipient) {
		writeError(w, http.StatusBadRequest, "invalid recipient address")
		return
	}

	amount, err := h.engine.WithdrawFees(r.Context(), caller, common.HexToAddress(req.Recipient))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"recipient": req.Recipient,
		"amount":    amount,
	})
}
