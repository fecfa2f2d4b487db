package handler

import (
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"betpool/internal/engine"
)

// AdminHandler serves operator set management endpoints.
type AdminHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler with the given engine and logger.
func NewAdminHandler(eng *engine.Engine, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{engine: eng, logger: logger}
}

type addAdminRequest struct {
	Admin string `json:"admin"`
}

// AddAdmin grants operator capability to an address. Top-level authority
// only.
// POST /api/admins
func (h *AdminHandler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}
	var req addAdminRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !common.IsHexAddress(req.Admin) {
		writeError(w, http.StatusBadRequest, "invalid admin address")
		return
	}

	if err := h.engine.AddAdmin(r.Context(), caller, common.HexToAddress(req.Admin)); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"admin": req.Admin})
}

// RemoveAdmin revokes operator capability from an address. Top-level
// authority only.
// DELETE /api/admins/{address}
func (h *AdminHandler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}
	admin, ok := addressParam(w, r, "address")
	if !ok {
		return
	}

	if err := h.engine.RemoveAdmin(r.Context(), caller, admin); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"admin": admin.Hex()})
}
