// Package handler contains the HTTP handlers for the betpool API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"betpool/internal/domain"
)

// callerHeader carries the caller's address on mutating requests. The engine
// decides what the address is allowed to do; the server only parses it.
const callerHeader = "X-Caller-Address"

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps settlement errors onto HTTP status codes and writes
// the JSON error body. Unknown errors become a 500 with a generic message so
// internals do not leak.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrMarketNotFound),
		errors.Is(err, domain.ErrTeamNotFound),
		errors.Is(err, domain.ErrNoBet):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrDuplicateBet),
		errors.Is(err, domain.ErrMarketNotOpen),
		errors.Is(err, domain.ErrMarketNotFinalized),
		errors.Is(err, domain.ErrMatchNotEnded),
		errors.Is(err, domain.ErrBettingClosed),
		errors.Is(err, domain.ErrAlreadyConfigured):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidArguments),
		errors.Is(err, domain.ErrInvalidOutcome),
		errors.Is(err, domain.ErrBetTooLow),
		errors.Is(err, domain.ErrNothingToClaim),
		errors.Is(err, domain.ErrNoFeesToWithdraw):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrTransferFailed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.Error("unhandled api error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// callerAddress extracts and validates the caller address header. The second
// return value is false when the header is missing or malformed; the error
// response has already been written in that case.
func callerAddress(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	raw := r.Header.Get(callerHeader)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing "+callerHeader+" header")
		return common.Address{}, false
	}
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid caller address")
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// addressParam extracts and validates an address path parameter.
func addressParam(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	raw := r.PathValue(name)
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// idParam extracts a numeric path parameter.
func idParam(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// parseListOpts extracts standard pagination parameters from the query string.
// Defaults: limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}
}

// decodeBody decodes a JSON request body into dst, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
