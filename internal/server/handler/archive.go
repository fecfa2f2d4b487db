package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// ArchiveRunner executes one archive pass over the journal stores.
type ArchiveRunner interface {
	Run(ctx context.Context) error
}

// ArchiveHandler exposes a manual trigger for the journal archiver.
type ArchiveHandler struct {
	runner ArchiveRunner
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler around the given runner.
func NewArchiveHandler(runner ArchiveRunner, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{runner: runner, logger: logger}
}

// TriggerArchive runs a single archive pass synchronously. Operator tooling
// calls this between scheduled runs, for example before a planned migration.
// POST /api/archive/run
func (h *ArchiveHandler) TriggerArchive(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Run(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "manual archive run failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "archive run failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}
