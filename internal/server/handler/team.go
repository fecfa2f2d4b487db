package handler

import (
	"log/slog"
	"net/http"

	"betpool/internal/domain"
	"betpool/internal/engine"
)

// TeamHandler serves team registry endpoints.
type TeamHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewTeamHandler creates a TeamHandler with the given engine and logger.
func NewTeamHandler(eng *engine.Engine, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{engine: eng, logger: logger}
}

type createTeamRequest struct {
	Name     string `json:"name"`
	Metadata string `json:"metadata"`
}

// CreateTeam registers a new team. Operator only.
// POST /api/teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}
	var req createTeamRequest
	if !decodeBody(w, r, &req) {
		return
	}

	team, err := h.engine.CreateTeam(r.Context(), caller, req.Name, req.Metadata)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

type createBulkTeamsRequest struct {
	Names     []string `json:"names"`
	Metadatas []string `json:"metadatas"`
}

// CreateBulkTeams registers up to 50 teams in one request. Operator only.
// POST /api/teams/bulk
func (h *TeamHandler) CreateBulkTeams(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}
	var req createBulkTeamsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	teams, err := h.engine.CreateBulkTeams(r.Context(), caller, req.Names, req.Metadatas)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"teams": teams})
}

// UpdateTeam renames a team or replaces its metadata. Operator only.
// PUT /api/teams/{id}
func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req createTeamRequest
	if !decodeBody(w, r, &req) {
		return
	}

	team, err := h.engine.UpdateTeam(r.Context(), caller, id, req.Name, req.Metadata)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

// GetTeam returns a single team by its id.
// GET /api/teams/{id}
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	team, err := h.engine.GetTeam(id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

// listTeamsResponse wraps the list endpoint output with metadata.
type listTeamsResponse struct {
	Teams  []domain.Team `json:"teams"`
	Total  uint64        `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ListTeams returns registered teams with pagination.
// GET /api/teams?limit=50&offset=0
func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	teams := h.engine.ListTeams(opts)
	writeJSON(w, http.StatusOK, listTeamsResponse{
		Teams:  teams,
		Total:  h.engine.GetTotalTeams(),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}
