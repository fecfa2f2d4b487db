package engine

import (
	"strings"
	"time"

	"betpool/internal/domain"
)

// maxBulkTeams bounds a single CreateBulkTeams call.
const maxBulkTeams = 50

// teamRegistry is the in-memory team store. Ids are sequential from 1 and
// never reused; a failed creation does not advance the counter. All access
// is serialized by the owning Engine.
type teamRegistry struct {
	teams  map[uint64]*domain.Team
	nextID uint64
}

func newTeamRegistry() *teamRegistry {
	return &teamRegistry{teams: make(map[uint64]*domain.Team)}
}

func (r *teamRegistry) create(name, metadata string, now time.Time) (domain.Team, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Team{}, domain.ErrInvalidArguments
	}
	r.nextID++
	t := &domain.Team{
		ID:        r.nextID,
		Name:      name,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.teams[t.ID] = t
	return *t, nil
}

// createBulk validates the whole batch before allocating any id, so a
// rejected batch burns nothing.
func (r *teamRegistry) createBulk(names, metadatas []string, now time.Time) ([]domain.Team, error) {
	if len(names) == 0 || len(names) != len(metadatas) || len(names) > maxBulkTeams {
		return nil, domain.ErrInvalidArguments
	}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, domain.ErrInvalidArguments
		}
	}
	created := make([]domain.Team, 0, len(names))
	for i, name := range names {
		t, err := r.create(name, metadatas[i], now)
		if err != nil {
			return nil, err
		}
		created = append(created, t)
	}
	return created, nil
}

func (r *teamRegistry) update(id uint64, name, metadata string, now time.Time) (domain.Team, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Team{}, domain.ErrInvalidArguments
	}
	t, ok := r.teams[id]
	if !ok {
		return domain.Team{}, domain.ErrTeamNotFound
	}
	t.Name = name
	t.Metadata = metadata
	t.UpdatedAt = now
	return *t, nil
}

func (r *teamRegistry) get(id uint64) (domain.Team, error) {
	t, ok := r.teams[id]
	if !ok {
		return domain.Team{}, domain.ErrTeamNotFound
	}
	return *t, nil
}

func (r *teamRegistry) exists(id uint64) bool {
	_, ok := r.teams[id]
	return ok
}

func (r *teamRegistry) count() uint64 { return r.nextID }

func (r *teamRegistry) list(opts domain.ListOpts) []domain.Team {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	out := make([]domain.Team, 0, limit)
	// Ids are dense from 1, so offset pagination walks the sequence.
	for id := uint64(opts.Offset) + 1; id <= r.nextID && len(out) < limit; id++ {
		if t, ok := r.teams[id]; ok {
			out = append(out, *t)
		}
	}
	return out
}
