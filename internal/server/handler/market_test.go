package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"betpool/internal/domain"
)

type stubSnapshotStore struct {
	markets map[uint64]domain.Market
}

func (s *stubSnapshotStore) Put(_ context.Context, m domain.Market) error {
	if s.markets == nil {
		s.markets = make(map[uint64]domain.Market)
	}
	s.markets[m.ID] = m
	return nil
}

func (s *stubSnapshotStore) Get(_ context.Context, id uint64) (domain.Market, error) {
	m, ok := s.markets[id]
	if !ok {
		return domain.Market{}, fmt.Errorf("snapshot %d: %w", id, domain.ErrMarketNotFound)
	}
	return m, nil
}

func (s *stubSnapshotStore) ListBefore(context.Context, time.Time) ([]domain.Market, error) {
	return nil, nil
}

func (s *stubSnapshotStore) DeleteBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func snapshotRequest(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/markets/"+id+"/snapshot", nil)
	req.SetPathValue("id", id)
	return req
}

func TestGetSnapshot(t *testing.T) {
	resolved := domain.Market{
		ID:             3,
		HomeTeamID:     1,
		AwayTeamID:     2,
		Status:         domain.MarketStatusResolved,
		Outcome:        domain.OutcomeHomeWin,
		TotalHomeStake: 5_000_000,
		TotalStake:     8_000_000,
	}
	snaps := &stubSnapshotStore{markets: map[uint64]domain.Market{3: resolved}}
	h := NewMarketHandler(nil, nil, snaps, testLogger())

	rr := httptest.NewRecorder()
	h.GetSnapshot(rr, snapshotRequest("3"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body)
	}

	var got domain.Market
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != 3 || got.Status != domain.MarketStatusResolved || got.Outcome != domain.OutcomeHomeWin {
		t.Errorf("snapshot = %+v, want resolved market 3 with home win", got)
	}
}

func TestGetSnapshotNotFound(t *testing.T) {
	h := NewMarketHandler(nil, nil, &stubSnapshotStore{}, testLogger())

	rr := httptest.NewRecorder()
	h.GetSnapshot(rr, snapshotRequest("42"))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestGetSnapshotWithoutStore(t *testing.T) {
	h := NewMarketHandler(nil, nil, nil, testLogger())

	rr := httptest.NewRecorder()
	h.GetSnapshot(rr, snapshotRequest("3"))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}
