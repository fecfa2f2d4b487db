package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"betpool/internal/domain"
)

var (
	authority = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	operator  = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	alice     = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	bob       = common.HexToAddress("0x00000000000000000000000000000000000000d4")
	carol     = common.HexToAddress("0x00000000000000000000000000000000000000e5")
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fakeGate authorizes a fixed authority plus a set of operators.
type fakeGate struct {
	authority common.Address
	operators map[common.Address]bool
	added     []common.Address
	removed   []common.Address
}

func newFakeGate() *fakeGate {
	return &fakeGate{
		authority: authority,
		operators: map[common.Address]bool{operator: true},
	}
}

func (g *fakeGate) IsAuthorizedOperator(caller common.Address) bool {
	return caller == g.authority || g.operators[caller]
}

func (g *fakeGate) IsTopLevelAuthority(caller common.Address) bool {
	return caller == g.authority
}

func (g *fakeGate) AddAdmin(admin common.Address) error {
	if g.operators[admin] {
		return domain.ErrInvalidArguments
	}
	g.operators[admin] = true
	g.added = append(g.added, admin)
	return nil
}

func (g *fakeGate) RemoveAdmin(admin common.Address) error {
	if !g.operators[admin] {
		return domain.ErrInvalidArguments
	}
	delete(g.operators, admin)
	g.removed = append(g.removed, admin)
	return nil
}

// fakeLedger tracks balances and a pool, with scriptable failures.
type fakeLedger struct {
	balances map[common.Address]int64
	pool     int64
	failDraw bool
	failPay  bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[common.Address]int64)}
}

func (l *fakeLedger) credit(a common.Address, amount int64) { l.balances[a] += amount }

func (l *fakeLedger) TransferFrom(_ context.Context, payer common.Address, amount int64) error {
	if l.failDraw {
		return errors.New("draw refused")
	}
	if l.balances[payer] < amount {
		return errors.New("insufficient funds")
	}
	l.balances[payer] -= amount
	l.pool += amount
	return nil
}

func (l *fakeLedger) Transfer(_ context.Context, payee common.Address, amount int64) error {
	if l.failPay {
		return errors.New("payout refused")
	}
	if l.pool < amount {
		return errors.New("pool underflow")
	}
	l.pool -= amount
	l.balances[payee] += amount
	return nil
}

// fakeSink records appended records in order.
type fakeSink struct {
	records []domain.Record
}

func (s *fakeSink) Append(_ context.Context, rec domain.Record) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeSink) types() []domain.RecordType {
	out := make([]domain.RecordType, len(s.records))
	for i, r := range s.records {
		out[i] = r.Type
	}
	return out
}

// testRig bundles an engine with its collaborators and a seeded market.
type testRig struct {
	eng    *Engine
	clock  *fakeClock
	gate   *fakeGate
	ledger *fakeLedger
	sink   *fakeSink

	start time.Time // match start
	end   time.Time // match end
}

// stake converts whole token units into base units.
func stake(units int64) int64 { return units * MinBet }

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := newFakeClock(now)
	gate := newFakeGate()
	ledger := newFakeLedger()
	sink := &fakeSink{}

	eng := New(Options{
		Gate:     gate,
		Transfer: ledger,
		Sink:     sink,
		Admins:   gate,
		Clock:    clock,
	})
	if err := eng.ConfigureFeeTransfer(ledger); err != nil {
		t.Fatalf("ConfigureFeeTransfer: %v", err)
	}

	for _, a := range []common.Address{alice, bob, carol} {
		ledger.credit(a, stake(1_000))
	}

	return &testRig{
		eng:    eng,
		clock:  clock,
		gate:   gate,
		ledger: ledger,
		sink:   sink,
		start:  now.Add(1 * time.Hour),
		end:    now.Add(3 * time.Hour),
	}
}

// seedMarket registers two teams and opens a market between them.
func (r *testRig) seedMarket(t *testing.T) domain.Market {
	t.Helper()
	ctx := context.Background()

	if _, err := r.eng.CreateTeam(ctx, operator, "Arsenal", "{}"); err != nil {
		t.Fatalf("create home team: %v", err)
	}
	if _, err := r.eng.CreateTeam(ctx, operator, "Chelsea", "{}"); err != nil {
		t.Fatalf("create away team: %v", err)
	}
	m, err := r.eng.CreateMarket(ctx, operator, 1, 2, r.start, r.end)
	if err != nil {
		t.Fatalf("create market: %v", err)
	}
	return m
}

func TestCreateTeam(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()

	t.Run("unauthorized caller", func(t *testing.T) {
		if _, err := r.eng.CreateTeam(ctx, alice, "Arsenal", "{}"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		if _, err := r.eng.CreateTeam(ctx, operator, "  ", "{}"); !errors.Is(err, domain.ErrInvalidArguments) {
			t.Errorf("err = %v, want ErrInvalidArguments", err)
		}
		// Rejected creations must not burn ids.
		if got := r.eng.GetTotalTeams(); got != 0 {
			t.Errorf("total teams = %d, want 0", got)
		}
	})

	t.Run("sequential ids from one", func(t *testing.T) {
		first, err := r.eng.CreateTeam(ctx, operator, "Arsenal", "{}")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		second, err := r.eng.CreateTeam(ctx, authority, "Chelsea", "{}")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if first.ID != 1 || second.ID != 2 {
			t.Errorf("ids = %d, %d, want 1, 2", first.ID, second.ID)
		}
	})
}

func TestCreateBulkTeams(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		names     []string
		metadatas []string
	}{
		{"empty batch", nil, nil},
		{"length mismatch", []string{"A", "B"}, []string{"{}"}},
		{"blank name mid-batch", []string{"A", " ", "C"}, []string{"{}", "{}", "{}"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.eng.CreateBulkTeams(ctx, operator, tt.names, tt.metadatas); !errors.Is(err, domain.ErrInvalidArguments) {
				t.Errorf("err = %v, want ErrInvalidArguments", err)
			}
		})
	}

	t.Run("rejected batch burns no ids", func(t *testing.T) {
		if got := r.eng.GetTotalTeams(); got != 0 {
			t.Fatalf("total teams = %d, want 0", got)
		}
	})

	t.Run("batch over limit", func(t *testing.T) {
		names := make([]string, 51)
		metas := make([]string, 51)
		for i := range names {
			names[i] = "Team"
		}
		if _, err := r.eng.CreateBulkTeams(ctx, operator, names, metas); !errors.Is(err, domain.ErrInvalidArguments) {
			t.Errorf("err = %v, want ErrInvalidArguments", err)
		}
	})

	t.Run("valid batch", func(t *testing.T) {
		teams, err := r.eng.CreateBulkTeams(ctx, operator,
			[]string{"Arsenal", "Chelsea", "Spurs"},
			[]string{"{}", "{}", "{}"},
		)
		if err != nil {
			t.Fatalf("CreateBulkTeams: %v", err)
		}
		for i, tm := range teams {
			if tm.ID != uint64(i)+1 {
				t.Errorf("team %d id = %d, want %d", i, tm.ID, i+1)
			}
		}
		if got := r.eng.GetTotalTeams(); got != 3 {
			t.Errorf("total teams = %d, want 3", got)
		}
	})
}

func TestUpdateTeam(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()

	if _, err := r.eng.UpdateTeam(ctx, operator, 7, "Arsenal", "{}"); !errors.Is(err, domain.ErrTeamNotFound) {
		t.Errorf("err = %v, want ErrTeamNotFound", err)
	}

	created, err := r.eng.CreateTeam(ctx, operator, "Arsenal", "{}")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := r.eng.UpdateTeam(ctx, operator, created.ID, "Arsenal FC", `{"venue":"Emirates"}`)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Arsenal FC" {
		t.Errorf("name = %q, want %q", updated.Name, "Arsenal FC")
	}
}

func TestCreateMarketValidation(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	r.seedMarket(t) // market 1, teams 1 and 2

	tests := []struct {
		name       string
		home, away uint64
		start, end time.Time
		want       error
	}{
		{"same team both sides", 1, 1, r.start, r.end, domain.ErrInvalidArguments},
		{"start not in future", 1, 2, r.clock.Now(), r.end, domain.ErrInvalidArguments},
		{"end before start", 1, 2, r.start, r.start.Add(-time.Minute), domain.ErrInvalidArguments},
		{"unknown home team", 9, 2, r.start, r.end, domain.ErrTeamNotFound},
		{"unknown away team", 1, 9, r.start, r.end, domain.ErrTeamNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.eng.CreateMarket(ctx, operator, tt.home, tt.away, tt.start, tt.end); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	// Failed creations must not advance the id sequence.
	if got := r.eng.GetTotalMarkets(); got != 1 {
		t.Fatalf("total markets = %d, want 1", got)
	}
	m, err := r.eng.CreateMarket(ctx, operator, 2, 1, r.start, r.end)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID != 2 {
		t.Errorf("second market id = %d, want 2", m.ID)
	}
}

func TestPlaceBet(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path updates aggregates and pool", func(t *testing.T) {
		r := newTestRig(t)
		m := r.seedMarket(t)

		bet, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomeHomeWin, stake(100))
		if err != nil {
			t.Fatalf("PlaceBet: %v", err)
		}
		if bet.Amount != stake(100) || bet.Outcome != domain.OutcomeHomeWin {
			t.Errorf("bet = %+v", bet)
		}

		got, err := r.eng.GetMarket(m.ID)
		if err != nil {
			t.Fatalf("GetMarket: %v", err)
		}
		if got.TotalHomeStake != stake(100) || got.TotalStake != stake(100) {
			t.Errorf("aggregates = home %d total %d, want %d both", got.TotalHomeStake, got.TotalStake, stake(100))
		}
		if r.ledger.pool != stake(100) {
			t.Errorf("pool = %d, want %d", r.ledger.pool, stake(100))
		}
		if r.ledger.balances[alice] != stake(900) {
			t.Errorf("alice balance = %d, want %d", r.ledger.balances[alice], stake(900))
		}
	})

	t.Run("validation order and sentinels", func(t *testing.T) {
		r := newTestRig(t)
		m := r.seedMarket(t)

		if _, err := r.eng.PlaceBet(ctx, alice, 99, domain.OutcomeHomeWin, stake(10)); !errors.Is(err, domain.ErrMarketNotFound) {
			t.Errorf("missing market: err = %v, want ErrMarketNotFound", err)
		}
		if _, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomeHomeWin, MinBet-1); !errors.Is(err, domain.ErrBetTooLow) {
			t.Errorf("below minimum: err = %v, want ErrBetTooLow", err)
		}
		if _, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomePending, stake(10)); !errors.Is(err, domain.ErrInvalidOutcome) {
			t.Errorf("pending outcome: err = %v, want ErrInvalidOutcome", err)
		}

		if _, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomeHomeWin, stake(10)); err != nil {
			t.Fatalf("first bet: %v", err)
		}
		if _, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomeAwayWin, stake(10)); !errors.Is(err, domain.ErrDuplicateBet) {
			t.Errorf("second bet: err = %v, want ErrDuplicateBet", err)
		}
	})

	t.Run("cutoff boundary", func(t *testing.T) {
		r := newTestRig(t)
		m := r.seedMarket(t)

		// One second before the cutoff still goes through.
		r.clock.Set(r.end.Add(-BettingCutoff).Add(-time.Second))
		if _, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomeDraw, stake(5)); err != nil {
			t.Fatalf("bet just before cutoff: %v", err)
		}

		// At exactly endTime-BettingCutoff the window is closed.
		r.clock.Set(r.end.Add(-BettingCutoff))
		if _, err := r.eng.PlaceBet(ctx, bob, m.ID, domain.OutcomeDraw, stake(5)); !errors.Is(err, domain.ErrBettingClosed) {
			t.Errorf("bet at cutoff: err = %v, want ErrBettingClosed", err)
		}
	})

	t.Run("transfer failure leaves no state", func(t *testing.T) {
		r := newTestRig(t)
		m := r.seedMarket(t)

		r.ledger.failDraw = true
		if _, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomeHomeWin, stake(10)); !errors.Is(err, domain.ErrTransferFailed) {
			t.Fatalf("err = %v, want ErrTransferFailed", err)
		}

		got, _ := r.eng.GetMarket(m.ID)
		if got.TotalStake != 0 {
			t.Errorf("total stake = %d, want 0", got.TotalStake)
		}
		if _, err := r.eng.GetUserBet(m.ID, alice); !errors.Is(err, domain.ErrNoBet) {
			t.Errorf("err = %v, want ErrNoBet", err)
		}

		// The bettor can retry once the draw succeeds.
		r.ledger.failDraw = false
		if _, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomeHomeWin, stake(10)); err != nil {
			t.Errorf("retry: %v", err)
		}
	})

	t.Run("closed market rejects bets", func(t *testing.T) {
		r := newTestRig(t)
		m := r.seedMarket(t)

		r.clock.Set(r.end)
		if _, err := r.eng.ResolveMarket(ctx, operator, m.ID, domain.OutcomeDraw); err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if _, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomeDraw, stake(5)); !errors.Is(err, domain.ErrMarketNotOpen) {
			t.Errorf("err = %v, want ErrMarketNotOpen", err)
		}
	})
}

func TestResolveMarket(t *testing.T) {
	ctx := context.Background()

	t.Run("before end time", func(t *testing.T) {
		r := newTestRig(t)
		m := r.seedMarket(t)

		r.clock.Set(r.end.Add(-time.Second))
		if _, err := r.eng.ResolveMarket(ctx, operator, m.ID, domain.OutcomeHomeWin); !errors.Is(err, domain.ErrMatchNotEnded) {
			t.Errorf("err = %v, want ErrMatchNotEnded", err)
		}
	})

	t.Run("at end time with fee collection", func(t *testing.T) {
		r := newTestRig(t)
		m := r.seedMarket(t)

		if _, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomeHomeWin, stake(300)); err != nil {
			t.Fatalf("bet: %v", err)
		}

		r.clock.Set(r.end)
		resolved, err := r.eng.ResolveMarket(ctx, operator, m.ID, domain.OutcomeHomeWin)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if resolved.Status != domain.MarketStatusResolved || resolved.Outcome != domain.OutcomeHomeWin {
			t.Errorf("market = %+v", resolved)
		}
		if got := r.eng.GetAccumulatedFees(); got != stake(6) {
			t.Errorf("fees = %d, want %d", got, stake(6))
		}
	})

	t.Run("invalid and repeat transitions", func(t *testing.T) {
		r := newTestRig(t)
		m := r.seedMarket(t)
		r.clock.Set(r.end)

		if _, err := r.eng.ResolveMarket(ctx, operator, m.ID, domain.OutcomePending); !errors.Is(err, domain.ErrInvalidOutcome) {
			t.Errorf("pending outcome: err = %v, want ErrInvalidOutcome", err)
		}
		if _, err := r.eng.ResolveMarket(ctx, operator, m.ID, domain.OutcomeDraw); err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if _, err := r.eng.ResolveMarket(ctx, operator, m.ID, domain.OutcomeDraw); !errors.Is(err, domain.ErrMarketNotOpen) {
			t.Errorf("second resolve: err = %v, want ErrMarketNotOpen", err)
		}
		if _, err := r.eng.CancelMarket(ctx, operator, m.ID); !errors.Is(err, domain.ErrMarketNotOpen) {
			t.Errorf("cancel after resolve: err = %v, want ErrMarketNotOpen", err)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		r := newTestRig(t)
		m := r.seedMarket(t)
		r.clock.Set(r.end)

		if _, err := r.eng.ResolveMarket(ctx, alice, m.ID, domain.OutcomeDraw); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})
}

func TestCancelRefund(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	m := r.seedMarket(t)

	if _, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomeHomeWin, stake(100)); err != nil {
		t.Fatalf("bet: %v", err)
	}
	if _, err := r.eng.PlaceBet(ctx, bob, m.ID, domain.OutcomeAwayWin, stake(40)); err != nil {
		t.Fatalf("bet: %v", err)
	}

	cancelled, err := r.eng.CancelMarket(ctx, operator, m.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.MarketStatusCancelled {
		t.Fatalf("status = %v, want cancelled", cancelled.Status)
	}

	// Full refunds, no fee.
	payout, err := r.eng.ClaimWinnings(ctx, alice, m.ID)
	if err != nil {
		t.Fatalf("alice claim: %v", err)
	}
	if payout != stake(100) {
		t.Errorf("alice refund = %d, want %d", payout, stake(100))
	}
	if _, err := r.eng.ClaimWinnings(ctx, bob, m.ID); err != nil {
		t.Fatalf("bob claim: %v", err)
	}
	if r.ledger.balances[alice] != stake(1_000) || r.ledger.balances[bob] != stake(1_000) {
		t.Errorf("balances = %d, %d, want full restitution", r.ledger.balances[alice], r.ledger.balances[bob])
	}
	if got := r.eng.GetAccumulatedFees(); got != 0 {
		t.Errorf("fees after cancel = %d, want 0", got)
	}
}

func TestClaimWinnings(t *testing.T) {
	ctx := context.Background()

	// Two winners of 100 each on home, one loser of 100 on away.
	setup := func(t *testing.T) (*testRig, domain.Market) {
		r := newTestRig(t)
		m := r.seedMarket(t)
		for _, b := range []struct {
			who     common.Address
			outcome domain.Outcome
		}{
			{alice, domain.OutcomeHomeWin},
			{bob, domain.OutcomeHomeWin},
			{carol, domain.OutcomeAwayWin},
		} {
			if _, err := r.eng.PlaceBet(ctx, b.who, m.ID, b.outcome, stake(100)); err != nil {
				t.Fatalf("bet %s: %v", b.who.Hex(), err)
			}
		}
		return r, m
	}

	t.Run("open market cannot settle", func(t *testing.T) {
		r, m := setup(t)
		if _, err := r.eng.ClaimWinnings(ctx, alice, m.ID); !errors.Is(err, domain.ErrMarketNotFinalized) {
			t.Errorf("err = %v, want ErrMarketNotFinalized", err)
		}
	})

	t.Run("parimutuel split with exactly-once claims", func(t *testing.T) {
		r, m := setup(t)
		r.clock.Set(r.end)
		if _, err := r.eng.ResolveMarket(ctx, operator, m.ID, domain.OutcomeHomeWin); err != nil {
			t.Fatalf("resolve: %v", err)
		}

		// Pool 300, fee 6, prize 294, winning stake 200: each winner gets 147.
		payout, err := r.eng.ClaimWinnings(ctx, alice, m.ID)
		if err != nil {
			t.Fatalf("claim: %v", err)
		}
		if payout != stake(147) {
			t.Errorf("payout = %d, want %d", payout, stake(147))
		}

		if _, err := r.eng.ClaimWinnings(ctx, alice, m.ID); !errors.Is(err, domain.ErrAlreadyClaimed) {
			t.Errorf("replay: err = %v, want ErrAlreadyClaimed", err)
		}
		claimed, err := r.eng.HasClaimed(m.ID, alice)
		if err != nil || !claimed {
			t.Errorf("HasClaimed = %v, %v, want true", claimed, err)
		}

		if _, err := r.eng.ClaimWinnings(ctx, carol, m.ID); !errors.Is(err, domain.ErrNothingToClaim) {
			t.Errorf("loser: err = %v, want ErrNothingToClaim", err)
		}
		if _, err := r.eng.ClaimWinnings(ctx, authority, m.ID); !errors.Is(err, domain.ErrNoBet) {
			t.Errorf("non-bettor: err = %v, want ErrNoBet", err)
		}
	})

	t.Run("transfer failure keeps claim retriable", func(t *testing.T) {
		r, m := setup(t)
		r.clock.Set(r.end)
		if _, err := r.eng.ResolveMarket(ctx, operator, m.ID, domain.OutcomeHomeWin); err != nil {
			t.Fatalf("resolve: %v", err)
		}

		r.ledger.failPay = true
		if _, err := r.eng.ClaimWinnings(ctx, alice, m.ID); !errors.Is(err, domain.ErrTransferFailed) {
			t.Fatalf("err = %v, want ErrTransferFailed", err)
		}
		claimed, err := r.eng.HasClaimed(m.ID, alice)
		if err != nil || claimed {
			t.Fatalf("HasClaimed after failed payout = %v, %v, want false", claimed, err)
		}

		r.ledger.failPay = false
		if payout, err := r.eng.ClaimWinnings(ctx, alice, m.ID); err != nil || payout != stake(147) {
			t.Errorf("retry = %d, %v, want %d, nil", payout, err, stake(147))
		}
	})

	t.Run("pool covers all payouts plus fees", func(t *testing.T) {
		r, m := setup(t)
		r.clock.Set(r.end)
		if _, err := r.eng.ResolveMarket(ctx, operator, m.ID, domain.OutcomeHomeWin); err != nil {
			t.Fatalf("resolve: %v", err)
		}

		var paid int64
		for _, who := range []common.Address{alice, bob} {
			p, err := r.eng.ClaimWinnings(ctx, who, m.ID)
			if err != nil {
				t.Fatalf("claim %s: %v", who.Hex(), err)
			}
			paid += p
		}
		if _, err := r.eng.WithdrawFees(ctx, authority, authority); err != nil {
			t.Fatalf("withdraw: %v", err)
		}
		// 300 in, 294 paid out, 6 in fees: the pool never goes negative and
		// here settles exactly to zero.
		if r.ledger.pool != 0 {
			t.Errorf("pool = %d, want 0", r.ledger.pool)
		}
		if paid != stake(294) {
			t.Errorf("total paid = %d, want %d", paid, stake(294))
		}
	})
}

func TestPotentialWinnings(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	m := r.seedMarket(t)

	if _, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomeHomeWin, stake(100)); err != nil {
		t.Fatalf("bet: %v", err)
	}
	if _, err := r.eng.PlaceBet(ctx, bob, m.ID, domain.OutcomeAwayWin, stake(100)); err != nil {
		t.Fatalf("bet: %v", err)
	}

	// Live projection: pool 200, fee 4, alice would take 196.
	got, err := r.eng.CalculatePotentialWinnings(m.ID, alice)
	if err != nil {
		t.Fatalf("potential: %v", err)
	}
	if got != stake(196) {
		t.Errorf("potential = %d, want %d", got, stake(196))
	}

	r.clock.Set(r.end)
	if _, err := r.eng.ResolveMarket(ctx, operator, m.ID, domain.OutcomeHomeWin); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// After resolution the loser projects zero.
	got, err = r.eng.CalculatePotentialWinnings(m.ID, bob)
	if err != nil {
		t.Fatalf("potential: %v", err)
	}
	if got != 0 {
		t.Errorf("loser potential = %d, want 0", got)
	}
}

func TestGetOdds(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	m := r.seedMarket(t)

	odds, err := r.eng.GetOdds(m.ID)
	if err != nil {
		t.Fatalf("GetOdds: %v", err)
	}
	neutral := domain.Odds{Home: OddsPrecision, Away: OddsPrecision, Draw: OddsPrecision}
	if odds != neutral {
		t.Errorf("empty market odds = %+v, want %+v", odds, neutral)
	}

	if _, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomeHomeWin, stake(100)); err != nil {
		t.Fatalf("bet: %v", err)
	}
	odds, err = r.eng.GetOdds(m.ID)
	if err != nil {
		t.Fatalf("GetOdds: %v", err)
	}
	if odds.Home != 9800 {
		t.Errorf("home odds = %d, want 9800", odds.Home)
	}
	if odds.Away != InfiniteOdds {
		t.Errorf("away odds = %d, want InfiniteOdds", odds.Away)
	}
}

func TestWithdrawFees(t *testing.T) {
	ctx := context.Background()

	t.Run("empty pool", func(t *testing.T) {
		r := newTestRig(t)
		if _, err := r.eng.WithdrawFees(ctx, authority, authority); !errors.Is(err, domain.ErrNoFeesToWithdraw) {
			t.Errorf("err = %v, want ErrNoFeesToWithdraw", err)
		}
	})

	t.Run("operator is not enough", func(t *testing.T) {
		r := newTestRig(t)
		if _, err := r.eng.WithdrawFees(ctx, operator, operator); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("drains and resets", func(t *testing.T) {
		r := newTestRig(t)
		m := r.seedMarket(t)
		if _, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomeHomeWin, stake(300)); err != nil {
			t.Fatalf("bet: %v", err)
		}
		r.clock.Set(r.end)
		if _, err := r.eng.ResolveMarket(ctx, operator, m.ID, domain.OutcomeHomeWin); err != nil {
			t.Fatalf("resolve: %v", err)
		}

		amount, err := r.eng.WithdrawFees(ctx, authority, authority)
		if err != nil {
			t.Fatalf("withdraw: %v", err)
		}
		if amount != stake(6) {
			t.Errorf("withdrawn = %d, want %d", amount, stake(6))
		}
		if got := r.eng.GetAccumulatedFees(); got != 0 {
			t.Errorf("fees after withdraw = %d, want 0", got)
		}
		if _, err := r.eng.WithdrawFees(ctx, authority, authority); !errors.Is(err, domain.ErrNoFeesToWithdraw) {
			t.Errorf("second withdraw: err = %v, want ErrNoFeesToWithdraw", err)
		}
	})

	t.Run("configure is once only", func(t *testing.T) {
		r := newTestRig(t)
		if err := r.eng.ConfigureFeeTransfer(r.ledger); !errors.Is(err, domain.ErrAlreadyConfigured) {
			t.Errorf("err = %v, want ErrAlreadyConfigured", err)
		}
	})
}

func TestAdminManagement(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()

	if err := r.eng.AddAdmin(ctx, operator, carol); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("non-authority add: err = %v, want ErrUnauthorized", err)
	}

	if err := r.eng.AddAdmin(ctx, authority, carol); err != nil {
		t.Fatalf("add admin: %v", err)
	}
	// Carol can now operate the registry.
	if _, err := r.eng.CreateTeam(ctx, carol, "Arsenal", "{}"); err != nil {
		t.Errorf("new admin create team: %v", err)
	}

	if err := r.eng.RemoveAdmin(ctx, authority, carol); err != nil {
		t.Fatalf("remove admin: %v", err)
	}
	if _, err := r.eng.CreateTeam(ctx, carol, "Chelsea", "{}"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("revoked admin: err = %v, want ErrUnauthorized", err)
	}
}

func TestRecordsEmitted(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	m := r.seedMarket(t)

	if _, err := r.eng.PlaceBet(ctx, alice, m.ID, domain.OutcomeHomeWin, stake(100)); err != nil {
		t.Fatalf("bet: %v", err)
	}
	r.clock.Set(r.end)
	if _, err := r.eng.ResolveMarket(ctx, operator, m.ID, domain.OutcomeHomeWin); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := r.eng.ClaimWinnings(ctx, alice, m.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	want := []domain.RecordType{
		domain.RecordTeamCreated,
		domain.RecordTeamCreated,
		domain.RecordMarketCreated,
		domain.RecordBetPlaced,
		domain.RecordMarketResolved,
		domain.RecordFeeCollected,
		domain.RecordWinningsClaimed,
	}
	got := r.sink.types()
	if len(got) != len(want) {
		t.Fatalf("record types = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %s, want %s", i, got[i], want[i])
		}
	}

	// Every record carries an id and a timestamp.
	for _, rec := range r.sink.records {
		if rec.ID == "" || rec.At.IsZero() {
			t.Errorf("incomplete record: %+v", rec)
		}
	}
}

func TestConservation(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	m := r.seedMarket(t)

	bets := []struct {
		who     common.Address
		outcome domain.Outcome
		units   int64
	}{
		{alice, domain.OutcomeHomeWin, 137},
		{bob, domain.OutcomeAwayWin, 251},
		{carol, domain.OutcomeDraw, 89},
	}
	for _, b := range bets {
		if _, err := r.eng.PlaceBet(ctx, b.who, m.ID, b.outcome, stake(b.units)); err != nil {
			t.Fatalf("bet: %v", err)
		}
	}

	got, err := r.eng.GetMarket(m.ID)
	if err != nil {
		t.Fatalf("GetMarket: %v", err)
	}
	if sum := got.TotalHomeStake + got.TotalAwayStake + got.TotalDrawStake; sum != got.TotalStake {
		t.Fatalf("aggregate sum %d != total %d", sum, got.TotalStake)
	}

	r.clock.Set(r.end)
	if _, err := r.eng.ResolveMarket(ctx, operator, m.ID, domain.OutcomeAwayWin); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	payout, err := r.eng.ClaimWinnings(ctx, bob, m.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	fees := r.eng.GetAccumulatedFees()

	// Payout plus fee never exceeds what went in; the shortfall is dust.
	if payout+fees > got.TotalStake {
		t.Errorf("payout %d + fees %d exceeds pool %d", payout, fees, got.TotalStake)
	}
	if r.ledger.pool < fees {
		t.Errorf("pool %d cannot cover fee balance %d", r.ledger.pool, fees)
	}
}
