package engine

import (
	"testing"

	"betpool/internal/domain"
)

func TestFee(t *testing.T) {
	tests := []struct {
		name       string
		totalStake int64
		want       int64
	}{
		{"zero pool", 0, 0},
		{"negative pool", -5, 0},
		{"whole percent", 300, 6},
		{"truncates down", 149, 2},
		{"below one unit", 49, 0},
		{"exactly one unit", 50, 1},
		{"large pool", 1_000_000_000_000, 20_000_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fee(tt.totalStake); got != tt.want {
				t.Errorf("Fee(%d) = %d, want %d", tt.totalStake, got, tt.want)
			}
		})
	}
}

func TestCalculateOddsEmptyPool(t *testing.T) {
	got := CalculateOdds(0, 0, 0, 0)
	want := domain.Odds{Home: OddsPrecision, Away: OddsPrecision, Draw: OddsPrecision}
	if got != want {
		t.Errorf("CalculateOdds(empty) = %+v, want neutral %+v", got, want)
	}
}

func TestCalculateOddsSingleSided(t *testing.T) {
	// All 300 on home: prize pool is 294 after the 2% fee.
	got := CalculateOdds(300, 300, 0, 0)
	if got.Home != 9800 {
		t.Errorf("home odds = %d, want 9800", got.Home)
	}
	if got.Away != InfiniteOdds || got.Draw != InfiniteOdds {
		t.Errorf("unstaked outcomes = %d/%d, want InfiniteOdds", got.Away, got.Draw)
	}
}

func TestCalculateOddsBalanced(t *testing.T) {
	// 100 on each outcome: prize pool 294, each outcome pays 2.94x.
	got := CalculateOdds(300, 100, 100, 100)
	want := domain.Odds{Home: 29400, Away: 29400, Draw: 29400}
	if got != want {
		t.Errorf("CalculateOdds = %+v, want %+v", got, want)
	}
}

func TestCalculateWinnings(t *testing.T) {
	tests := []struct {
		name                string
		totalStake          int64
		winningOutcomeStake int64
		bettorStake         int64
		want                int64
	}{
		{"sole winner takes pool minus fee", 300, 300, 300, 294},
		{"two equal winners split", 200, 200, 100, 98},
		{"winner against losers", 300, 200, 100, 147},
		{"truncating division", 10, 3, 1, 3},
		{"zero winning stake", 300, 0, 100, 0},
		{"zero bettor stake", 300, 100, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateWinnings(tt.totalStake, tt.winningOutcomeStake, tt.bettorStake)
			if got != tt.want {
				t.Errorf("CalculateWinnings(%d, %d, %d) = %d, want %d",
					tt.totalStake, tt.winningOutcomeStake, tt.bettorStake, got, tt.want)
			}
		})
	}
}

func TestCalculateWinningsDustStaysInPool(t *testing.T) {
	// Three winners of 1 each from a pool of 10: fee is 0, each payout
	// truncates to 3, leaving 1 unit of dust unclaimed.
	total := int64(10)
	winning := int64(3)

	var paid int64
	for i := 0; i < 3; i++ {
		paid += CalculateWinnings(total, winning, 1)
	}
	if paid != 9 {
		t.Fatalf("total paid = %d, want 9", paid)
	}
	if dust := total - Fee(total) - paid; dust != 1 {
		t.Errorf("dust = %d, want 1", dust)
	}
}
