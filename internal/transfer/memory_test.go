package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestMemoryLedger(t *testing.T) {
	ctx := context.Background()
	payer := common.HexToAddress("0x00000000000000000000000000000000000000c3")
	payee := common.HexToAddress("0x00000000000000000000000000000000000000d4")

	l := NewMemoryLedger()
	l.Credit(payer, 500)

	if err := l.TransferFrom(ctx, payer, 300); err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}
	if got := l.Balance(payer); got != 200 {
		t.Errorf("payer balance = %d, want 200", got)
	}
	if got := l.PoolBalance(); got != 300 {
		t.Errorf("pool = %d, want 300", got)
	}

	// A failed draw debits nothing.
	if err := l.TransferFrom(ctx, payer, 201); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("overdraw: err = %v, want ErrInsufficientFunds", err)
	}
	if got := l.Balance(payer); got != 200 {
		t.Errorf("payer balance after failed draw = %d, want 200", got)
	}

	if err := l.Transfer(ctx, payee, 120); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got := l.Balance(payee); got != 120 {
		t.Errorf("payee balance = %d, want 120", got)
	}

	// The pool cannot pay out more than it holds.
	if err := l.Transfer(ctx, payee, 181); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("pool overdraw: err = %v, want ErrInsufficientFunds", err)
	}
	if got := l.PoolBalance(); got != 180 {
		t.Errorf("pool after failed payout = %d, want 180", got)
	}

	for _, amount := range []int64{0, -5} {
		if err := l.TransferFrom(ctx, payer, amount); err == nil {
			t.Errorf("TransferFrom(%d) succeeded, want error", amount)
		}
		if err := l.Transfer(ctx, payee, amount); err == nil {
			t.Errorf("Transfer(%d) succeeded, want error", amount)
		}
	}
}
