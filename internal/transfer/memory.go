// Package transfer provides value-transfer ledger implementations for the
// staked asset. The in-memory ledger backs development and tests; a real
// deployment points the engine at an on-chain token ledger instead.
package transfer

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"betpool/internal/domain"
)

// ErrInsufficientFunds is returned when a payer's balance cannot cover a
// draw. The engine surfaces it to callers wrapped in ErrTransferFailed.
var ErrInsufficientFunds = errors.New("transfer: insufficient funds")

// MemoryLedger is an in-memory TransferLedger. Each operation is atomic:
// a failed draw debits nothing and a payout either fully credits the payee
// or fails.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[common.Address]int64
	pool     int64
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[common.Address]int64)}
}

// Credit funds an account. Test and faucet helper.
func (l *MemoryLedger) Credit(account common.Address, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

// Balance returns an account's current balance.
func (l *MemoryLedger) Balance(account common.Address) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// PoolBalance returns the total value currently held by the pool.
func (l *MemoryLedger) PoolBalance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool
}

// TransferFrom draws amount from payer into the pool.
func (l *MemoryLedger) TransferFrom(_ context.Context, payer common.Address, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount <= 0 {
		return errors.New("transfer: non-positive amount")
	}
	if l.balances[payer] < amount {
		return ErrInsufficientFunds
	}
	l.balances[payer] -= amount
	l.pool += amount
	return nil
}

// Transfer pays amount from the pool to payee.
func (l *MemoryLedger) Transfer(_ context.Context, payee common.Address, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount <= 0 {
		return errors.New("transfer: non-positive amount")
	}
	if l.pool < amount {
		return ErrInsufficientFunds
	}
	l.pool -= amount
	l.balances[payee] += amount
	return nil
}

// Compile-time interface check.
var _ domain.TransferLedger = (*MemoryLedger)(nil)
