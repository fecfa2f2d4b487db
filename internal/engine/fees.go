package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"betpool/internal/domain"
)

// feeAccumulator pools performance fees across markets. The outbound
// transfer path is set exactly once; withdrawal zeroes the pool before the
// external transfer is issued and restores it if the transfer fails. All
// access is serialized by the owning Engine.
type feeAccumulator struct {
	total    int64
	transfer domain.TransferLedger
}

func (f *feeAccumulator) configure(transfer domain.TransferLedger) error {
	if transfer == nil {
		return domain.ErrInvalidArguments
	}
	if f.transfer != nil {
		return domain.ErrAlreadyConfigured
	}
	f.transfer = transfer
	return nil
}

func (f *feeAccumulator) accumulate(amount int64) {
	f.total += amount
}

func (f *feeAccumulator) withdraw(ctx context.Context, recipient common.Address) (int64, error) {
	if f.transfer == nil {
		return 0, domain.ErrNotConfigured
	}
	if f.total == 0 {
		return 0, domain.ErrNoFeesToWithdraw
	}

	amount := f.total
	f.total = 0
	if err := f.transfer.Transfer(ctx, recipient, amount); err != nil {
		f.total = amount
		return 0, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}
	return amount, nil
}

func (f *feeAccumulator) accumulated() int64 { return f.total }
