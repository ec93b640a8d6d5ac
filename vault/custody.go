package vault

import (
	"fmt"
	"math/big"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/vm"
	"github.com/tos-network/gvault/params"
)

// Deposit pulls amount tokens from the owner into the pooled custody
// reserve. Owner only; the owner must have approved the vault address on the
// bound token beforehand. The pool is undifferentiated: nothing attributes
// reserve tokens to individual encrypted balances.
func (v *Vault) Deposit(db vm.StateDB, caller common.Address, amount *big.Int) error {
	if err := v.requireOwner(db, caller); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	if err := checkPublicAmount(amount); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	tok := v.tokens(GetTokenAddress(db))
	if !tok.TransferFrom(db, params.VaultAddress, caller, params.VaultAddress, amount) {
		return fmt.Errorf("deposit: pull %v: %w", amount, ErrTransferFailed)
	}
	emitDeposit(db, caller, amount.Uint64())
	depositMeter.Mark(1)
	v.log.Debug("custody deposit", "funder", caller, "amount", amount)
	return nil
}

// EmergencyWithdraw drains amount tokens from the pool to the owner. Owner
// only. It ignores encrypted liabilities entirely: holders with outstanding
// balances may be left unredeemable. No vault event is emitted beyond the
// token's own bookkeeping.
func (v *Vault) EmergencyWithdraw(db vm.StateDB, caller common.Address, amount *big.Int) error {
	if err := v.requireOwner(db, caller); err != nil {
		return fmt.Errorf("emergency withdraw: %w", err)
	}
	if err := checkPublicAmount(amount); err != nil {
		return fmt.Errorf("emergency withdraw: %w", err)
	}
	tok := v.tokens(GetTokenAddress(db))
	if !tok.Transfer(db, params.VaultAddress, caller, amount) {
		return fmt.Errorf("emergency withdraw: drain %v: %w", amount, ErrTransferFailed)
	}
	emergencyMeter.Mark(1)
	v.log.Warn("emergency pool drain", "owner", caller, "amount", amount)
	return nil
}

// checkPublicAmount validates a public custody amount: positive and within
// the uint64 range events and claims are denominated in.
func checkPublicAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 || !amount.IsUint64() {
		return ErrInvalidAmount
	}
	return nil
}
