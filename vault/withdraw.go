package vault

import (
	"fmt"
	"math/big"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/common/math"
	"github.com/tos-network/gvault/core/vm"
	"github.com/tos-network/gvault/params"
)

// RequestWithdrawal opens a withdrawal of claimedAmount for account at time
// now (unix seconds). The claimed amount is public by design; the encrypted
// balance is untouched until completion. At most one request may be pending
// per account.
func (v *Vault) RequestWithdrawal(db vm.StateDB, account common.Address, claimedAmount, now uint64) error {
	if account == (common.Address{}) {
		return fmt.Errorf("request withdrawal: %w", ErrInvalidPrincipal)
	}
	if claimedAmount == 0 {
		return fmt.Errorf("request withdrawal: %w", ErrInvalidAmount)
	}
	if GetPendingWithdrawal(db, account).Exists() {
		return fmt.Errorf("request withdrawal: %w", ErrAlreadyPending)
	}
	setPendingWithdrawal(db, account, PendingWithdrawal{ClaimedAmount: claimedAmount, RequestedAt: now})
	emitWithdrawalInitiated(db, account, claimedAmount)
	requestMeter.Mark(1)
	v.log.Debug("withdrawal requested", "account", account, "amount", claimedAmount, "at", now)
	return nil
}

// CancelWithdrawal drops account's pending request. Allowed at any time
// while one is pending, before or after the delay elapses; the encrypted
// balance is untouched.
func (v *Vault) CancelWithdrawal(db vm.StateDB, account common.Address) error {
	pending := GetPendingWithdrawal(db, account)
	if !pending.Exists() {
		return fmt.Errorf("cancel withdrawal: %w", ErrNoPendingRequest)
	}
	clearPendingWithdrawal(db, account)
	emitWithdrawalCanceled(db, account, pending.ClaimedAmount)
	cancelMeter.Mark(1)
	v.log.Debug("withdrawal canceled", "account", account, "amount", pending.ClaimedAmount)
	return nil
}

// CompleteWithdrawal settles account's pending request at time now once the
// withdrawal delay has elapsed. Completion at exactly requestedAt+delay is
// allowed.
//
// Reconciliation trivially encrypts the public claim and compares it against
// the encrypted balance, then rewrites the balance through an encrypted
// select so that an exact match zeroes it and anything else leaves it as is.
// What happens beyond that depends on cfg.ReconcilePolicy:
//
//   - strict: the equality bit is revealed to the vault. A mismatch fails
//     with ErrClaimMismatch before any state is written, keeping the pending
//     request so the holder can cancel and re-request the right amount.
//   - legacy: the bit stays encrypted. The pending request is cleared and
//     the claimed amount is paid out unconditionally, even when the claim
//     did not match and the encrypted balance therefore survives.
func (v *Vault) CompleteWithdrawal(db vm.StateDB, account common.Address, now uint64, cfg *params.VaultConfig) error {
	if cfg == nil {
		cfg = params.DefaultVaultConfig()
	}
	pending := GetPendingWithdrawal(db, account)
	if !pending.Exists() {
		return fmt.Errorf("complete withdrawal: %w", ErrNoPendingRequest)
	}
	ready, overflow := math.SafeAdd(pending.RequestedAt, cfg.WithdrawalDelay)
	if overflow || now < ready {
		return fmt.Errorf("complete withdrawal: ready at %d, now %d: %w", ready, now, ErrDelayNotElapsed)
	}

	balance, err := v.BalanceOf(db, account)
	if err != nil {
		return fmt.Errorf("complete withdrawal: %w", mapServiceError(err))
	}
	claim, err := v.svc.TrivialEncrypt(pending.ClaimedAmount)
	if err != nil {
		return fmt.Errorf("complete withdrawal: %w", mapServiceError(err))
	}
	zero, err := v.svc.TrivialEncrypt(0)
	if err != nil {
		return fmt.Errorf("complete withdrawal: %w", mapServiceError(err))
	}
	isEqual, err := v.svc.Eq(params.VaultAddress, claim, balance)
	if err != nil {
		return fmt.Errorf("complete withdrawal: eq: %w", mapServiceError(err))
	}
	nextBalance, err := v.svc.Select(params.VaultAddress, isEqual, zero, balance)
	if err != nil {
		return fmt.Errorf("complete withdrawal: select: %w", mapServiceError(err))
	}

	if cfg.ReconcilePolicy != params.ReconcileLegacy {
		match, err := v.svc.Reveal(params.VaultAddress, isEqual)
		if err != nil {
			return fmt.Errorf("complete withdrawal: reveal: %w", mapServiceError(err))
		}
		if match == 0 {
			mismatchMeter.Mark(1)
			v.log.Warn("withdrawal claim mismatch", "account", account, "claim", pending.ClaimedAmount)
			return fmt.Errorf("complete withdrawal: claim %d: %w", pending.ClaimedAmount, ErrClaimMismatch)
		}
	}

	if _, err := setBalance(db, account, nextBalance); err != nil {
		return fmt.Errorf("complete withdrawal: %w", err)
	}
	clearPendingWithdrawal(db, account)

	tok := v.tokens(GetTokenAddress(db))
	payout := new(big.Int).SetUint64(pending.ClaimedAmount)
	if !tok.Transfer(db, params.VaultAddress, account, payout) {
		return fmt.Errorf("complete withdrawal: pay %d: %w", pending.ClaimedAmount, ErrTransferFailed)
	}

	if err := v.svc.Allow(params.VaultAddress, nextBalance, account); err != nil {
		return fmt.Errorf("complete withdrawal: grant balance: %w", mapServiceError(err))
	}

	emitWithdrawalCompleted(db, account, pending.ClaimedAmount)
	completeMeter.Mark(1)
	v.log.Info("withdrawal completed", "account", account, "amount", pending.ClaimedAmount)
	return nil
}
