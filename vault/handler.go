package vault

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/common/math"
	"github.com/tos-network/gvault/sysaction"
)

func init() {
	sysaction.DefaultRegistry.Register(&vaultHandler{})
}

// vaultHandler implements sysaction.Handler for confidential vault actions.
// The vault behind it is installed at node startup through Activate;
// dispatching any vault action before that fails ErrServiceNotConfigured.
type vaultHandler struct{}

var (
	activeMu sync.RWMutex
	active   *Vault
)

// Activate installs v as the vault behind the registered system action
// handler, replacing any previously installed one.
func Activate(v *Vault) {
	activeMu.Lock()
	active = v
	activeMu.Unlock()
}

func activeVault() (*Vault, error) {
	activeMu.RLock()
	defer activeMu.RUnlock()
	if active == nil {
		return nil, ErrServiceNotConfigured
	}
	return active, nil
}

func (h *vaultHandler) CanHandle(kind sysaction.ActionKind) bool {
	switch kind {
	case sysaction.ActionVaultCredit,
		sysaction.ActionVaultCreditBatch,
		sysaction.ActionVaultWithdrawRequest,
		sysaction.ActionVaultWithdrawCancel,
		sysaction.ActionVaultWithdrawComplete,
		sysaction.ActionVaultDeposit,
		sysaction.ActionVaultEmergencyWithdraw,
		sysaction.ActionVaultSetToken,
		sysaction.ActionVaultTransferOwnership:
		return true
	}
	return false
}

func (h *vaultHandler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	v, err := activeVault()
	if err != nil {
		return err
	}
	db := ctx.StateDB
	from := ctx.From

	switch sa.Action {
	case sysaction.ActionVaultCredit:
		var p sysaction.CreditPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return fmt.Errorf("credit: %w: %v", ErrInvalidPayload, err)
		}
		recipient, err := parsePayloadAddress(p.Recipient)
		if err != nil {
			return fmt.Errorf("credit: recipient: %w", err)
		}
		return v.Credit(db, from, recipient, p.Ciphertext, p.Proof)

	case sysaction.ActionVaultCreditBatch:
		var p sysaction.CreditBatchPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return fmt.Errorf("batch credit: %w: %v", ErrInvalidPayload, err)
		}
		recipients := make([]common.Address, len(p.Recipients))
		for i, s := range p.Recipients {
			addr, err := parsePayloadAddress(s)
			if err != nil {
				return fmt.Errorf("batch credit: recipient [%d]: %w", i, err)
			}
			recipients[i] = addr
		}
		ciphertexts := make([][]byte, len(p.Ciphertexts))
		for i := range p.Ciphertexts {
			ciphertexts[i] = p.Ciphertexts[i]
		}
		proofs := make([][]byte, len(p.Proofs))
		for i := range p.Proofs {
			proofs[i] = p.Proofs[i]
		}
		return v.BatchCredit(db, from, recipients, ciphertexts, proofs)

	case sysaction.ActionVaultWithdrawRequest:
		var p sysaction.WithdrawRequestPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return fmt.Errorf("withdraw request: %w: %v", ErrInvalidPayload, err)
		}
		return v.RequestWithdrawal(db, from, p.Amount, ctx.Time)

	case sysaction.ActionVaultWithdrawCancel:
		return v.CancelWithdrawal(db, from)

	case sysaction.ActionVaultWithdrawComplete:
		return v.CompleteWithdrawal(db, from, ctx.Time, ctx.ChainConfig.VaultSettings())

	case sysaction.ActionVaultDeposit:
		amount, err := parsePayloadAmount(sa)
		if err != nil {
			return fmt.Errorf("deposit: %w", err)
		}
		return v.Deposit(db, from, amount)

	case sysaction.ActionVaultEmergencyWithdraw:
		amount, err := parsePayloadAmount(sa)
		if err != nil {
			return fmt.Errorf("emergency withdraw: %w", err)
		}
		return v.EmergencyWithdraw(db, from, amount)

	case sysaction.ActionVaultSetToken:
		var p sysaction.SetTokenPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return fmt.Errorf("set token: %w: %v", ErrInvalidPayload, err)
		}
		tokenAddr, err := parsePayloadAddress(p.Token)
		if err != nil {
			return fmt.Errorf("set token: %w", err)
		}
		return v.SetToken(db, from, tokenAddr)

	case sysaction.ActionVaultTransferOwnership:
		var p sysaction.TransferOwnershipPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return fmt.Errorf("transfer ownership: %w: %v", ErrInvalidPayload, err)
		}
		newOwner, err := parsePayloadAddress(p.NewOwner)
		if err != nil {
			return fmt.Errorf("transfer ownership: %w", err)
		}
		return v.TransferOwnership(db, from, newOwner)
	}
	return fmt.Errorf("vault handler: unsupported action %q", sa.Action)
}

// parsePayloadAddress decodes a hex address field. Malformed hex is a payload
// problem; whether the decoded address is an acceptable principal is decided
// by the vault operation itself.
func parsePayloadAddress(s string) (common.Address, error) {
	addr, err := common.ParseAddress(s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidPayload, s)
	}
	return addr, nil
}

// parsePayloadAmount decodes the amount shared by the deposit and emergency
// withdraw payloads, in decimal or hexadecimal syntax, capped at 256 bits to
// match the token ledger.
func parsePayloadAmount(sa *sysaction.SysAction) (*big.Int, error) {
	var p sysaction.DepositPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	amount, ok := math.ParseBig256(p.Amount)
	if !ok {
		return nil, fmt.Errorf("%w: amount %q", ErrInvalidPayload, p.Amount)
	}
	return amount, nil
}
