// Package vault implements the confidential balance vault: an owner-funded
// ledger of encrypted balances with delay-gated public withdrawals.
//
// Balances are opaque fhe.Value handles managed by an external encrypted
// arithmetic service; the chain state stores only handles and version
// counters under params.VaultAddress. The vault never learns amounts. The
// only public quantities in the whole flow are custody deposits and the
// claimed amounts of withdrawal requests.
//
// Mutating operations arrive as system actions (see the sysaction package)
// and execute inside core.ApplyAction's snapshot, which makes multi-step
// actions such as batch credits atomic: any error rolls back every storage
// write of the action. Handles produced by the arithmetic service are NOT
// rolled back with state, so operations grant capabilities to outside
// principals only after every fallible step has succeeded.
package vault

import (
	"errors"
	"fmt"

	log "github.com/inconshreveable/log15"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/vm"
	"github.com/tos-network/gvault/fhe"
	"github.com/tos-network/gvault/token"
)

// Vault executes confidential vault actions against a StateDB. It carries
// the encrypted arithmetic service and the token resolver; all persistent
// state lives in storage slots under params.VaultAddress.
type Vault struct {
	svc    fhe.Service
	tokens token.Resolver
	log    log.Logger
}

// New returns a vault backed by the given encrypted arithmetic service.
// A nil resolver falls back to token.DefaultResolver.
func New(svc fhe.Service, tokens token.Resolver) *Vault {
	if tokens == nil {
		tokens = token.DefaultResolver
	}
	return &Vault{
		svc:    svc,
		tokens: tokens,
		log:    log.New("module", "vault"),
	}
}

// BalanceOf returns account's encrypted balance handle. Uninitialized
// accounts read as the canonical trivial-zero handle; nothing is written, so
// repeated reads of an untouched account stay deterministic.
func (v *Vault) BalanceOf(db vm.StateDB, account common.Address) (fhe.Value, error) {
	st := GetAccountState(db, account)
	if st.Balance.IsZero() {
		return v.svc.TrivialEncrypt(0)
	}
	return st.Balance, nil
}

func (v *Vault) requireOwner(db vm.StateDB, caller common.Address) error {
	owner := GetOwner(db)
	if owner == (common.Address{}) || caller != owner {
		return ErrUnauthorized
	}
	return nil
}

// mapServiceError folds arithmetic service failures into the vault error
// taxonomy while keeping the underlying cause in the chain.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, fhe.ErrInvalidProof):
		return fmt.Errorf("%w: %w", ErrInvalidProof, err)
	case errors.Is(err, fhe.ErrInvalidCiphertext):
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	default:
		return err
	}
}
