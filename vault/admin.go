package vault

import (
	"fmt"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/vm"
)

// TransferOwnership replaces the vault owner in a single step, effective
// immediately. Owner only; the new owner must be a non-zero address.
func (v *Vault) TransferOwnership(db vm.StateDB, caller, newOwner common.Address) error {
	if err := v.requireOwner(db, caller); err != nil {
		return fmt.Errorf("transfer ownership: %w", err)
	}
	if newOwner == (common.Address{}) {
		return fmt.Errorf("transfer ownership: %w", ErrInvalidPrincipal)
	}
	setOwner(db, newOwner)
	v.log.Info("ownership transferred", "previous", caller, "owner", newOwner)
	return nil
}

// SetToken rebinds the custody token. Owner only. Withdrawals pending at the
// time of a rebind settle in whatever token is bound when they complete.
func (v *Vault) SetToken(db vm.StateDB, caller, tokenAddr common.Address) error {
	if err := v.requireOwner(db, caller); err != nil {
		return fmt.Errorf("set token: %w", err)
	}
	if tokenAddr == (common.Address{}) {
		return fmt.Errorf("set token: %w", ErrInvalidPrincipal)
	}
	previous := GetTokenAddress(db)
	setTokenAddress(db, tokenAddr)
	v.log.Info("custody token bound", "previous", previous, "token", tokenAddr)
	return nil
}

// ApplyGenesis seeds the owner and custody token slots during genesis state
// construction. Until it runs, the owner slot is zero and every owner-gated
// action fails ErrUnauthorized.
func ApplyGenesis(db vm.StateDB, owner, tokenAddr common.Address) {
	setOwner(db, owner)
	setTokenAddress(db, tokenAddr)
}
