// Package token models the fungible asset the vault takes custody of.
//
// The vault never assumes a particular asset implementation: it is
// configured with a token address and resolves it to a Token at call time.
// The state backed Ledger in this package is the canonical implementation;
// tests substitute failing tokens through the same Resolver seam.
package token

import (
	"math/big"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/vm"
)

// Token is a conventional fungible token surface. Mutating operations
// report success instead of returning errors: a false return means the
// movement did not happen and no state was touched.
type Token interface {
	// Address returns the account the token's books live under.
	Address() common.Address

	// TotalSupply returns the amount of tokens in existence.
	TotalSupply(db vm.StateDB) *big.Int

	// BalanceOf returns the balance held by holder.
	BalanceOf(db vm.StateDB, holder common.Address) *big.Int

	// Transfer moves amount from the caller to recipient.
	Transfer(db vm.StateDB, caller, recipient common.Address, amount *big.Int) bool

	// TransferFrom moves amount from owner to recipient on the strength of
	// an allowance owner previously granted to spender.
	TransferFrom(db vm.StateDB, spender, owner, recipient common.Address, amount *big.Int) bool

	// Approve sets spender's allowance over the caller's tokens.
	Approve(db vm.StateDB, caller, spender common.Address, amount *big.Int) bool

	// Allowance returns the remaining allowance spender holds on owner.
	Allowance(db vm.StateDB, owner, spender common.Address) *big.Int
}

// Resolver maps a configured token address to a Token implementation.
type Resolver func(addr common.Address) Token

// DefaultResolver resolves every address to the state backed Ledger at that
// address.
func DefaultResolver(addr common.Address) Token {
	return At(addr)
}
