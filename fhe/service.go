// Package fhe defines the encrypted arithmetic service the vault ledger
// builds on. Balances are never held in plaintext: the ledger stores opaque
// handles and delegates all arithmetic, comparison and disclosure to a
// Service implementation. The canonical implementation lives in fhe/elgamal.
package fhe

import "github.com/tos-network/gvault/common"

// Service is the capability surface of the encrypted arithmetic backend.
//
// Every operation names the principal it executes as. The service enforces
// its own access control list: an operation over a Value the caller was
// never granted fails with ErrAccessDenied. Operation outputs are granted to
// the caller; further principals are added with Allow.
//
// Implementations must be deterministic. Two nodes applying the same
// operations over the same inputs must derive identical handles, otherwise
// ledger state diverges across the network.
type Service interface {
	// FromExternal verifies an externally produced ciphertext together with
	// its knowledge proof and admits it into the service. The proof must be
	// bound to caller, replaying another sender's ciphertext fails with
	// ErrInvalidProof.
	FromExternal(caller common.Address, ciphertext, proof []byte) (Value, error)

	// TrivialEncrypt admits a public plaintext amount. The resulting Value
	// hides nothing and is readable by every principal.
	TrivialEncrypt(amount uint64) (Value, error)

	// Add returns a handle to the homomorphic sum of a and b.
	Add(caller common.Address, a, b Value) (Value, error)

	// Eq returns a handle to an encrypted bit: one when a and b encrypt the
	// same amount, zero otherwise. The bit is not disclosed by the handle,
	// reading it requires Reveal.
	Eq(caller common.Address, a, b Value) (Value, error)

	// Select returns ifTrue when cond encrypts one and ifFalse when it
	// encrypts zero, without disclosing which branch was taken.
	Select(caller common.Address, cond, ifTrue, ifFalse Value) (Value, error)

	// Allow grants principal use and disclosure rights on v. Granting an
	// already granted principal is a no-op.
	Allow(caller common.Address, v Value, principal common.Address) error

	// Reveal discloses the plaintext amount behind v to an authorized
	// caller. Amounts beyond the service's disclosure bound fail with
	// ErrAmountOutOfRange.
	Reveal(caller common.Address, v Value) (uint64, error)
}
