package fhe

import "github.com/tos-network/gvault/common"

// Value is an opaque reference to an encrypted amount held by the encrypted
// arithmetic service. Values are content addressed: the same operation over
// the same inputs yields the same Value on every node. The zero Value
// references nothing and is rejected by every service operation.
type Value common.Hash

// BytesToValue interprets b as a Value, cropping from the left like hashes.
func BytesToValue(b []byte) Value {
	return Value(common.BytesToHash(b))
}

// Hash returns the value as a common.Hash, the form stored in ledger slots.
func (v Value) Hash() common.Hash { return common.Hash(v) }

// Bytes returns the raw 32 byte handle.
func (v Value) Bytes() []byte { return v[:] }

// IsZero reports whether the handle references nothing.
func (v Value) IsZero() bool { return v == Value{} }

func (v Value) String() string { return common.Hash(v).Hex() }
