package fhe

import "errors"

var (
	// ErrInvalidCiphertext indicates malformed ciphertext bytes.
	ErrInvalidCiphertext = errors.New("fhe: invalid ciphertext")
	// ErrInvalidProof indicates knowledge proof verification failure.
	ErrInvalidProof = errors.New("fhe: invalid proof")
	// ErrUnknownHandle indicates a Value the service has never produced.
	ErrUnknownHandle = errors.New("fhe: unknown handle")
	// ErrAccessDenied indicates the caller holds no grant on the Value.
	ErrAccessDenied = errors.New("fhe: access denied")
	// ErrAmountOutOfRange indicates a disclosure beyond the service bound.
	ErrAmountOutOfRange = errors.New("fhe: amount out of range")
	// ErrNotBoolean indicates a Select condition that encrypts neither zero
	// nor one.
	ErrNotBoolean = errors.New("fhe: condition is not an encrypted bit")
)
