package vault

import "errors"

var (
	// ErrUnauthorized indicates the caller is not the vault owner.
	ErrUnauthorized = errors.New("vault: caller is not the owner")

	// ErrInvalidAmount indicates a zero or otherwise unusable public amount.
	ErrInvalidAmount = errors.New("vault: invalid amount")

	// ErrInvalidProof indicates an external ciphertext whose input proof does
	// not verify for the submitting caller.
	ErrInvalidProof = errors.New("vault: invalid input proof")

	// ErrLengthMismatch indicates batch arrays of unequal length.
	ErrLengthMismatch = errors.New("vault: array length mismatch")

	// ErrAlreadyPending indicates the account already has a withdrawal in flight.
	ErrAlreadyPending = errors.New("vault: withdrawal already pending")

	// ErrNoPendingRequest indicates no withdrawal is pending for the account.
	ErrNoPendingRequest = errors.New("vault: no pending withdrawal")

	// ErrDelayNotElapsed indicates completion attempted before the withdrawal
	// delay has passed.
	ErrDelayNotElapsed = errors.New("vault: withdrawal delay not elapsed")

	// ErrClaimMismatch indicates the claimed amount does not equal the
	// encrypted balance. Only the strict reconcile policy surfaces it.
	ErrClaimMismatch = errors.New("vault: claimed amount does not match balance")

	// ErrTransferFailed indicates the bound token refused or failed a transfer.
	ErrTransferFailed = errors.New("vault: token transfer failed")

	// ErrInvalidPrincipal indicates a zero address where a real principal is
	// required.
	ErrInvalidPrincipal = errors.New("vault: invalid principal address")

	// ErrVersionOverflow indicates a balance version counter cannot be
	// incremented.
	ErrVersionOverflow = errors.New("vault: version overflow")

	// ErrInvalidPayload indicates malformed vault action payload bytes.
	ErrInvalidPayload = errors.New("vault: invalid payload")

	// ErrServiceNotConfigured indicates vault actions were dispatched before
	// the encrypted arithmetic service was installed.
	ErrServiceNotConfigured = errors.New("vault: encrypted arithmetic service not configured")
)
