package vault

import (
	"fmt"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/vm"
	"github.com/tos-network/gvault/params"
)

// Credit ingests an externally encrypted amount and adds it to recipient's
// confidential balance. Owner only. The ciphertext carries its input proof;
// a proof that does not verify for the caller aborts with ErrInvalidProof
// before any state is written.
func (v *Vault) Credit(db vm.StateDB, caller, recipient common.Address, ciphertext, proof []byte) error {
	if err := v.requireOwner(db, caller); err != nil {
		return fmt.Errorf("credit: %w", err)
	}
	if err := v.creditOne(db, caller, recipient, ciphertext, proof); err != nil {
		return fmt.Errorf("credit: %w", err)
	}
	return nil
}

// BatchCredit applies Credit element-wise over three parallel arrays.
// Shape problems (unequal lengths, oversize batch, malformed elements) are
// rejected before any element executes. Per-element semantics are identical
// to Credit: duplicate recipients are legal and later elements observe
// earlier writes. Atomicity across elements is provided by the caller's
// snapshot, not here.
func (v *Vault) BatchCredit(db vm.StateDB, caller common.Address, recipients []common.Address, ciphertexts, proofs [][]byte) error {
	if err := v.requireOwner(db, caller); err != nil {
		return fmt.Errorf("batch credit: %w", err)
	}
	if len(recipients) != len(ciphertexts) || len(recipients) != len(proofs) {
		return fmt.Errorf("batch credit: %d recipients, %d ciphertexts, %d proofs: %w",
			len(recipients), len(ciphertexts), len(proofs), ErrLengthMismatch)
	}
	if len(recipients) > params.MaxCreditBatch {
		return fmt.Errorf("batch credit: %d recipients exceeds %d: %w",
			len(recipients), params.MaxCreditBatch, ErrInvalidPayload)
	}
	for i := range recipients {
		if err := checkExternalShape(recipients[i], ciphertexts[i], proofs[i]); err != nil {
			return fmt.Errorf("batch credit [%d]: %w", i, err)
		}
	}
	for i := range recipients {
		if err := v.creditOne(db, caller, recipients[i], ciphertexts[i], proofs[i]); err != nil {
			return fmt.Errorf("batch credit [%d]: %w", i, err)
		}
	}
	return nil
}

// checkExternalShape validates the fixed wire sizes of one credit element.
func checkExternalShape(recipient common.Address, ciphertext, proof []byte) error {
	if recipient == (common.Address{}) {
		return ErrInvalidPrincipal
	}
	if len(ciphertext) != params.VaultCiphertextBytes {
		return fmt.Errorf("%w: ciphertext is %d bytes, want %d", ErrInvalidPayload, len(ciphertext), params.VaultCiphertextBytes)
	}
	if len(proof) != params.VaultProofBytes {
		return fmt.Errorf("%w: proof is %d bytes, want %d", ErrInvalidPayload, len(proof), params.VaultProofBytes)
	}
	return nil
}

// creditOne runs the shared single-recipient credit path. Capability grants
// to the recipient and owner happen last, after every fallible step.
func (v *Vault) creditOne(db vm.StateDB, caller, recipient common.Address, ciphertext, proof []byte) error {
	if err := checkExternalShape(recipient, ciphertext, proof); err != nil {
		return err
	}

	amount, err := v.svc.FromExternal(caller, ciphertext, proof)
	if err != nil {
		return fmt.Errorf("ingest: %w", mapServiceError(err))
	}
	if err := v.svc.Allow(caller, amount, params.VaultAddress); err != nil {
		return fmt.Errorf("ingest: %w", mapServiceError(err))
	}

	balance, err := v.BalanceOf(db, recipient)
	if err != nil {
		return fmt.Errorf("balance of %s: %w", recipient, mapServiceError(err))
	}
	nextBalance, err := v.svc.Add(params.VaultAddress, amount, balance)
	if err != nil {
		return fmt.Errorf("add balance: %w", mapServiceError(err))
	}
	version, err := setBalance(db, recipient, nextBalance)
	if err != nil {
		return err
	}

	total, _ := GetTotalDistributed(db)
	if total.IsZero() {
		if total, err = v.svc.TrivialEncrypt(0); err != nil {
			return fmt.Errorf("total: %w", mapServiceError(err))
		}
	}
	nextTotal, err := v.svc.Add(params.VaultAddress, amount, total)
	if err != nil {
		return fmt.Errorf("add total: %w", mapServiceError(err))
	}
	if _, err := setTotalDistributed(db, nextTotal); err != nil {
		return err
	}

	if err := v.svc.Allow(params.VaultAddress, nextBalance, recipient); err != nil {
		return fmt.Errorf("grant balance: %w", mapServiceError(err))
	}
	if err := v.svc.Allow(params.VaultAddress, nextTotal, caller); err != nil {
		return fmt.Errorf("grant total: %w", mapServiceError(err))
	}

	emitRecipientCredited(db, recipient)
	creditMeter.Mark(1)
	v.log.Debug("credited recipient", "recipient", recipient, "version", version)
	return nil
}
