// Package sysaction implements the GVAULT system action protocol.
//
// System actions are special transactions sent to params.SysActionAddress.
// Their tx.Data field is a JSON-encoded SysAction message. No bytecode is
// ever interpreted; the state processor calls core.ApplyAction which
// dispatches to the appropriate handler (e.g. vault).
package sysaction

import (
	"encoding/json"

	"github.com/tos-network/gvault/common/hexutil"
)

// ActionKind identifies the type of system action.
type ActionKind string

const (
	// Confidential ledger
	ActionVaultCredit      ActionKind = "VAULT_CREDIT"
	ActionVaultCreditBatch ActionKind = "VAULT_CREDIT_BATCH"

	// Withdrawal coordination
	ActionVaultWithdrawRequest  ActionKind = "VAULT_WITHDRAW_REQUEST"
	ActionVaultWithdrawCancel   ActionKind = "VAULT_WITHDRAW_CANCEL"
	ActionVaultWithdrawComplete ActionKind = "VAULT_WITHDRAW_COMPLETE"

	// Asset custody
	ActionVaultDeposit           ActionKind = "VAULT_DEPOSIT"
	ActionVaultEmergencyWithdraw ActionKind = "VAULT_EMERGENCY_WITHDRAW"

	// Administration
	ActionVaultSetToken          ActionKind = "VAULT_SET_TOKEN"
	ActionVaultTransferOwnership ActionKind = "VAULT_TRANSFER_OWNERSHIP"
)

// SysAction is the top-level envelope stored in tx.Data for system action txs.
type SysAction struct {
	Action  ActionKind      `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreditPayload is the payload for VAULT_CREDIT: one externally encrypted
// amount for one recipient, with the sender's knowledge proof.
type CreditPayload struct {
	Recipient  string        `json:"recipient"`
	Ciphertext hexutil.Bytes `json:"ciphertext"`
	Proof      hexutil.Bytes `json:"proof"`
}

// CreditBatchPayload is the payload for VAULT_CREDIT_BATCH. The three
// arrays are parallel: element i describes one credit. Handlers reject
// envelopes whose array lengths disagree.
type CreditBatchPayload struct {
	Recipients  []string        `json:"recipients"`
	Ciphertexts []hexutil.Bytes `json:"ciphertexts"`
	Proofs      []hexutil.Bytes `json:"proofs"`
}

// WithdrawRequestPayload is the payload for VAULT_WITHDRAW_REQUEST. Amount
// is the plaintext the caller claims their encrypted balance decrypts to.
type WithdrawRequestPayload struct {
	Amount uint64 `json:"amount"`
}

// DepositPayload is the payload for VAULT_DEPOSIT and
// VAULT_EMERGENCY_WITHDRAW. Amount is a token amount in decimal or
// hexadecimal syntax.
type DepositPayload struct {
	Amount string `json:"amount"`
}

// SetTokenPayload is the payload for VAULT_SET_TOKEN.
type SetTokenPayload struct {
	Token string `json:"token"`
}

// TransferOwnershipPayload is the payload for VAULT_TRANSFER_OWNERSHIP.
type TransferOwnershipPayload struct {
	NewOwner string `json:"new_owner"`
}
