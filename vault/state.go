package vault

import (
	"encoding/binary"
	"math"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/vm"
	"github.com/tos-network/gvault/crypto"
	"github.com/tos-network/gvault/fhe"
	"github.com/tos-network/gvault/params"
)

// Fixed storage slots under params.VaultAddress.
var (
	OwnerSlot        = crypto.Keccak256Hash([]byte("gvault.vault.owner"))
	TokenSlot        = crypto.Keccak256Hash([]byte("gvault.vault.token"))
	TotalSlot        = crypto.Keccak256Hash([]byte("gvault.vault.totalDistributed"))
	TotalVersionSlot = crypto.Keccak256Hash([]byte("gvault.vault.totalVersion"))
)

// Per-account storage fields, hashed together with the account address.
const (
	fieldBalance     = "balance"
	fieldVersion     = "version"
	fieldPendingAmt  = "pendingClaim"
	fieldPendingTime = "pendingSince"
)

func accountSlot(account common.Address, field string) common.Hash {
	key := append(account.Bytes(), []byte(field)...)
	return common.BytesToHash(crypto.Keccak256(key))
}

func uint64ToWord(v uint64) common.Hash {
	var word common.Hash
	binary.BigEndian.PutUint64(word[24:], v)
	return word
}

func wordToUint64(word common.Hash) uint64 {
	return binary.BigEndian.Uint64(word[24:])
}

// AccountState is one account's stored confidential balance. A zero Balance
// handle means the account was never credited; readers normalize it to the
// canonical trivial-zero handle without writing state.
type AccountState struct {
	Balance fhe.Value
	Version uint64
}

// PendingWithdrawal is an account's in-flight withdrawal request. A zero
// ClaimedAmount means nothing is pending; zero claims are rejected at
// request time so the sentinel is unambiguous.
type PendingWithdrawal struct {
	ClaimedAmount uint64
	RequestedAt   uint64
}

// Exists reports whether a request is actually pending.
func (p PendingWithdrawal) Exists() bool {
	return p.ClaimedAmount != 0
}

func GetAccountState(db vm.StateDB, account common.Address) AccountState {
	return AccountState{
		Balance: fhe.Value(db.GetState(params.VaultAddress, accountSlot(account, fieldBalance))),
		Version: wordToUint64(db.GetState(params.VaultAddress, accountSlot(account, fieldVersion))),
	}
}

func setAccountState(db vm.StateDB, account common.Address, st AccountState) {
	db.SetState(params.VaultAddress, accountSlot(account, fieldBalance), st.Balance.Hash())
	db.SetState(params.VaultAddress, accountSlot(account, fieldVersion), uint64ToWord(st.Version))
}

// setBalance installs a new balance handle for account, bumping its version.
// It returns the new version.
func setBalance(db vm.StateDB, account common.Address, next fhe.Value) (uint64, error) {
	current := GetAccountState(db, account)
	if current.Version == math.MaxUint64 {
		return 0, ErrVersionOverflow
	}
	current.Balance = next
	current.Version++
	setAccountState(db, account, current)
	return current.Version, nil
}

func GetPendingWithdrawal(db vm.StateDB, account common.Address) PendingWithdrawal {
	return PendingWithdrawal{
		ClaimedAmount: wordToUint64(db.GetState(params.VaultAddress, accountSlot(account, fieldPendingAmt))),
		RequestedAt:   wordToUint64(db.GetState(params.VaultAddress, accountSlot(account, fieldPendingTime))),
	}
}

func setPendingWithdrawal(db vm.StateDB, account common.Address, p PendingWithdrawal) {
	db.SetState(params.VaultAddress, accountSlot(account, fieldPendingAmt), uint64ToWord(p.ClaimedAmount))
	db.SetState(params.VaultAddress, accountSlot(account, fieldPendingTime), uint64ToWord(p.RequestedAt))
}

func clearPendingWithdrawal(db vm.StateDB, account common.Address) {
	db.SetState(params.VaultAddress, accountSlot(account, fieldPendingAmt), common.Hash{})
	db.SetState(params.VaultAddress, accountSlot(account, fieldPendingTime), common.Hash{})
}

// GetOwner returns the current vault owner. The zero address means the vault
// was never initialized; every owner-gated action then fails.
func GetOwner(db vm.StateDB) common.Address {
	return common.BytesToAddress(db.GetState(params.VaultAddress, OwnerSlot).Bytes())
}

func setOwner(db vm.StateDB, owner common.Address) {
	db.SetState(params.VaultAddress, OwnerSlot, common.BytesToHash(owner.Bytes()))
}

// GetTokenAddress returns the bound custody token address.
func GetTokenAddress(db vm.StateDB) common.Address {
	return common.BytesToAddress(db.GetState(params.VaultAddress, TokenSlot).Bytes())
}

func setTokenAddress(db vm.StateDB, tokenAddr common.Address) {
	db.SetState(params.VaultAddress, TokenSlot, common.BytesToHash(tokenAddr.Bytes()))
}

// GetTotalDistributed returns the encrypted running sum of every credit ever
// made, with its version counter. Withdrawals never decrease it.
func GetTotalDistributed(db vm.StateDB) (fhe.Value, uint64) {
	handle := fhe.Value(db.GetState(params.VaultAddress, TotalSlot))
	version := wordToUint64(db.GetState(params.VaultAddress, TotalVersionSlot))
	return handle, version
}

func setTotalDistributed(db vm.StateDB, next fhe.Value) (uint64, error) {
	_, version := GetTotalDistributed(db)
	if version == math.MaxUint64 {
		return 0, ErrVersionOverflow
	}
	version++
	db.SetState(params.VaultAddress, TotalSlot, next.Hash())
	db.SetState(params.VaultAddress, TotalVersionSlot, uint64ToWord(version))
	return version, nil
}
