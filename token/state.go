package token

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/vm"
	"github.com/tos-network/gvault/crypto"
)

// Ledger is a fungible token whose books live in the storage of its own
// address. Balances and allowances are 256 bit words, all arithmetic is
// overflow checked.
type Ledger struct {
	addr common.Address
}

// At binds a Ledger to the token address holding its books.
func At(addr common.Address) *Ledger {
	return &Ledger{addr: addr}
}

// --- slot derivation ---

func balanceSlot(holder common.Address, field string) common.Hash {
	key := append(holder.Bytes(), []byte(field)...)
	return common.BytesToHash(crypto.Keccak256(key))
}

func allowanceSlot(owner, spender common.Address) common.Hash {
	key := append(owner.Bytes(), spender.Bytes()...)
	key = append(key, []byte("allowance")...)
	return common.BytesToHash(crypto.Keccak256(key))
}

var zeroAddr = common.Address{}

// --- word helpers ---

func getWord(db vm.StateDB, addr common.Address, slot common.Hash) *uint256.Int {
	word := db.GetState(addr, slot)
	return new(uint256.Int).SetBytes(word[:])
}

func setWord(db vm.StateDB, addr common.Address, slot common.Hash, value *uint256.Int) {
	db.SetState(addr, slot, common.Hash(value.Bytes32()))
}

// amountWord converts an interface amount, rejecting nil, negatives and
// values beyond 256 bits.
func amountWord(amount *big.Int) (*uint256.Int, bool) {
	if amount == nil || amount.Sign() < 0 {
		return nil, false
	}
	word, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, false
	}
	return word, true
}

func (l *Ledger) Address() common.Address {
	return l.addr
}

func (l *Ledger) TotalSupply(db vm.StateDB) *big.Int {
	return getWord(db, l.addr, balanceSlot(zeroAddr, "totalSupply")).ToBig()
}

func (l *Ledger) BalanceOf(db vm.StateDB, holder common.Address) *big.Int {
	return getWord(db, l.addr, balanceSlot(holder, "balance")).ToBig()
}

func (l *Ledger) Transfer(db vm.StateDB, caller, recipient common.Address, amount *big.Int) bool {
	word, ok := amountWord(amount)
	if !ok {
		return false
	}
	return l.move(db, caller, recipient, word)
}

func (l *Ledger) TransferFrom(db vm.StateDB, spender, owner, recipient common.Address, amount *big.Int) bool {
	word, ok := amountWord(amount)
	if !ok {
		return false
	}
	slot := allowanceSlot(owner, spender)
	allowance := getWord(db, l.addr, slot)
	if allowance.Lt(word) {
		return false
	}
	if !l.move(db, owner, recipient, word) {
		return false
	}
	setWord(db, l.addr, slot, new(uint256.Int).Sub(allowance, word))
	return true
}

func (l *Ledger) Approve(db vm.StateDB, caller, spender common.Address, amount *big.Int) bool {
	word, ok := amountWord(amount)
	if !ok {
		return false
	}
	setWord(db, l.addr, allowanceSlot(caller, spender), word)
	return true
}

func (l *Ledger) Allowance(db vm.StateDB, owner, spender common.Address) *big.Int {
	return getWord(db, l.addr, allowanceSlot(owner, spender)).ToBig()
}

// Mint creates amount new tokens for recipient. Minting is a genesis and
// test facility, it is not reachable through any action.
func (l *Ledger) Mint(db vm.StateDB, recipient common.Address, amount *big.Int) bool {
	word, ok := amountWord(amount)
	if !ok {
		return false
	}
	supplySlot := balanceSlot(zeroAddr, "totalSupply")
	supply, overflow := new(uint256.Int).AddOverflow(getWord(db, l.addr, supplySlot), word)
	if overflow {
		return false
	}
	balSlot := balanceSlot(recipient, "balance")
	balance, overflow := new(uint256.Int).AddOverflow(getWord(db, l.addr, balSlot), word)
	if overflow {
		return false
	}
	setWord(db, l.addr, supplySlot, supply)
	setWord(db, l.addr, balSlot, balance)
	return true
}

// move debits from and credits to, refusing on insufficient balance or
// recipient overflow.
func (l *Ledger) move(db vm.StateDB, from, to common.Address, word *uint256.Int) bool {
	fromSlot := balanceSlot(from, "balance")
	fromBal := getWord(db, l.addr, fromSlot)
	if fromBal.Lt(word) {
		return false
	}
	if from == to {
		return true
	}
	toSlot := balanceSlot(to, "balance")
	toBal, overflow := new(uint256.Int).AddOverflow(getWord(db, l.addr, toSlot), word)
	if overflow {
		return false
	}
	setWord(db, l.addr, fromSlot, new(uint256.Int).Sub(fromBal, word))
	setWord(db, l.addr, toSlot, toBal)
	return true
}
