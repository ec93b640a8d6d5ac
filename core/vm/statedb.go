// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package vm provides the GVAULT execution environment. There is no bytecode
// interpreter; execution is handled via system actions or plain TOS transfers,
// and this package defines the state access surface those handlers run against.
package vm

import (
	"math/big"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/types"
)

// StateDB is an interface for full state querying. System action handlers
// mutate the world state exclusively through this interface, which keeps them
// testable against the in-memory implementation.
type StateDB interface {
	CreateAccount(common.Address)

	SubBalance(common.Address, *big.Int)
	AddBalance(common.Address, *big.Int)
	GetBalance(common.Address) *big.Int

	GetNonce(common.Address) uint64
	SetNonce(common.Address, uint64)

	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash)

	// Exist reports whether the given account exists in state.
	// Notably this should also return true for suicided accounts.
	Exist(common.Address) bool
	// Empty returns whether the given account is empty. Empty
	// is defined according to EIP161 (balance = nonce = code = 0).
	Empty(common.Address) bool

	AddRefund(uint64)
	SubRefund(uint64)
	GetRefund() uint64

	RevertToSnapshot(int)
	Snapshot() int

	AddLog(*types.Log)
}
