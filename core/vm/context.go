// Copyright 2014 The go-ethereum Authors
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

package vm

import (
	"math/big"

	"github.com/tos-network/gvault/common"
)

// CanTransferFunc is the signature of a transfer guard function.
type CanTransferFunc func(StateDB, common.Address, *big.Int) bool

// TransferFunc is the signature of a transfer function.
type TransferFunc func(StateDB, common.Address, common.Address, *big.Int)

// BlockContext provides auxiliary information for transaction processing.
type BlockContext struct {
	// CanTransfer returns whether the account contains
	// sufficient TOS to transfer the value.
	CanTransfer CanTransferFunc
	// Transfer transfers TOS from one account to the other.
	Transfer TransferFunc

	Coinbase    common.Address // Provides information for COINBASE
	GasLimit    uint64         // Provides information for GASLIMIT
	BlockNumber *big.Int       // Provides information for NUMBER
	Time        uint64         // Block timestamp in unix seconds, gates the withdrawal delay
}
