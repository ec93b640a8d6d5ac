// Copyright 2021 The go-ethereum Authors
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

package types

import (
	"math/big"

	"github.com/tos-network/gvault/common"
)

// Message is a fully derived transaction and implements core.Message.
// GVAULT uses a fixed per-transaction price, so there is no fee cap or
// tip and the price is paid as-is for every unit of gas consumed.
type Message struct {
	to       *common.Address
	from     common.Address
	nonce    uint64
	amount   *big.Int
	gasLimit uint64
	txPrice  *big.Int
	data     []byte
	isFake   bool
}

// NewMessage returns a message with the given fields. Fake messages skip
// nonce and signature related pre-checks and are used for read-only calls.
func NewMessage(from common.Address, to *common.Address, nonce uint64, amount *big.Int, gasLimit uint64, txPrice *big.Int, data []byte, isFake bool) Message {
	return Message{
		from:     from,
		to:       to,
		nonce:    nonce,
		amount:   amount,
		gasLimit: gasLimit,
		txPrice:  txPrice,
		data:     data,
		isFake:   isFake,
	}
}

func (m Message) From() common.Address { return m.from }
func (m Message) To() *common.Address  { return m.to }
func (m Message) TxPrice() *big.Int    { return m.txPrice }
func (m Message) Value() *big.Int      { return m.amount }
func (m Message) Gas() uint64          { return m.gasLimit }
func (m Message) Nonce() uint64        { return m.nonce }
func (m Message) Data() []byte         { return m.data }
func (m Message) IsFake() bool         { return m.isFake }
