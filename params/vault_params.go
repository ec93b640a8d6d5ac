// Copyright 2025 The gvault Authors
// This file is part of the gvault library.
//
// The gvault library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The gvault library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the gvault library. If not, see <http://www.gnu.org/licenses/>.

package params

import (
	"github.com/tos-network/gvault/common"
)

// TOS system addresses are fixed, well-known addresses used by the protocol.
var (
	// SysActionAddress is the sentinel To-address for system action transactions.
	// Transactions sent to this address carry a JSON-encoded SysAction in tx.Data
	// and are executed outside the EVM by the state processor.
	SysActionAddress = common.HexToAddress("0x0000000000000000000000000000000054534F31") // "TOS1"

	// VaultAddress holds the confidential vault state via storage slots and is
	// the account that owns the pooled token reserve.
	VaultAddress = common.HexToAddress("0x0000000000000000000000000000000054534F35") // "TOS5"
)

// Confidential vault parameters.
const (
	// DefaultWithdrawalDelay is the number of seconds that must elapse between
	// a withdrawal request and its completion. Fixed at construction through
	// VaultConfig; never adjustable at runtime.
	DefaultWithdrawalDelay uint64 = 3600

	// VaultCiphertextBytes is the exact wire size of an external ciphertext
	// (two compressed group elements).
	VaultCiphertextBytes = 64

	// VaultProofBytes is the exact wire size of an external input proof
	// (commitment point, response scalar, binding hash).
	VaultProofBytes = 96

	// MaxCreditBatch caps the number of recipients in a single batch credit.
	MaxCreditBatch = 256

	// MaxSysActionBytes caps the encoded size of a system action envelope.
	MaxSysActionBytes = 128 * 1024
)

// Gas schedule for vault actions, charged on top of the intrinsic gas.
const (
	// VaultCreditGas is charged per credited recipient and covers input proof
	// verification plus two homomorphic additions (balance and running total).
	VaultCreditGas uint64 = 120_000

	// VaultRequestGas covers recording a pending withdrawal.
	VaultRequestGas uint64 = 30_000

	// VaultCancelGas covers clearing a pending withdrawal.
	VaultCancelGas uint64 = 20_000

	// VaultCompleteGas covers the encrypted reconciliation (equality plus
	// select), the balance rewrite and the token payout.
	VaultCompleteGas uint64 = 180_000

	// VaultDepositGas covers a custody pool deposit through the bound token.
	VaultDepositGas uint64 = 60_000

	// VaultAdminGas covers ownership transfer, token rebinding and the
	// emergency pool drain.
	VaultAdminGas uint64 = 40_000
)

// SysActionGas is the fixed gas cost charged for any system action transaction,
// on top of the intrinsic gas and the per-action schedule.
const SysActionGas uint64 = 100_000
