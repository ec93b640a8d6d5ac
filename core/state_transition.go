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

package core

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/vm"
	"github.com/tos-network/gvault/params"
	"github.com/tos-network/gvault/sysaction"
	"github.com/tos-network/gvault/vault"
)

// StateTransition handles GVAULT state transitions.
// Smart contract execution is not supported; only plain TOS transfers and
// system actions are allowed.
type StateTransition struct {
	gp          *GasPool
	msg         Message
	gas         uint64
	txPrice     *big.Int
	initialGas  uint64
	value       *big.Int
	data        []byte
	state       vm.StateDB
	blockCtx    vm.BlockContext
	chainConfig *params.ChainConfig
}

// Message contains the data derived from a single transaction that is
// relevant to state processing.
type Message interface {
	From() common.Address
	To() *common.Address

	TxPrice() *big.Int
	Gas() uint64
	Value() *big.Int

	Nonce() uint64
	IsFake() bool
	Data() []byte
}

// ExecutionResult includes all output after executing a given message.
type ExecutionResult struct {
	UsedGas uint64 // Total used gas (including refunded gas)
	Err     error  // Any error encountered during execution
}

// Unwrap returns the internal error.
func (result *ExecutionResult) Unwrap() error {
	return result.Err
}

// Failed returns true if the execution failed.
func (result *ExecutionResult) Failed() bool { return result.Err != nil }

// ErrContractNotSupported is returned when a transaction attempts to deploy or
// call a smart contract, which is not supported in GVAULT.
var ErrContractNotSupported = errors.New("smart contract execution not supported in GVAULT")

// IntrinsicGas computes the 'intrinsic gas' for a message with the given data.
func IntrinsicGas(data []byte) (uint64, error) {
	gas := params.TxGas
	if len(data) > 0 {
		var nz uint64
		for _, byt := range data {
			if byt != 0 {
				nz++
			}
		}
		if (math.MaxUint64-gas)/params.TxDataNonZeroGas < nz {
			return 0, ErrGasUintOverflow
		}
		gas += nz * params.TxDataNonZeroGas

		z := uint64(len(data)) - nz
		if (math.MaxUint64-gas)/params.TxDataZeroGas < z {
			return 0, ErrGasUintOverflow
		}
		gas += z * params.TxDataZeroGas
	}
	return gas, nil
}

// NewStateTransition initialises and returns a new state transition object.
func NewStateTransition(blockCtx vm.BlockContext, chainConfig *params.ChainConfig, msg Message, gp *GasPool, statedb vm.StateDB) *StateTransition {
	return &StateTransition{
		gp:          gp,
		msg:         msg,
		txPrice:     msg.TxPrice(),
		value:       msg.Value(),
		data:        msg.Data(),
		state:       statedb,
		blockCtx:    blockCtx,
		chainConfig: chainConfig,
	}
}

// ApplyMessage computes the new state by applying the given message
// against the old state within the environment.
func ApplyMessage(blockCtx vm.BlockContext, chainConfig *params.ChainConfig, msg Message, gp *GasPool, statedb vm.StateDB) (*ExecutionResult, error) {
	return NewStateTransition(blockCtx, chainConfig, msg, gp, statedb).TransitionDb()
}

// to returns the recipient of the message.
func (st *StateTransition) to() common.Address {
	if st.msg == nil || st.msg.To() == nil {
		return common.Address{}
	}
	return *st.msg.To()
}

func (st *StateTransition) buyGas() error {
	mgval := new(big.Int).SetUint64(st.msg.Gas())
	mgval = mgval.Mul(mgval, st.txPrice)
	balanceCheck := new(big.Int).Set(mgval)
	if st.value != nil {
		balanceCheck.Add(balanceCheck, st.value)
	}
	if have, want := st.state.GetBalance(st.msg.From()), balanceCheck; have.Cmp(want) < 0 {
		return fmt.Errorf("%w: address %v have %v want %v", ErrInsufficientFunds, st.msg.From().Hex(), have, want)
	}
	if err := st.gp.SubGas(st.msg.Gas()); err != nil {
		return err
	}
	st.gas += st.msg.Gas()
	st.initialGas = st.msg.Gas()
	st.state.SubBalance(st.msg.From(), mgval)
	return nil
}

func (st *StateTransition) preCheck() error {
	if !st.msg.IsFake() {
		stNonce := st.state.GetNonce(st.msg.From())
		if msgNonce := st.msg.Nonce(); stNonce < msgNonce {
			return fmt.Errorf("%w: address %v, tx: %d state: %d", ErrNonceTooHigh,
				st.msg.From().Hex(), msgNonce, stNonce)
		} else if stNonce > msgNonce {
			return fmt.Errorf("%w: address %v, tx: %d state: %d", ErrNonceTooLow,
				st.msg.From().Hex(), msgNonce, stNonce)
		} else if stNonce+1 < stNonce {
			return fmt.Errorf("%w: address %v, nonce: %d", ErrNonceMax,
				st.msg.From().Hex(), stNonce)
		}
	}
	return st.buyGas()
}

// TransitionDb transitions the state by applying the current message.
//
// GVAULT transaction rules:
//  1. System action address (params.SysActionAddress): decode tx.Data as a
//     system action envelope and dispatch to the registered handler.
//     Malformed envelopes invalidate the transaction; handler failures
//     consume gas and revert the action's state writes, but the transaction
//     itself stays valid.
//  2. Plain TOS transfer (To != nil, empty data): transfer value.
//  3. Contract creation (To == nil) and transactions carrying data to other
//     addresses: rejected.
func (st *StateTransition) TransitionDb() (*ExecutionResult, error) {
	if err := st.preCheck(); err != nil {
		return nil, err
	}

	msg := st.msg
	if msg.To() == nil {
		return nil, ErrContractNotSupported
	}

	// Increment nonce for all real transactions.
	st.state.SetNonce(msg.From(), st.state.GetNonce(msg.From())+1)

	// Subtract intrinsic gas
	gas, err := IntrinsicGas(st.data)
	if err != nil {
		return nil, err
	}
	if st.gas < gas {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, st.gas, gas)
	}
	st.gas -= gas

	var vmerr error
	if toAddr := st.to(); toAddr == params.SysActionAddress {
		sa, err := sysaction.Decode(st.data)
		if err != nil {
			return nil, err
		}
		vmerr = st.applyAction(sa)
	} else {
		if st.value != nil && st.value.Sign() > 0 && !st.blockCtx.CanTransfer(st.state, msg.From(), st.value) {
			return nil, fmt.Errorf("%w: address %v", ErrInsufficientFundsForTransfer, msg.From().Hex())
		}
		if len(st.data) > 0 {
			// Data with no system destination: reject
			vmerr = ErrContractNotSupported
		} else if st.value != nil && st.value.Sign() > 0 {
			st.blockCtx.Transfer(st.state, msg.From(), toAddr, st.value)
		}
	}

	// Refund gas
	st.refundGas(params.RefundQuotient)

	// Pay miner fee by fixed txPrice
	fee := new(big.Int).SetUint64(st.gasUsed())
	fee.Mul(fee, st.txPrice)
	st.state.AddBalance(st.blockCtx.Coinbase, fee)

	return &ExecutionResult{
		UsedGas: st.gasUsed(),
		Err:     vmerr,
	}, nil
}

// applyAction runs a decoded system action against the current state.
// Action gas is charged up front so a failing handler still pays for the
// work it triggered, and handler failures roll the state back to the
// pre-action snapshot. The snapshot is what makes multi-step actions such
// as batch credits and withdrawal completion all-or-nothing.
func (st *StateTransition) applyAction(sa *sysaction.SysAction) error {
	if st.value != nil && st.value.Sign() != 0 {
		return ErrContractNotSupported
	}
	charge := actionCharge(sa)
	if st.gas < charge {
		return ErrIntrinsicGas
	}
	st.gas -= charge

	ctx := &sysaction.Context{
		From:        st.msg.From(),
		Value:       st.value,
		BlockNumber: st.blockCtx.BlockNumber,
		Time:        st.blockCtx.Time,
		StateDB:     st.state,
		ChainConfig: st.chainConfig,
	}
	snapshot := st.state.Snapshot()
	if err := sysaction.DefaultRegistry.Dispatch(ctx, sa); err != nil {
		st.state.RevertToSnapshot(snapshot)
		return err
	}
	return nil
}

// actionCharge returns the gas charged for a decoded system action on top
// of the intrinsic transaction gas. Batch credits pay per recipient, so the
// payload is peeked for its fan-out before the handler runs.
func actionCharge(sa *sysaction.SysAction) uint64 {
	n := 0
	if sa.Action == sysaction.ActionVaultCreditBatch {
		var p sysaction.CreditBatchPayload
		if err := sysaction.DecodePayload(sa, &p); err == nil {
			n = len(p.Recipients)
		}
	}
	return params.SysActionGas + vault.ActionGas(sa.Action, n)
}

func (st *StateTransition) refundGas(refundQuotient uint64) {
	// Apply refund counter, capped to a refund quotient
	refund := st.gasUsed() / refundQuotient
	if refund > st.state.GetRefund() {
		refund = st.state.GetRefund()
	}
	st.gas += refund

	// Return TOS for remaining gas, exchanged at the original rate.
	remaining := new(big.Int).Mul(new(big.Int).SetUint64(st.gas), st.txPrice)
	st.state.AddBalance(st.msg.From(), remaining)

	// Also return remaining gas to the block gas counter so it is
	// available for the next transaction.
	st.gp.AddGas(st.gas)
}

// gasUsed returns the amount of gas used up by the state transition.
func (st *StateTransition) gasUsed() uint64 {
	return st.initialGas - st.gas
}
