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

package state

import (
	"math/big"
	"testing"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/types"
	"github.com/tos-network/gvault/tosdb/memorydb"
)

func newTestState(t *testing.T) *StateDB {
	t.Helper()
	statedb, err := New(NewDatabase(memorydb.New()))
	if err != nil {
		t.Fatalf("failed to create state: %v", err)
	}
	return statedb
}

func TestNull(t *testing.T) {
	state := newTestState(t)

	address := common.HexToAddress("0x823140710bf13990e4500136726d8b55")
	state.CreateAccount(address)

	var value common.Hash
	state.SetState(address, common.Hash{}, value)

	if value := state.GetState(address, common.Hash{}); value != (common.Hash{}) {
		t.Errorf("expected empty current value, got %x", value)
	}
	if value := state.GetCommittedState(address, common.Hash{}); value != (common.Hash{}) {
		t.Errorf("expected empty committed value, got %x", value)
	}
}

func TestSnapshot(t *testing.T) {
	stateobjaddr := common.HexToAddress("0x01")
	var storageaddr common.Hash
	data1 := common.BytesToHash([]byte{42})
	data2 := common.BytesToHash([]byte{43})
	state := newTestState(t)

	// snapshot the genesis state
	genesis := state.Snapshot()

	// set initial state object value
	state.SetState(stateobjaddr, storageaddr, data1)
	snapshot := state.Snapshot()

	// set a new state object value, revert it and ensure correct content
	state.SetState(stateobjaddr, storageaddr, data2)
	state.RevertToSnapshot(snapshot)

	if v := state.GetState(stateobjaddr, storageaddr); v != data1 {
		t.Errorf("wrong storage value %v, want %v", v, data1)
	}
	if v := state.GetCommittedState(stateobjaddr, storageaddr); v != (common.Hash{}) {
		t.Errorf("wrong committed storage value %v, want %v", v, common.Hash{})
	}
	// revert up to the genesis state and ensure correct content
	state.RevertToSnapshot(genesis)
	if v := state.GetState(stateobjaddr, storageaddr); v != (common.Hash{}) {
		t.Errorf("wrong storage value %v, want %v", v, common.Hash{})
	}
}

func TestSnapshotEmpty(t *testing.T) {
	state := newTestState(t)
	state.RevertToSnapshot(state.Snapshot())
}

func TestSnapshotBalance(t *testing.T) {
	state := newTestState(t)
	addr := common.HexToAddress("0xaa")

	state.AddBalance(addr, big.NewInt(100))
	snap := state.Snapshot()
	state.AddBalance(addr, big.NewInt(50))
	state.SetNonce(addr, 7)

	state.RevertToSnapshot(snap)
	if got := state.GetBalance(addr); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("balance after revert = %v, want 100", got)
	}
	if got := state.GetNonce(addr); got != 0 {
		t.Errorf("nonce after revert = %d, want 0", got)
	}
}

func TestSnapshotLogs(t *testing.T) {
	state := newTestState(t)
	txhash := common.HexToHash("0x11")
	state.Prepare(txhash, 0)

	state.AddLog(&types.Log{Address: common.HexToAddress("0x01")})
	snap := state.Snapshot()
	state.AddLog(&types.Log{Address: common.HexToAddress("0x02")})

	if got := len(state.GetLogs(txhash, 0, common.Hash{})); got != 2 {
		t.Fatalf("log count = %d, want 2", got)
	}
	state.RevertToSnapshot(snap)
	logs := state.GetLogs(txhash, 1, common.HexToHash("0xbb"))
	if len(logs) != 1 {
		t.Fatalf("log count after revert = %d, want 1", len(logs))
	}
	if logs[0].Address != common.HexToAddress("0x01") {
		t.Errorf("surviving log address = %x", logs[0].Address)
	}
	if logs[0].BlockNumber != 1 || logs[0].BlockHash != common.HexToHash("0xbb") {
		t.Errorf("log not annotated with block context: %+v", logs[0])
	}
	if logs[0].TxHash != txhash || logs[0].Index != 0 {
		t.Errorf("log not annotated with tx context: %+v", logs[0])
	}
}

func TestRefund(t *testing.T) {
	state := newTestState(t)

	state.AddRefund(100)
	snap := state.Snapshot()
	state.AddRefund(50)
	if got := state.GetRefund(); got != 150 {
		t.Fatalf("refund = %d, want 150", got)
	}
	state.SubRefund(25)
	if got := state.GetRefund(); got != 125 {
		t.Fatalf("refund = %d, want 125", got)
	}
	state.RevertToSnapshot(snap)
	if got := state.GetRefund(); got != 100 {
		t.Fatalf("refund after revert = %d, want 100", got)
	}
}

func TestCommitPersists(t *testing.T) {
	mem := memorydb.New()
	db := NewDatabase(mem)

	state, err := New(db)
	if err != nil {
		t.Fatalf("failed to create state: %v", err)
	}
	addr := common.HexToAddress("0x01")
	slot := common.HexToHash("0x02")
	value := common.HexToHash("0x03")

	state.AddBalance(addr, big.NewInt(42))
	state.SetNonce(addr, 3)
	state.SetState(addr, slot, value)
	if err := state.Commit(); err != nil {
		t.Fatalf("failed to commit state: %v", err)
	}

	// A fresh state over the same database must observe the committed data.
	reopened, err := New(db)
	if err != nil {
		t.Fatalf("failed to reopen state: %v", err)
	}
	if got := reopened.GetBalance(addr); got.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("balance = %v, want 42", got)
	}
	if got := reopened.GetNonce(addr); got != 3 {
		t.Errorf("nonce = %d, want 3", got)
	}
	if got := reopened.GetState(addr, slot); got != value {
		t.Errorf("slot = %x, want %x", got, value)
	}

	// And so must a state served straight from disk, bypassing the clean cache.
	cold, err := New(NewDatabase(mem))
	if err != nil {
		t.Fatalf("failed to reopen cold state: %v", err)
	}
	if got := cold.GetState(addr, slot); got != value {
		t.Errorf("cold slot = %x, want %x", got, value)
	}
}

func TestCommitDeletesZeroSlots(t *testing.T) {
	mem := memorydb.New()
	db := NewDatabase(mem)

	state, err := New(db)
	if err != nil {
		t.Fatalf("failed to create state: %v", err)
	}
	addr := common.HexToAddress("0x01")
	slot := common.HexToHash("0x02")

	state.SetState(addr, slot, common.HexToHash("0x03"))
	if err := state.Commit(); err != nil {
		t.Fatalf("failed to commit state: %v", err)
	}
	state.SetState(addr, slot, common.Hash{})
	if err := state.Commit(); err != nil {
		t.Fatalf("failed to commit state: %v", err)
	}

	if ok, _ := mem.Has(storageKey(addr, slot)); ok {
		t.Errorf("zeroed slot still present on disk")
	}
	cold, err := New(NewDatabase(mem))
	if err != nil {
		t.Fatalf("failed to reopen cold state: %v", err)
	}
	if got := cold.GetState(addr, slot); got != (common.Hash{}) {
		t.Errorf("slot = %x, want zero", got)
	}
}

func TestFinaliseKeepsBlockVisibility(t *testing.T) {
	state := newTestState(t)
	addr := common.HexToAddress("0x01")
	slot := common.HexToHash("0x02")
	value := common.HexToHash("0x03")

	state.SetState(addr, slot, value)
	state.Finalise()

	// A later transaction in the same block sees the finalised write both as
	// current and as committed state.
	if got := state.GetState(addr, slot); got != value {
		t.Errorf("slot = %x, want %x", got, value)
	}
	if got := state.GetCommittedState(addr, slot); got != value {
		t.Errorf("committed slot = %x, want %x", got, value)
	}
	// The finalised write is no longer revertible.
	state.RevertToSnapshot(state.Snapshot())
	if got := state.GetState(addr, slot); got != value {
		t.Errorf("slot after revert = %x, want %x", got, value)
	}
}

func TestCreateObjectRevert(t *testing.T) {
	state := newTestState(t)
	addr := common.HexToAddress("0x01")

	snap := state.Snapshot()
	state.AddBalance(addr, big.NewInt(1))
	if !state.Exist(addr) {
		t.Fatalf("account missing after creation")
	}
	state.RevertToSnapshot(snap)
	if state.Exist(addr) {
		t.Errorf("account still exists after revert")
	}
}
