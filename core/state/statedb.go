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

// Package state provides a caching layer atop the key-value store backing the
// vault's accounts and storage slots.
package state

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/types"
	"github.com/tos-network/gvault/metrics"
)

type revision struct {
	id           int
	journalIndex int
}

// StateDB structs within the tos protocol are used to store anything within
// the merkle-free flat state model. It takes care of caching and storing
// nested states. It's the general query interface to retrieve:
// * Accounts
// * Storage slots
type StateDB struct {
	db *Database

	// This map holds 'live' objects, which will get modified while processing
	// a state transition. stateObjectsPending tracks the subset finalised but
	// not yet written to disk.
	stateObjects        map[common.Address]*stateObject
	stateObjectsPending map[common.Address]struct{}

	// The refund counter, also used by state transitioning.
	refund uint64

	thash   common.Hash
	txIndex int
	logs    map[common.Hash][]*types.Log
	logSize uint

	// Journal of state modifications. This is the backbone of
	// Snapshot and RevertToSnapshot.
	journal        *journal
	validRevisions []revision
	nextRevisionId int
}

// New creates a new state from a given backing database.
func New(db *Database) (*StateDB, error) {
	return &StateDB{
		db:                  db,
		stateObjects:        make(map[common.Address]*stateObject),
		stateObjectsPending: make(map[common.Address]struct{}),
		logs:                make(map[common.Hash][]*types.Log),
		journal:             newJournal(),
	}, nil
}

// Database retrieves the low level database supporting the state.
func (s *StateDB) Database() *Database {
	return s.db
}

// Prepare sets the current transaction hash and index which are used when the
// engine emits new state logs.
func (s *StateDB) Prepare(thash common.Hash, ti int) {
	s.thash = thash
	s.txIndex = ti
}

// TxIndex returns the current transaction index set by Prepare.
func (s *StateDB) TxIndex() int {
	return s.txIndex
}

// AddLog attaches a log to the current transaction. Logs are revertible
// through snapshots like every other state mutation.
func (s *StateDB) AddLog(log *types.Log) {
	s.journal.append(addLogChange{txhash: s.thash})

	log.TxHash = s.thash
	log.TxIndex = uint(s.txIndex)
	log.Index = s.logSize
	s.logs[s.thash] = append(s.logs[s.thash], log)
	s.logSize++
}

// GetLogs returns the logs matching the specified transaction hash, annotated
// with the given block number and hash.
func (s *StateDB) GetLogs(hash common.Hash, blockNumber uint64, blockHash common.Hash) []*types.Log {
	logs := s.logs[hash]
	for _, l := range logs {
		l.BlockNumber = blockNumber
		l.BlockHash = blockHash
	}
	return logs
}

// Logs returns all logs accumulated in this state, in emission order.
func (s *StateDB) Logs() []*types.Log {
	var logs []*types.Log
	for _, lgs := range s.logs {
		logs = append(logs, lgs...)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Index < logs[j].Index })
	return logs
}

// AddRefund adds gas to the refund counter.
func (s *StateDB) AddRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	s.refund += gas
}

// SubRefund removes gas from the refund counter.
// This method will panic if the refund counter goes below zero.
func (s *StateDB) SubRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	if gas > s.refund {
		panic(fmt.Sprintf("Refund counter below zero (gas: %d > refund: %d)", gas, s.refund))
	}
	s.refund -= gas
}

// GetRefund returns the current value of the refund counter.
func (s *StateDB) GetRefund() uint64 {
	return s.refund
}

// Exist reports whether the given account exists in state.
// Notably this also returns true for self-destructed accounts.
func (s *StateDB) Exist(addr common.Address) bool {
	return s.getStateObject(addr) != nil
}

// Empty returns whether the state object is either non-existent
// or empty according to the EIP161 specification (balance = nonce = 0).
func (s *StateDB) Empty(addr common.Address) bool {
	so := s.getStateObject(addr)
	return so == nil || so.empty()
}

// GetBalance retrieves the balance from the given address or 0 if object not found.
func (s *StateDB) GetBalance(addr common.Address) *big.Int {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.Balance()
	}
	return common.Big0
}

// GetNonce retrieves the nonce from the given address or 0 if object not found.
func (s *StateDB) GetNonce(addr common.Address) uint64 {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.Nonce()
	}
	return 0
}

// GetState retrieves a value from the given account's storage.
func (s *StateDB) GetState(addr common.Address, hash common.Hash) common.Hash {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.GetState(hash)
	}
	return common.Hash{}
}

// GetCommittedState retrieves a value from the given account's committed
// storage, ignoring any modifications made in the current transaction.
func (s *StateDB) GetCommittedState(addr common.Address, hash common.Hash) common.Hash {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.GetCommittedState(hash)
	}
	return common.Hash{}
}

// AddBalance adds amount to the account associated with addr.
func (s *StateDB) AddBalance(addr common.Address, amount *big.Int) {
	stateObject := s.getOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.AddBalance(amount)
	}
}

// SubBalance subtracts amount from the account associated with addr.
func (s *StateDB) SubBalance(addr common.Address, amount *big.Int) {
	stateObject := s.getOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SubBalance(amount)
	}
}

// SetNonce sets the nonce of the account associated with addr.
func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	stateObject := s.getOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SetNonce(nonce)
	}
}

// SetState updates a value in the given account's storage.
func (s *StateDB) SetState(addr common.Address, key, value common.Hash) {
	stateObject := s.getOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SetState(key, value)
	}
}

//
// Setting, updating & deleting state object methods.
//

// getStateObject retrieves a state object given by the address, returning nil
// if the object is not found in the live set nor the backing database.
func (s *StateDB) getStateObject(addr common.Address) *stateObject {
	// Prefer live objects if any is available
	if obj := s.stateObjects[addr]; obj != nil {
		return obj
	}
	// Load the object from the database
	data, ok := s.db.ReadAccount(addr)
	if !ok {
		return nil
	}
	// Insert into the live set
	obj := newObject(s, addr, data)
	s.stateObjects[addr] = obj
	return obj
}

// getOrNewStateObject retrieves a state object or creates a new state object
// if nil.
func (s *StateDB) getOrNewStateObject(addr common.Address) *stateObject {
	stateObject := s.getStateObject(addr)
	if stateObject == nil {
		stateObject = s.createObject(addr)
	}
	return stateObject
}

// createObject creates a new state object.
func (s *StateDB) createObject(addr common.Address) *stateObject {
	obj := newObject(s, addr, Account{})
	s.journal.append(createObjectChange{account: &addr})
	s.stateObjects[addr] = obj
	return obj
}

// CreateAccount explicitly creates a state object, overwriting any live
// object already tracked for the address.
func (s *StateDB) CreateAccount(addr common.Address) {
	s.createObject(addr)
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionId
	s.nextRevisionId++
	s.validRevisions = append(s.validRevisions, revision{id, s.journal.length()})
	return id
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (s *StateDB) RevertToSnapshot(revid int) {
	// Find the snapshot in the stack of valid snapshots.
	idx := sort.Search(len(s.validRevisions), func(i int) bool {
		return s.validRevisions[i].id >= revid
	})
	if idx == len(s.validRevisions) || s.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	snapshot := s.validRevisions[idx].journalIndex

	// Replay the journal to undo changes and remove invalidated snapshots
	s.journal.revert(s, snapshot)
	s.validRevisions = s.validRevisions[:idx]
}

// Finalise moves all dirty storage into the committed caches so that later
// transactions in the same block observe the writes. The journal is reset,
// previous snapshots can no longer be reverted to afterwards.
func (s *StateDB) Finalise() {
	for addr := range s.journal.dirties {
		obj, exist := s.stateObjects[addr]
		if !exist {
			// Object was created and then reverted away, nothing to do.
			continue
		}
		obj.finalise()
		s.stateObjectsPending[addr] = struct{}{}
	}
	s.clearJournal()
}

// Commit flushes every live account and its dirty storage into the backing
// database. The in-transaction journal must not hold unreverted entries that
// the caller still wants to discard; Commit makes everything permanent.
func (s *StateDB) Commit() error {
	if metrics.Enabled {
		defer func(start time.Time) { stateCommitTimer.UpdateSince(start) }(time.Now())
	}
	s.Finalise()

	batch := s.db.DiskDB().NewBatch()
	// Commit in deterministic address order so the batch layout is stable.
	addrs := make([]common.Address, 0, len(s.stateObjectsPending))
	for addr := range s.stateObjectsPending {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return string(addrs[i][:]) < string(addrs[j][:])
	})
	for _, addr := range addrs {
		obj := s.stateObjects[addr]
		if obj == nil {
			continue
		}
		if err := s.db.writeAccount(batch, addr, obj.data); err != nil {
			return err
		}
		accountUpdatedMeter.Mark(1)

		slots := make([]common.Hash, 0, len(obj.pendingStorage))
		for slot := range obj.pendingStorage {
			slots = append(slots, slot)
		}
		sort.Slice(slots, func(i, j int) bool {
			return string(slots[i][:]) < string(slots[j][:])
		})
		for _, slot := range slots {
			value := obj.pendingStorage[slot]
			if err := s.db.writeStorage(batch, addr, slot, value); err != nil {
				return err
			}
			if value == (common.Hash{}) {
				storageDeletedMeter.Mark(1)
			} else {
				storageUpdatedMeter.Mark(1)
			}
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	// Drop the live set, committed data is served from the clean cache now.
	s.stateObjects = make(map[common.Address]*stateObject)
	s.stateObjectsPending = make(map[common.Address]struct{})
	return nil
}

func (s *StateDB) clearJournal() {
	s.journal = newJournal()
	s.validRevisions = s.validRevisions[:0]
	s.nextRevisionId = 0
}
