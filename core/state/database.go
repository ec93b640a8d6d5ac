// Copyright 2017 The go-ethereum Authors
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
	"encoding/binary"
	"math/big"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/tosdb"
)

const (
	// defaultCleanCacheMB sizes the committed-read cache when the caller does
	// not pick one.
	defaultCleanCacheMB = 16

	accountPrefix = byte('a')
	storagePrefix = byte('s')
)

// Database wraps access to accounts and storage slots persisted in a flat
// key-value store. Committed reads go through a clean cache so repeated state
// accesses stay off disk.
type Database struct {
	diskdb tosdb.KeyValueStore
	cleans *fastcache.Cache
}

// NewDatabase creates a backing store for state with the default cache size.
func NewDatabase(db tosdb.KeyValueStore) *Database {
	return NewDatabaseWithCache(db, defaultCleanCacheMB)
}

// NewDatabaseWithCache creates a backing store for state. The returned database
// caches committed reads in an in-memory clean cache of the given size in
// megabytes.
func NewDatabaseWithCache(db tosdb.KeyValueStore, cacheMB int) *Database {
	if cacheMB <= 0 {
		cacheMB = defaultCleanCacheMB
	}
	return &Database{
		diskdb: db,
		cleans: fastcache.New(cacheMB * 1024 * 1024),
	}
}

// DiskDB returns the underlying key-value disk database.
func (db *Database) DiskDB() tosdb.KeyValueStore {
	return db.diskdb
}

func accountKey(addr common.Address) []byte {
	key := make([]byte, 1+common.AddressLength)
	key[0] = accountPrefix
	copy(key[1:], addr[:])
	return key
}

func storageKey(addr common.Address, slot common.Hash) []byte {
	key := make([]byte, 1+common.AddressLength+common.HashLength)
	key[0] = storagePrefix
	copy(key[1:], addr[:])
	copy(key[1+common.AddressLength:], slot[:])
	return key
}

// encodeAccount packs an account as nonce (8 bytes big endian) followed by the
// balance as a 32 byte big endian word.
func encodeAccount(acc Account) []byte {
	blob := make([]byte, 40)
	binary.BigEndian.PutUint64(blob[:8], acc.Nonce)
	acc.Balance.FillBytes(blob[8:40])
	return blob
}

func decodeAccount(blob []byte) (Account, bool) {
	if len(blob) != 40 {
		return Account{}, false
	}
	return Account{
		Nonce:   binary.BigEndian.Uint64(blob[:8]),
		Balance: new(big.Int).SetBytes(blob[8:40]),
	}, true
}

// ReadAccount retrieves an account from the committed state. The boolean
// return reports whether the account exists.
func (db *Database) ReadAccount(addr common.Address) (Account, bool) {
	key := accountKey(addr)
	if blob, found := db.cleans.HasGet(nil, key); found {
		if len(blob) == 0 {
			return Account{}, false
		}
		return decodeAccount(blob)
	}
	blob, err := db.diskdb.Get(key)
	if err != nil || len(blob) == 0 {
		// Cache the absence too, a miss is the common case for fresh accounts.
		db.cleans.Set(key, nil)
		return Account{}, false
	}
	db.cleans.Set(key, blob)
	return decodeAccount(blob)
}

// ReadStorage retrieves a storage slot from the committed state, returning the
// zero hash for unset slots.
func (db *Database) ReadStorage(addr common.Address, slot common.Hash) common.Hash {
	key := storageKey(addr, slot)
	if blob, found := db.cleans.HasGet(nil, key); found {
		return common.BytesToHash(blob)
	}
	blob, err := db.diskdb.Get(key)
	if err != nil {
		blob = nil
	}
	db.cleans.Set(key, blob)
	return common.BytesToHash(blob)
}

// writeAccount queues an account update into the batch and refreshes the clean
// cache so later reads observe the committed value.
func (db *Database) writeAccount(batch tosdb.Batch, addr common.Address, acc Account) error {
	key := accountKey(addr)
	blob := encodeAccount(acc)
	if err := batch.Put(key, blob); err != nil {
		return err
	}
	db.cleans.Set(key, blob)
	return nil
}

// writeStorage queues a slot update into the batch, deleting zero values.
func (db *Database) writeStorage(batch tosdb.Batch, addr common.Address, slot common.Hash, value common.Hash) error {
	key := storageKey(addr, slot)
	if value == (common.Hash{}) {
		if err := batch.Delete(key); err != nil {
			return err
		}
		db.cleans.Set(key, nil)
		return nil
	}
	if err := batch.Put(key, value.Bytes()); err != nil {
		return err
	}
	db.cleans.Set(key, value.Bytes())
	return nil
}
