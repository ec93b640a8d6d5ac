package memorydb

import (
	"bytes"
	"testing"

	"github.com/tos-network/gvault/tosdb"
	"github.com/tos-network/gvault/tosdb/dbtest"
)

func TestMemoryDB(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		dbtest.TestDatabaseSuite(t, func() tosdb.KeyValueStore {
			return New()
		})
	})
}

// TestValueIsolation checks that byte slices crossing the store boundary are
// copied, so callers mutating their buffers cannot corrupt stored entries.
func TestValueIsolation(t *testing.T) {
	db := New()
	defer db.Close()

	value := []byte{0x01, 0x02}
	if err := db.Put([]byte("key"), value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 0xff

	got, err := db.Get([]byte("key"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02}) {
		t.Fatalf("stored value mutated through caller buffer: %x", got)
	}
	got[1] = 0xff

	again, err := db.Get([]byte("key"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(again, []byte{0x01, 0x02}) {
		t.Fatalf("stored value mutated through returned buffer: %x", again)
	}
}

func TestOperationsAfterClose(t *testing.T) {
	db := New()
	if err := db.Put([]byte("key"), []byte("value")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := db.Get([]byte("key")); err == nil {
		t.Fatal("get succeeded on closed database")
	}
	if _, err := db.Has([]byte("key")); err == nil {
		t.Fatal("has succeeded on closed database")
	}
	if err := db.Put([]byte("other"), nil); err == nil {
		t.Fatal("put succeeded on closed database")
	}
	if err := db.Delete([]byte("key")); err == nil {
		t.Fatal("delete succeeded on closed database")
	}
}
