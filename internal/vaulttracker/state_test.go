package vaulttracker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidate(t *testing.T) {
	prev := &State{
		Address:       "0x1234",
		BalanceHandle: "0xaaaa",
		Version:       10,
		BlockNumber:   100,
	}

	if err := Validate(prev, State{
		Address:       "0x1234",
		BalanceHandle: "0xbbbb",
		Version:       11,
		BlockNumber:   101,
	}, false); err != nil {
		t.Fatalf("expected monotonic transition to pass, got %v", err)
	}

	if err := Validate(prev, State{
		Address:     "0x9999",
		Version:     10,
		BlockNumber: 101,
	}, false); err == nil {
		t.Fatal("expected address mismatch error")
	}

	if err := Validate(prev, State{
		Address:     "0x1234",
		Version:     9,
		BlockNumber: 101,
	}, false); err == nil {
		t.Fatal("expected version rollback error")
	}

	if err := Validate(prev, State{
		Address:     "0x1234",
		Version:     9,
		BlockNumber: 101,
	}, true); err != nil {
		t.Fatalf("expected version rollback allowed with reorg flag, got %v", err)
	}

	if err := Validate(prev, State{
		Address:     "0x1234",
		Version:     10,
		BlockNumber: 99,
	}, false); err == nil {
		t.Fatal("expected block rollback error")
	}

	if err := Validate(prev, State{
		Address:       "0x1234",
		BalanceHandle: "0xcccc",
		Version:       10,
		BlockNumber:   101,
	}, false); err == nil {
		t.Fatal("expected handle drift error at equal version")
	}

	if err := Validate(prev, State{
		Address:       "0x1234",
		BalanceHandle: "0xAAAA",
		Version:       10,
		BlockNumber:   101,
	}, false); err != nil {
		t.Fatalf("expected case-insensitive handle match to pass, got %v", err)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault", "tracker.json")

	if got, err := Load(path); err != nil || got != nil {
		t.Fatalf("load empty expected (nil,nil), got (%v,%v)", got, err)
	}

	curr := State{
		Address:       "0xabc",
		BalanceHandle: "0xfeed",
		Version:       7,
		PendingClaim:  500,
		BlockNumber:   88,
	}
	if err := Save(path, curr); err != nil {
		t.Fatalf("save tracker state: %v", err)
	}

	st, err := Load(path)
	if err != nil {
		t.Fatalf("load tracker state: %v", err)
	}
	if st == nil {
		t.Fatal("expected non-nil state")
	}
	if st.Address != curr.Address || st.BalanceHandle != curr.BalanceHandle ||
		st.Version != curr.Version || st.PendingClaim != curr.PendingClaim ||
		st.BlockNumber != curr.BlockNumber {
		t.Fatalf("state mismatch got=%+v want=%+v", *st, curr)
	}
	if st.UpdatedAt == "" {
		t.Fatal("expected updatedAt to be populated")
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("tracker file missing: %v", err)
	}
}
