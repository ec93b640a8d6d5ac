package elgamal

import (
	"bytes"
	"testing"
)

// TestSolveDiscreteLogExceedsMax verifies that an amount above maxAmount
// returns found=false.
func TestSolveDiscreteLogExceedsMax(t *testing.T) {
	privScalar := PrivateKeyFromSeed(bytes.Repeat([]byte{5}, 32))
	pub := PublicKeyFromPrivate(privScalar)

	const actualAmount = uint64(10_000)
	const maxAmount = uint64(9_999)

	ct, _, err := Encrypt(pub, actualAmount)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, found := SolveDiscreteLog(DecryptToPoint(privScalar, ct), maxAmount); found {
		t.Fatal("expected found=false for amount > maxAmount")
	}
}

// TestBabyTableReuse verifies a table built once answers lookups for every
// amount within its bound.
func TestBabyTableReuse(t *testing.T) {
	const maxAmount = uint64(100_000)
	table := newBabyTable(maxAmount)

	for _, amount := range []uint64{0, 1, 317, 99_999, 100_000} {
		msgPoint := TrivialEncrypt(amount).Commitment
		got, found := table.lookup(msgPoint, maxAmount)
		if !found {
			t.Fatalf("lookup(%d): not found", amount)
		}
		if got != amount {
			t.Fatalf("lookup(%d): got %d", amount, got)
		}
	}
}
