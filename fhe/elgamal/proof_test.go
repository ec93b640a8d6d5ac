package elgamal

import (
	"bytes"
	"testing"
)

// TestProveVerifyOpening proves knowledge of a fresh encryption's opening
// and verifies it under the matching context.
func TestProveVerifyOpening(t *testing.T) {
	pub32, _ := testKeypair(t, 11)
	pub, _ := ParsePublicKey(pub32)
	ctx := []byte("caller context")

	for _, amount := range []uint64{0, 1, 1 << 20} {
		opening := PrivateKeyFromSeed(bytes.Repeat([]byte{byte(amount + 1)}, 32))
		ct := EncryptWithOpening(pub, amount, opening)
		proof := ProveOpening(pub, ct, opening, ctx)
		if len(proof) != ProofLength {
			t.Fatalf("proof length = %d, want %d", len(proof), ProofLength)
		}
		if err := VerifyOpening(proof, pub, ct, ctx); err != nil {
			t.Fatalf("VerifyOpening(%d): %v", amount, err)
		}
	}
}

// TestVerifyOpeningRejects exercises the failure modes one at a time.
func TestVerifyOpeningRejects(t *testing.T) {
	pub32, _ := testKeypair(t, 12)
	pub, _ := ParsePublicKey(pub32)
	ctx := []byte("bound caller")

	opening := PrivateKeyFromSeed(bytes.Repeat([]byte{9}, 32))
	ct := EncryptWithOpening(pub, 77, opening)
	proof := ProveOpening(pub, ct, opening, ctx)

	// Wrong length.
	if err := VerifyOpening(proof[:95], pub, ct, ctx); err == nil {
		t.Fatal("expected error for truncated proof")
	}
	// Wrong context: the proof must not be replayable under another caller.
	if err := VerifyOpening(proof, pub, ct, []byte("other caller")); err == nil {
		t.Fatal("expected error for mismatched context")
	}
	// Wrong ciphertext.
	other := EncryptWithOpening(pub, 78, opening)
	if err := VerifyOpening(proof, pub, other, ctx); err == nil {
		t.Fatal("expected error for mismatched ciphertext")
	}
	// Tampered response scalar.
	tampered := append([]byte{}, proof...)
	tampered[40] ^= 0x01
	if err := VerifyOpening(tampered, pub, ct, ctx); err == nil {
		t.Fatal("expected error for tampered proof")
	}
	// Proof from a different opening over the same amount.
	wrongOpening := PrivateKeyFromSeed(bytes.Repeat([]byte{10}, 32))
	wrongCT := EncryptWithOpening(pub, 77, wrongOpening)
	if err := VerifyOpening(ProveOpening(pub, wrongCT, wrongOpening, ctx), pub, ct, ctx); err == nil {
		t.Fatal("expected error for proof bound to another ciphertext")
	}
}

// TestProveOpeningDeterministic verifies proving never consumes entropy, so
// repeated proofs over identical inputs are identical.
func TestProveOpeningDeterministic(t *testing.T) {
	pub32, _ := testKeypair(t, 13)
	pub, _ := ParsePublicKey(pub32)

	opening := PrivateKeyFromSeed(bytes.Repeat([]byte{21}, 32))
	ct := EncryptWithOpening(pub, 5, opening)
	a := ProveOpening(pub, ct, opening, nil)
	b := ProveOpening(pub, ct, opening, nil)
	if !bytes.Equal(a, b) {
		t.Fatal("proofs over identical inputs differ")
	}
}
