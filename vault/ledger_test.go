package vault

import (
	"errors"
	"strings"
	"testing"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/fhe"
)

func TestCreditFlow(t *testing.T) {
	env := newTestEnv(t)

	env.credit(testHolder, 500, 1)
	if got := env.reveal(testHolder); got != 500 {
		t.Fatalf("balance = %d, want 500", got)
	}
	if st := GetAccountState(env.db, testHolder); st.Version != 1 {
		t.Fatalf("version = %d, want 1", st.Version)
	}
	if got := env.revealTotal(); got != 500 {
		t.Fatalf("total distributed = %d, want 500", got)
	}

	env.credit(testHolder, 120, 2)
	if got := env.reveal(testHolder); got != 620 {
		t.Fatalf("balance after second credit = %d, want 620", got)
	}
	if st := GetAccountState(env.db, testHolder); st.Version != 2 {
		t.Fatalf("version = %d, want 2", st.Version)
	}
	if got := env.revealTotal(); got != 620 {
		t.Fatalf("total distributed = %d, want 620", got)
	}

	logs := env.db.Logs()
	if len(logs) != 2 {
		t.Fatalf("emitted %d logs, want 2", len(logs))
	}
	for i, lg := range logs {
		ev, ok := ParseEvent(lg)
		if !ok {
			t.Fatalf("log %d did not parse", i)
		}
		if ev.Kind != EventRecipientCredited || ev.Account != testHolder || ev.Amount != 0 {
			t.Fatalf("log %d = %+v, want RecipientCredited for %s with no amount", i, ev, testHolder)
		}
	}
}

func TestCreditOpaqueToOthers(t *testing.T) {
	env := newTestEnv(t)
	env.credit(testHolder, 777, 3)

	handle, err := env.v.BalanceOf(env.db, testHolder)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if _, err := env.eng.Reveal(testStranger, handle); !errors.Is(err, fhe.ErrAccessDenied) {
		t.Fatalf("stranger Reveal error = %v, want %v", err, fhe.ErrAccessDenied)
	}
	// The owner funds accounts but cannot open their balances either.
	if _, err := env.eng.Reveal(testOwner, handle); !errors.Is(err, fhe.ErrAccessDenied) {
		t.Fatalf("owner Reveal error = %v, want %v", err, fhe.ErrAccessDenied)
	}
}

func TestCreditUninitializedEqualsExplicitZero(t *testing.T) {
	env := newTestEnv(t)

	// Give holder2 an explicit encrypted-zero balance first.
	zero, err := env.eng.TrivialEncrypt(0)
	if err != nil {
		t.Fatalf("TrivialEncrypt: %v", err)
	}
	if _, err := setBalance(env.db, testHolder2, zero); err != nil {
		t.Fatalf("setBalance: %v", err)
	}

	// The same external input credited to both accounts must land on the
	// same balance handle: uninitialized and explicit zero are one state.
	ct, proof := env.external(250, 4)
	if err := env.v.Credit(env.db, testOwner, testHolder, ct, proof); err != nil {
		t.Fatalf("Credit uninitialized: %v", err)
	}
	if err := env.v.Credit(env.db, testOwner, testHolder2, ct, proof); err != nil {
		t.Fatalf("Credit explicit zero: %v", err)
	}

	h1 := GetAccountState(env.db, testHolder).Balance
	h2 := GetAccountState(env.db, testHolder2).Balance
	if h1 != h2 {
		t.Fatalf("balance handles differ: %s vs %s", h1, h2)
	}
	if a, b := env.reveal(testHolder), env.reveal(testHolder2); a != 250 || b != 250 {
		t.Fatalf("balances = %d, %d, want 250, 250", a, b)
	}
}

func TestCreditRejects(t *testing.T) {
	env := newTestEnv(t)
	ct, proof := env.external(40, 5)

	if err := env.v.Credit(env.db, testOwner, common.Address{}, ct, proof); !errors.Is(err, ErrInvalidPrincipal) {
		t.Fatalf("zero recipient: error = %v, want %v", err, ErrInvalidPrincipal)
	}
	if err := env.v.Credit(env.db, testOwner, testHolder, ct[:40], proof); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("short ciphertext: error = %v, want %v", err, ErrInvalidPayload)
	}
	if err := env.v.Credit(env.db, testOwner, testHolder, ct, proof[:90]); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("short proof: error = %v, want %v", err, ErrInvalidPayload)
	}

	bad := append([]byte(nil), proof...)
	bad[10] ^= 0x40
	err := env.v.Credit(env.db, testOwner, testHolder, ct, bad)
	if !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("tampered proof: error = %v, want %v", err, ErrInvalidProof)
	}
	if !errors.Is(err, fhe.ErrInvalidProof) {
		t.Fatalf("tampered proof error does not carry the service cause: %v", err)
	}

	if st := GetAccountState(env.db, testHolder); st.Version != 0 {
		t.Fatalf("rejected credits mutated the account: %+v", st)
	}
	if _, version := GetTotalDistributed(env.db); version != 0 {
		t.Fatalf("rejected credits mutated the total, version = %d", version)
	}
	if logs := env.db.Logs(); len(logs) != 0 {
		t.Fatalf("rejected credits emitted %d logs", len(logs))
	}
}

func TestBatchCredit(t *testing.T) {
	env := newTestEnv(t)

	recipients := []common.Address{testHolder, testHolder2, testHolder}
	amounts := []uint64{100, 200, 50}
	var cts, proofs [][]byte
	for i, amount := range amounts {
		ct, proof := env.external(amount, byte(10+i))
		cts = append(cts, ct)
		proofs = append(proofs, proof)
	}

	if err := env.v.BatchCredit(env.db, testOwner, recipients, cts, proofs); err != nil {
		t.Fatalf("BatchCredit: %v", err)
	}
	if got := env.reveal(testHolder); got != 150 {
		t.Fatalf("duplicate recipient balance = %d, want 150", got)
	}
	if got := env.reveal(testHolder2); got != 200 {
		t.Fatalf("holder2 balance = %d, want 200", got)
	}
	if got := env.revealTotal(); got != 350 {
		t.Fatalf("total distributed = %d, want 350", got)
	}
	if st := GetAccountState(env.db, testHolder); st.Version != 2 {
		t.Fatalf("duplicate recipient version = %d, want 2", st.Version)
	}
	if logs := env.db.Logs(); len(logs) != 3 {
		t.Fatalf("emitted %d logs, want 3", len(logs))
	}
}

func TestBatchCreditEmpty(t *testing.T) {
	env := newTestEnv(t)
	if err := env.v.BatchCredit(env.db, testOwner, nil, nil, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if logs := env.db.Logs(); len(logs) != 0 {
		t.Fatalf("empty batch emitted %d logs", len(logs))
	}
}

func TestBatchCreditLengthMismatch(t *testing.T) {
	env := newTestEnv(t)
	ct, proof := env.external(10, 20)

	err := env.v.BatchCredit(env.db, testOwner,
		[]common.Address{testHolder, testHolder2}, [][]byte{ct}, [][]byte{proof})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("error = %v, want %v", err, ErrLengthMismatch)
	}
	if st := GetAccountState(env.db, testHolder); st.Version != 0 {
		t.Fatalf("mismatched batch mutated state: %+v", st)
	}
}

func TestBatchCreditShapeCheckedUpFront(t *testing.T) {
	env := newTestEnv(t)
	ct, proof := env.external(10, 21)

	// The second element is malformed; the valid first element must not
	// have executed.
	err := env.v.BatchCredit(env.db, testOwner,
		[]common.Address{testHolder, common.Address{}},
		[][]byte{ct, ct}, [][]byte{proof, proof})
	if !errors.Is(err, ErrInvalidPrincipal) {
		t.Fatalf("error = %v, want %v", err, ErrInvalidPrincipal)
	}
	if !strings.Contains(err.Error(), "[1]") {
		t.Fatalf("error %q does not name the offending element", err)
	}
	if st := GetAccountState(env.db, testHolder); st.Version != 0 {
		t.Fatalf("failed batch credited element 0: %+v", st)
	}
	if logs := env.db.Logs(); len(logs) != 0 {
		t.Fatalf("failed batch emitted %d logs", len(logs))
	}
}

func TestBatchCreditTooLarge(t *testing.T) {
	env := newTestEnv(t)
	ct, proof := env.external(1, 22)

	n := 257
	recipients := make([]common.Address, n)
	cts := make([][]byte, n)
	proofs := make([][]byte, n)
	for i := range recipients {
		recipients[i] = testHolder
		cts[i] = ct
		proofs[i] = proof
	}
	if err := env.v.BatchCredit(env.db, testOwner, recipients, cts, proofs); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("oversize batch: error = %v, want %v", err, ErrInvalidPayload)
	}
}

func TestBatchCreditMidBatchProofFailure(t *testing.T) {
	env := newTestEnv(t)

	ct1, proof1 := env.external(100, 23)
	ct2, proof2 := env.external(200, 24)
	bad := append([]byte(nil), proof2...)
	bad[5] ^= 0x01

	err := env.v.BatchCredit(env.db, testOwner,
		[]common.Address{testHolder, testHolder2},
		[][]byte{ct1, ct2}, [][]byte{proof1, bad})
	if !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("error = %v, want %v", err, ErrInvalidProof)
	}
	if !strings.Contains(err.Error(), "[1]") {
		t.Fatalf("error %q does not name the offending element", err)
	}
	// Proof validity is only known element by element, so the first credit
	// has been applied here; the processor's snapshot discards it when the
	// action fails.
	if st := GetAccountState(env.db, testHolder); st.Version != 1 {
		t.Fatalf("element 0 version = %d, want 1", st.Version)
	}
}
