package elgamal

import (
	"bytes"
	"errors"

	"filippo.io/edwards25519"
	"github.com/tos-network/gvault/crypto"
)

// ProofLength is the serialized size of an opening proof: the Schnorr nonce
// commitment, the response scalar and the ciphertext binding word.
const ProofLength = 96

// ErrInvalidProof indicates opening proof verification failure.
var ErrInvalidProof = errors.New("elgamal: invalid proof")

var (
	proofDomain = []byte("gvault.elgamal.opening.v1")
	nonceDomain = []byte("gvault.elgamal.nonce.v1")
)

// ProveOpening proves knowledge of the opening r behind a ciphertext whose
// decrypt handle is r*G, binding the proof to the service public key and an
// arbitrary caller context. The proof nonce is derived deterministically
// from the secret opening, proving never consumes entropy.
func ProveOpening(pub *edwards25519.Point, ct *Ciphertext, opening *edwards25519.Scalar, ctx []byte) []byte {
	k := wideScalar(crypto.Keccak512(nonceDomain, opening.Bytes(), ct.Bytes(), ctx))
	bigA := new(edwards25519.Point).ScalarBaseMult(k)

	e := challengeScalar(pub, ct, bigA, ctx)
	s := new(edwards25519.Scalar).Multiply(e, opening)
	s.Add(s, k)

	proof := make([]byte, ProofLength)
	copy(proof[0:32], bigA.Bytes())
	copy(proof[32:64], s.Bytes())
	copy(proof[64:96], crypto.Keccak256(ct.Bytes()))
	return proof
}

// VerifyOpening checks an opening proof against a ciphertext under the
// service public key and caller context. Any malformed or mismatched input
// fails with ErrInvalidProof.
func VerifyOpening(proof []byte, pub *edwards25519.Point, ct *Ciphertext, ctx []byte) error {
	if len(proof) != ProofLength {
		return ErrInvalidProof
	}
	bigA, err := new(edwards25519.Point).SetBytes(proof[0:32])
	if err != nil {
		return ErrInvalidProof
	}
	s, err := new(edwards25519.Scalar).SetCanonicalBytes(proof[32:64])
	if err != nil {
		return ErrInvalidProof
	}
	binding := crypto.Keccak256(ct.Bytes())
	if !bytes.Equal(proof[64:96], binding) {
		return ErrInvalidProof
	}
	e := challengeScalar(pub, ct, bigA, ctx)

	// s*G must equal A + e*handle, checked as (-e)*handle + s*G == A.
	eNeg := new(edwards25519.Scalar).Negate(e)
	r := new(edwards25519.Point).VarTimeDoubleScalarBaseMult(eNeg, ct.Handle, s)
	if r.Equal(bigA) != 1 {
		return ErrInvalidProof
	}
	return nil
}

func challengeScalar(pub *edwards25519.Point, ct *Ciphertext, bigA *edwards25519.Point, ctx []byte) *edwards25519.Scalar {
	return wideScalar(crypto.Keccak512(
		proofDomain,
		pub.Bytes(),
		ct.Commitment.Bytes(),
		ct.Handle.Bytes(),
		bigA.Bytes(),
		ctx,
	))
}

func wideScalar(wide64 []byte) *edwards25519.Scalar {
	s, err := new(edwards25519.Scalar).SetUniformBytes(wide64)
	if err != nil {
		// Keccak512 always yields 64 bytes.
		panic(err)
	}
	return s
}
