// Package elgamal implements the vault's encrypted arithmetic service on
// exponential ElGamal over edwards25519.
//
// A ciphertext is a pair of curve points serialized as 64 bytes: a 32 byte
// commitment m*G + r*P followed by a 32 byte decrypt handle r*G, where m is
// the amount, r the opening and P the service public key. Decryption with
// the private key s recovers the message point m*G = commitment - s*handle;
// the amount itself is recovered from the message point by solving the
// discrete log over a bounded range (see SolveDiscreteLog).
//
// The pair shape keeps addition componentwise: adding two ciphertexts adds
// the underlying amounts, adding a plaintext amount moves only the
// commitment. All operations reject non canonical point encodings.
package elgamal

import (
	"crypto/rand"
	"encoding/binary"
	"errors"

	"filippo.io/edwards25519"
)

const (
	// CiphertextLength is the serialized size of a ciphertext, commitment
	// followed by decrypt handle.
	CiphertextLength = 64
	// PointLength is the compressed size of a single curve point.
	PointLength = 32
	// ScalarLength is the serialized size of an opening or private key.
	ScalarLength = 32
)

var (
	ErrInvalidCiphertext = errors.New("elgamal: invalid ciphertext encoding")
	ErrInvalidPoint      = errors.New("elgamal: invalid point encoding")
	ErrInvalidScalar     = errors.New("elgamal: invalid scalar encoding")
)

// Ciphertext is a deserialized ElGamal pair.
type Ciphertext struct {
	Commitment *edwards25519.Point // m*G + r*P
	Handle     *edwards25519.Point // r*G
}

// ParseCiphertext decodes a 64 byte compressed ciphertext.
func ParseCiphertext(ct64 []byte) (*Ciphertext, error) {
	if len(ct64) != CiphertextLength {
		return nil, ErrInvalidCiphertext
	}
	commitment, err := new(edwards25519.Point).SetBytes(ct64[:PointLength])
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	handle, err := new(edwards25519.Point).SetBytes(ct64[PointLength:])
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	return &Ciphertext{Commitment: commitment, Handle: handle}, nil
}

// Bytes serializes the ciphertext as commitment || handle.
func (ct *Ciphertext) Bytes() []byte {
	out := make([]byte, CiphertextLength)
	copy(out[:PointLength], ct.Commitment.Bytes())
	copy(out[PointLength:], ct.Handle.Bytes())
	return out
}

// Clone returns an independent copy of the ciphertext.
func (ct *Ciphertext) Clone() *Ciphertext {
	return &Ciphertext{
		Commitment: new(edwards25519.Point).Set(ct.Commitment),
		Handle:     new(edwards25519.Point).Set(ct.Handle),
	}
}

// Add returns the componentwise sum of two ciphertexts, encrypting the sum
// of the underlying amounts.
func Add(a, b *Ciphertext) *Ciphertext {
	return &Ciphertext{
		Commitment: new(edwards25519.Point).Add(a.Commitment, b.Commitment),
		Handle:     new(edwards25519.Point).Add(a.Handle, b.Handle),
	}
}

// Sub returns the componentwise difference of two ciphertexts.
func Sub(a, b *Ciphertext) *Ciphertext {
	return &Ciphertext{
		Commitment: new(edwards25519.Point).Subtract(a.Commitment, b.Commitment),
		Handle:     new(edwards25519.Point).Subtract(a.Handle, b.Handle),
	}
}

// AddAmount adds a plaintext amount to the ciphertext.
func AddAmount(ct *Ciphertext, amount uint64) *Ciphertext {
	ma := new(edwards25519.Point).ScalarBaseMult(scalarFromUint64(amount))
	return &Ciphertext{
		Commitment: new(edwards25519.Point).Add(ct.Commitment, ma),
		Handle:     new(edwards25519.Point).Set(ct.Handle),
	}
}

// SubAmount subtracts a plaintext amount from the ciphertext.
func SubAmount(ct *Ciphertext, amount uint64) *Ciphertext {
	ma := new(edwards25519.Point).ScalarBaseMult(scalarFromUint64(amount))
	return &Ciphertext{
		Commitment: new(edwards25519.Point).Subtract(ct.Commitment, ma),
		Handle:     new(edwards25519.Point).Set(ct.Handle),
	}
}

// EncryptWithOpening encrypts amount under pub with the supplied opening.
func EncryptWithOpening(pub *edwards25519.Point, amount uint64, opening *edwards25519.Scalar) *Ciphertext {
	commitment := new(edwards25519.Point).ScalarMult(opening, pub)
	commitment.Add(commitment, new(edwards25519.Point).ScalarBaseMult(scalarFromUint64(amount)))
	return &Ciphertext{
		Commitment: commitment,
		Handle:     new(edwards25519.Point).ScalarBaseMult(opening),
	}
}

// Encrypt encrypts amount under pub with a freshly generated opening,
// returning both. The opening is needed to prove knowledge of the
// ciphertext, discard it only for values that never leave the caller.
func Encrypt(pub *edwards25519.Point, amount uint64) (*Ciphertext, *edwards25519.Scalar, error) {
	opening, err := GenerateOpening()
	if err != nil {
		return nil, nil, err
	}
	return EncryptWithOpening(pub, amount, opening), opening, nil
}

// TrivialEncrypt encrypts amount with a zero opening. The result is
// deterministic and hides nothing: the commitment is amount*G and the
// handle the identity, so any party can recompute and recognize it.
func TrivialEncrypt(amount uint64) *Ciphertext {
	return &Ciphertext{
		Commitment: new(edwards25519.Point).ScalarBaseMult(scalarFromUint64(amount)),
		Handle:     edwards25519.NewIdentityPoint(),
	}
}

// DecryptToPoint recovers the message point m*G from the ciphertext. The
// amount is obtained from the point with SolveDiscreteLog.
func DecryptToPoint(priv *edwards25519.Scalar, ct *Ciphertext) *edwards25519.Point {
	masked := new(edwards25519.Point).ScalarMult(priv, ct.Handle)
	return new(edwards25519.Point).Subtract(ct.Commitment, masked)
}

// GenerateOpening samples a uniformly random opening scalar.
func GenerateOpening() (*edwards25519.Scalar, error) {
	var seed [64]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	return new(edwards25519.Scalar).SetUniformBytes(seed[:])
}

// GenerateKeypair samples a fresh service keypair.
func GenerateKeypair() (pub *edwards25519.Point, priv *edwards25519.Scalar, err error) {
	priv, err = GenerateOpening()
	if err != nil {
		return nil, nil, err
	}
	return new(edwards25519.Point).ScalarBaseMult(priv), priv, nil
}

// PublicKeyFromPrivate derives the public key point for a private scalar.
func PublicKeyFromPrivate(priv *edwards25519.Scalar) *edwards25519.Point {
	return new(edwards25519.Point).ScalarBaseMult(priv)
}

// ParsePrivateKey decodes a canonical 32 byte private scalar.
func ParsePrivateKey(priv32 []byte) (*edwards25519.Scalar, error) {
	if len(priv32) != ScalarLength {
		return nil, ErrInvalidScalar
	}
	s, err := new(edwards25519.Scalar).SetCanonicalBytes(priv32)
	if err != nil {
		return nil, ErrInvalidScalar
	}
	return s, nil
}

// ParsePublicKey decodes a compressed 32 byte public key point.
func ParsePublicKey(pub32 []byte) (*edwards25519.Point, error) {
	if len(pub32) != PointLength {
		return nil, ErrInvalidPoint
	}
	p, err := new(edwards25519.Point).SetBytes(pub32)
	if err != nil {
		return nil, ErrInvalidPoint
	}
	return p, nil
}

// PrivateKeyFromSeed derives a deterministic private scalar from arbitrary
// seed bytes. Intended for tests and fixtures, production keys come from
// GenerateKeypair.
func PrivateKeyFromSeed(seed []byte) *edwards25519.Scalar {
	wide := make([]byte, 64)
	copy(wide, seed)
	s, err := new(edwards25519.Scalar).SetUniformBytes(wide)
	if err != nil {
		// SetUniformBytes only fails on length, which is fixed here.
		panic(err)
	}
	return s
}

func scalarFromUint64(v uint64) *edwards25519.Scalar {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[:8], v)
	s, err := new(edwards25519.Scalar).SetCanonicalBytes(buf[:])
	if err != nil {
		// Values below 2^64 are always canonical.
		panic(err)
	}
	return s
}
