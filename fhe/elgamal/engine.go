package elgamal

import (
	"encoding/binary"
	"sync"
	"time"

	"filippo.io/edwards25519"
	mapset "github.com/deckarep/golang-set"
	log "github.com/inconshreveable/log15"
	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/crypto"
	"github.com/tos-network/gvault/fhe"
	"github.com/tos-network/gvault/metrics"
	"github.com/tos-network/gvault/tosdb"
	"github.com/tos-network/gvault/tosdb/leveldb"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxAmount is the disclosure bound applied when an Engine is built
// without an explicit one. Reveal runs in O(sqrt(bound)) per call after a
// one time table build, the default keeps both sides small.
const DefaultMaxAmount = 1<<32 - 1

var (
	externalMeter = metrics.NewRegisteredMeter("fhe/external", nil)
	opMeter       = metrics.NewRegisteredMeter("fhe/ops", nil)
	revealTimer   = metrics.NewRegisteredTimer("fhe/reveal", nil)
)

var (
	handleDomain  = []byte("gvault.fhe.handle.v1")
	openingDomain = []byte("gvault.fhe.opening.v1")

	ciphertextKeyPrefix = []byte("c")
	grantKeyPrefix      = []byte("l")
)

// Engine implements fhe.Service on exponential ElGamal under a single
// service keypair shared by the network.
//
// Ciphertexts and access grants persist in a key-value store so handles
// survive restarts; hot entries are cached in memory. Handles are content
// addressed over the operation and its inputs, so every node deterministically
// derives the same handle for the same operation. Operations that need
// randomness (Eq and Select outputs) derive their openings from the service
// private key and the operation inputs, which keeps outputs unpredictable to
// outsiders while staying identical across nodes.
type Engine struct {
	db   tosdb.KeyValueStore
	priv *edwards25519.Scalar
	pub  *edwards25519.Point

	maxAmount uint64

	mu      sync.RWMutex
	entries map[fhe.Value]*entry
	grants  map[fhe.Value]mapset.Set

	babyOnce sync.Once
	baby     *babyTable

	revealGroup singleflight.Group

	log log.Logger
}

type entry struct {
	ct     *Ciphertext
	public bool
}

var _ fhe.Service = (*Engine)(nil)

// NewEngine opens an encrypted arithmetic engine over the given store with
// the canonical 32 byte service private key. A zero maxAmount selects
// DefaultMaxAmount.
func NewEngine(db tosdb.KeyValueStore, priv32 []byte, maxAmount uint64) (*Engine, error) {
	priv, err := ParsePrivateKey(priv32)
	if err != nil {
		return nil, err
	}
	if maxAmount == 0 {
		maxAmount = DefaultMaxAmount
	}
	return &Engine{
		db:        db,
		priv:      priv,
		pub:       PublicKeyFromPrivate(priv),
		maxAmount: maxAmount,
		entries:   make(map[fhe.Value]*entry),
		grants:    make(map[fhe.Value]mapset.Set),
		log:       log.New("module", "fhe"),
	}, nil
}

// OpenEngine is NewEngine over a LevelDB handle store rooted at dir. Nodes
// use this for the durable store; tests usually pass a memorydb to NewEngine
// instead.
func OpenEngine(dir string, priv32 []byte, maxAmount uint64) (*Engine, error) {
	db, err := leveldb.New(dir, 0, 0, "fhe/db/", false)
	if err != nil {
		return nil, err
	}
	eng, err := NewEngine(db, priv32, maxAmount)
	if err != nil {
		db.Close()
		return nil, err
	}
	return eng, nil
}

// Close releases the backing store. Handles held by callers stay valid for a
// reopened engine over the same store.
func (e *Engine) Close() error {
	return e.db.Close()
}

// PublicKey returns the compressed service public key clients encrypt under.
func (e *Engine) PublicKey() []byte {
	return e.pub.Bytes()
}

// MaxAmount returns the disclosure bound enforced by Reveal.
func (e *Engine) MaxAmount() uint64 {
	return e.maxAmount
}

// FromExternal verifies an externally produced ciphertext and its opening
// proof, bound to the submitting caller, and admits it into the engine.
func (e *Engine) FromExternal(caller common.Address, ciphertext, proof []byte) (fhe.Value, error) {
	ct, err := ParseCiphertext(ciphertext)
	if err != nil {
		return fhe.Value{}, fhe.ErrInvalidCiphertext
	}
	if err := VerifyOpening(proof, e.pub, ct, caller.Bytes()); err != nil {
		return fhe.Value{}, fhe.ErrInvalidProof
	}
	h := handleFor("external", ciphertext)
	if err := e.store(h, ct, false); err != nil {
		return fhe.Value{}, err
	}
	if err := e.grant(h, caller); err != nil {
		return fhe.Value{}, err
	}
	externalMeter.Mark(1)
	e.log.Debug("Admitted external ciphertext", "handle", h, "caller", caller)
	return h, nil
}

// TrivialEncrypt admits a public plaintext amount. The handle depends only
// on the amount and the ciphertext hides nothing.
func (e *Engine) TrivialEncrypt(amount uint64) (fhe.Value, error) {
	var amt [8]byte
	binary.BigEndian.PutUint64(amt[:], amount)
	h := handleFor("trivial", amt[:])
	if err := e.store(h, TrivialEncrypt(amount), true); err != nil {
		return fhe.Value{}, err
	}
	return h, nil
}

// Add returns a handle to the homomorphic sum of a and b.
func (e *Engine) Add(caller common.Address, a, b fhe.Value) (fhe.Value, error) {
	ea, err := e.use(caller, a)
	if err != nil {
		return fhe.Value{}, err
	}
	eb, err := e.use(caller, b)
	if err != nil {
		return fhe.Value{}, err
	}
	h := handleFor("add", a.Bytes(), b.Bytes())
	public := ea.public && eb.public
	if err := e.store(h, Add(ea.ct, eb.ct), public); err != nil {
		return fhe.Value{}, err
	}
	if !public {
		if err := e.grant(h, caller); err != nil {
			return fhe.Value{}, err
		}
	}
	opMeter.Mark(1)
	return h, nil
}

// Eq returns a handle to an encrypted bit reporting whether a and b encrypt
// the same amount. The bit ciphertext is freshly masked so the handle
// discloses nothing, reading the bit requires Reveal.
func (e *Engine) Eq(caller common.Address, a, b fhe.Value) (fhe.Value, error) {
	ea, err := e.use(caller, a)
	if err != nil {
		return fhe.Value{}, err
	}
	eb, err := e.use(caller, b)
	if err != nil {
		return fhe.Value{}, err
	}
	// Equality of amounts is equality of decrypted message points.
	pa := DecryptToPoint(e.priv, ea.ct)
	pb := DecryptToPoint(e.priv, eb.ct)
	var bit uint64
	if pa.Equal(pb) == 1 {
		bit = 1
	}
	opening := e.deriveOpening("eq", a.Bytes(), b.Bytes())
	h := handleFor("eq", a.Bytes(), b.Bytes())
	if err := e.store(h, EncryptWithOpening(e.pub, bit, opening), false); err != nil {
		return fhe.Value{}, err
	}
	if err := e.grant(h, caller); err != nil {
		return fhe.Value{}, err
	}
	opMeter.Mark(1)
	return h, nil
}

// Select returns ifTrue when cond encrypts one and ifFalse when it encrypts
// zero. The chosen ciphertext is re-masked so the output bytes match neither
// input, hiding which branch was taken.
func (e *Engine) Select(caller common.Address, cond, ifTrue, ifFalse fhe.Value) (fhe.Value, error) {
	ec, err := e.use(caller, cond)
	if err != nil {
		return fhe.Value{}, err
	}
	et, err := e.use(caller, ifTrue)
	if err != nil {
		return fhe.Value{}, err
	}
	ef, err := e.use(caller, ifFalse)
	if err != nil {
		return fhe.Value{}, err
	}
	point := DecryptToPoint(e.priv, ec.ct)
	var chosen *Ciphertext
	switch {
	case point.Equal(edwards25519.NewIdentityPoint()) == 1:
		chosen = ef.ct
	case point.Equal(edwards25519.NewGeneratorPoint()) == 1:
		chosen = et.ct
	default:
		return fhe.Value{}, fhe.ErrNotBoolean
	}
	mask := EncryptWithOpening(e.pub, 0, e.deriveOpening("select", cond.Bytes(), ifTrue.Bytes(), ifFalse.Bytes()))
	h := handleFor("select", cond.Bytes(), ifTrue.Bytes(), ifFalse.Bytes())
	if err := e.store(h, Add(chosen, mask), false); err != nil {
		return fhe.Value{}, err
	}
	if err := e.grant(h, caller); err != nil {
		return fhe.Value{}, err
	}
	opMeter.Mark(1)
	return h, nil
}

// Allow grants principal use and disclosure rights on v. The caller must
// hold rights on v itself. Granting on a public value is a no-op.
func (e *Engine) Allow(caller common.Address, v fhe.Value, principal common.Address) error {
	ent, err := e.use(caller, v)
	if err != nil {
		return err
	}
	if ent.public {
		return nil
	}
	return e.grant(v, principal)
}

// Reveal discloses the plaintext amount behind v to an authorized caller.
// Concurrent reveals of the same handle share one discrete log computation.
func (e *Engine) Reveal(caller common.Address, v fhe.Value) (uint64, error) {
	ent, err := e.use(caller, v)
	if err != nil {
		return 0, err
	}
	defer func(start time.Time) { revealTimer.UpdateSince(start) }(time.Now())

	amount, err, _ := e.revealGroup.Do(v.String(), func() (interface{}, error) {
		point := DecryptToPoint(e.priv, ent.ct)
		e.babyOnce.Do(func() { e.baby = newBabyTable(e.maxAmount) })
		m, ok := e.baby.lookup(point, e.maxAmount)
		if !ok {
			return uint64(0), fhe.ErrAmountOutOfRange
		}
		return m, nil
	})
	if err != nil {
		return 0, err
	}
	return amount.(uint64), nil
}

// use resolves a handle and checks the caller's rights on it.
func (e *Engine) use(caller common.Address, v fhe.Value) (*entry, error) {
	if v.IsZero() {
		return nil, fhe.ErrUnknownHandle
	}
	ent, err := e.load(v)
	if err != nil {
		return nil, err
	}
	if ent.public {
		return ent, nil
	}
	if !e.granted(v, caller) {
		return nil, fhe.ErrAccessDenied
	}
	return ent, nil
}

func (e *Engine) load(v fhe.Value) (*entry, error) {
	e.mu.RLock()
	ent, ok := e.entries[v]
	e.mu.RUnlock()
	if ok {
		return ent, nil
	}
	blob, err := e.db.Get(ciphertextKey(v))
	if err != nil || len(blob) != 1+CiphertextLength {
		return nil, fhe.ErrUnknownHandle
	}
	ct, err := ParseCiphertext(blob[1:])
	if err != nil {
		return nil, fhe.ErrInvalidCiphertext
	}
	ent = &entry{ct: ct, public: blob[0] == 1}
	e.mu.Lock()
	e.entries[v] = ent
	e.mu.Unlock()
	return ent, nil
}

func (e *Engine) store(v fhe.Value, ct *Ciphertext, public bool) error {
	e.mu.Lock()
	e.entries[v] = &entry{ct: ct, public: public}
	e.mu.Unlock()

	blob := make([]byte, 1+CiphertextLength)
	if public {
		blob[0] = 1
	}
	copy(blob[1:], ct.Bytes())
	return e.db.Put(ciphertextKey(v), blob)
}

func (e *Engine) grant(v fhe.Value, principal common.Address) error {
	e.mu.Lock()
	set, ok := e.grants[v]
	if !ok {
		set = e.loadGrantsLocked(v)
	}
	set.Add(principal)
	e.mu.Unlock()
	return e.db.Put(grantKey(v, principal), []byte{1})
}

func (e *Engine) granted(v fhe.Value, principal common.Address) bool {
	e.mu.Lock()
	set, ok := e.grants[v]
	if !ok {
		set = e.loadGrantsLocked(v)
	}
	e.mu.Unlock()
	return set.Contains(principal)
}

// loadGrantsLocked pulls the persisted grant set for a handle into the
// cache. Callers hold e.mu.
func (e *Engine) loadGrantsLocked(v fhe.Value) mapset.Set {
	set := mapset.NewSet()
	it := e.db.NewIterator(append(append([]byte{}, grantKeyPrefix...), v.Bytes()...), nil)
	for it.Next() {
		key := it.Key()
		if len(key) == len(grantKeyPrefix)+common.HashLength+common.AddressLength {
			set.Add(common.BytesToAddress(key[len(key)-common.AddressLength:]))
		}
	}
	it.Release()
	e.grants[v] = set
	return set
}

func (e *Engine) deriveOpening(tag string, parts ...[]byte) *edwards25519.Scalar {
	data := make([][]byte, 0, len(parts)+3)
	data = append(data, openingDomain, e.priv.Bytes(), []byte(tag))
	data = append(data, parts...)
	return wideScalar(crypto.Keccak512(data...))
}

func handleFor(tag string, parts ...[]byte) fhe.Value {
	data := make([][]byte, 0, len(parts)+2)
	data = append(data, handleDomain, []byte(tag))
	data = append(data, parts...)
	return fhe.Value(crypto.Keccak256Hash(data...))
}

func ciphertextKey(v fhe.Value) []byte {
	return append(append([]byte{}, ciphertextKeyPrefix...), v.Bytes()...)
}

func grantKey(v fhe.Value, principal common.Address) []byte {
	key := append(append([]byte{}, grantKeyPrefix...), v.Bytes()...)
	return append(key, principal.Bytes()...)
}
