package core

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/common/hexutil"
	"github.com/tos-network/gvault/core/state"
	"github.com/tos-network/gvault/core/types"
	"github.com/tos-network/gvault/fhe/elgamal"
	"github.com/tos-network/gvault/params"
	"github.com/tos-network/gvault/sysaction"
	"github.com/tos-network/gvault/token"
	"github.com/tos-network/gvault/tosdb/memorydb"
	"github.com/tos-network/gvault/vault"
)

var (
	actionOwner   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	actionHolder  = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	actionHolder2 = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	actionToken   = common.HexToAddress("0x0000000000000000000000000000000000001001")
)

// actionEnv drives vault system actions through the full state transition,
// the same path a sealed transaction takes.
type actionEnv struct {
	t        *testing.T
	db       *state.StateDB
	eng      *elgamal.Engine
	vlt      *vault.Vault
	coinbase common.Address
	nonces   map[common.Address]uint64
	now      uint64
}

func newActionEnv(t *testing.T) *actionEnv {
	t.Helper()
	db := newTestState(t)
	priv := elgamal.PrivateKeyFromSeed(bytes.Repeat([]byte{9}, 32)).Bytes()
	eng, err := elgamal.NewEngine(memorydb.New(), priv, 1<<20)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	vlt := vault.New(eng, nil)
	vault.ApplyGenesis(db, actionOwner, actionToken)
	vault.Activate(vlt)

	db.AddBalance(actionOwner, big.NewInt(100_000_000))
	db.AddBalance(actionHolder, big.NewInt(100_000_000))
	return &actionEnv{
		t:        t,
		db:       db,
		eng:      eng,
		vlt:      vlt,
		coinbase: common.HexToAddress("0x00000000000000000000000000000000c0ffee00"),
		nonces:   make(map[common.Address]uint64),
		now:      1_000_000,
	}
}

func (env *actionEnv) external(amount uint64, seed byte) (ct, proof []byte) {
	env.t.Helper()
	pub, err := elgamal.ParsePublicKey(env.eng.PublicKey())
	if err != nil {
		env.t.Fatalf("ParsePublicKey: %v", err)
	}
	opening := elgamal.PrivateKeyFromSeed(bytes.Repeat([]byte{seed}, 32))
	c := elgamal.EncryptWithOpening(pub, amount, opening)
	return c.Bytes(), elgamal.ProveOpening(pub, c, opening, actionOwner.Bytes())
}

func (env *actionEnv) makeAction(kind sysaction.ActionKind, payload interface{}) []byte {
	env.t.Helper()
	data, err := sysaction.MakeSysAction(kind, payload)
	if err != nil {
		env.t.Fatalf("MakeSysAction: %v", err)
	}
	return data
}

// apply runs one system action transaction from the given sender and fails
// the test on chain-level errors. Handler failures come back in the result.
func (env *actionEnv) apply(from common.Address, data []byte, gasLimit uint64, txHash common.Hash) (*ExecutionResult, []*types.Log) {
	env.t.Helper()
	to := params.SysActionAddress
	msg := types.NewMessage(from, &to, env.nonces[from], big.NewInt(0), gasLimit, big.NewInt(1), data, false)
	gp := new(GasPool).AddGas(30_000_000)
	res, logs, err := ApplyAction(testBlockContext(7, env.now, env.coinbase), params.AllVaultProtocolChanges, msg, gp, env.db, txHash, 0)
	if err != nil {
		env.t.Fatalf("ApplyAction: %v", err)
	}
	env.nonces[from]++
	return res, logs
}

func (env *actionEnv) reveal(holder common.Address) uint64 {
	env.t.Helper()
	h, err := env.vlt.BalanceOf(env.db, holder)
	if err != nil {
		env.t.Fatalf("BalanceOf: %v", err)
	}
	got, err := env.eng.Reveal(holder, h)
	if err != nil {
		env.t.Fatalf("Reveal balance of %s: %v", holder, err)
	}
	return got
}

func (env *actionEnv) fundPool(amount uint64) {
	env.t.Helper()
	if !token.At(actionToken).Mint(env.db, params.VaultAddress, new(big.Int).SetUint64(amount)) {
		env.t.Fatalf("minting %d pool tokens failed", amount)
	}
}

func TestActionCreditThroughTransition(t *testing.T) {
	env := newActionEnv(t)
	ct, proof := env.external(640, 21)
	data := env.makeAction(sysaction.ActionVaultCredit, sysaction.CreditPayload{
		Recipient:  actionHolder.Hex(),
		Ciphertext: hexutil.Bytes(ct),
		Proof:      hexutil.Bytes(proof),
	})

	txHash := common.HexToHash("0x01")
	res, logs := env.apply(actionOwner, data, 1_000_000, txHash)
	if res.Failed() {
		t.Fatalf("credit failed: %v", res.Err)
	}

	intrinsic, err := IntrinsicGas(data)
	if err != nil {
		t.Fatalf("IntrinsicGas: %v", err)
	}
	if want := intrinsic + params.SysActionGas + params.VaultCreditGas; res.UsedGas != want {
		t.Fatalf("used gas = %d, want %d", res.UsedGas, want)
	}

	if len(logs) != 1 {
		t.Fatalf("log count = %d, want 1", len(logs))
	}
	ev, ok := vault.ParseEvent(logs[0])
	if !ok {
		t.Fatalf("unparseable log %+v", logs[0])
	}
	if ev.Kind != vault.EventRecipientCredited || ev.Account != actionHolder {
		t.Fatalf("event = %+v, want credited %s", ev, actionHolder)
	}
	if logs[0].TxHash != txHash || logs[0].BlockNumber != 7 {
		t.Fatalf("log attribution = hash %s block %d", logs[0].TxHash, logs[0].BlockNumber)
	}

	if got := env.reveal(actionHolder); got != 640 {
		t.Fatalf("balance = %d, want 640", got)
	}
	if got := env.db.GetBalance(env.coinbase).Uint64(); got != res.UsedGas {
		t.Fatalf("coinbase fee = %d, want %d", got, res.UsedGas)
	}
	wantOwner := 100_000_000 - res.UsedGas
	if got := env.db.GetBalance(actionOwner).Uint64(); got != wantOwner {
		t.Fatalf("owner balance = %d, want %d", got, wantOwner)
	}
}

func TestBatchCreditRevertsWholeBatch(t *testing.T) {
	env := newActionEnv(t)
	ct1, p1 := env.external(100, 31)
	ct2, p2 := env.external(200, 32)
	ct3, p3 := env.external(50, 33)
	p2[10] ^= 0x40

	data := env.makeAction(sysaction.ActionVaultCreditBatch, sysaction.CreditBatchPayload{
		Recipients:  []string{actionHolder.Hex(), actionHolder2.Hex(), actionHolder.Hex()},
		Ciphertexts: []hexutil.Bytes{ct1, ct2, ct3},
		Proofs:      []hexutil.Bytes{p1, p2, p3},
	})
	res, logs := env.apply(actionOwner, data, 2_000_000, common.HexToHash("0x02"))
	if !errors.Is(res.Err, vault.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof, got %v", res.Err)
	}
	if len(logs) != 0 {
		t.Fatalf("failed batch emitted %d logs", len(logs))
	}

	// The first element verified fine, but its write must not survive the
	// snapshot revert.
	if got := vault.GetAccountState(env.db, actionHolder).Version; got != 0 {
		t.Fatalf("holder version = %d, want 0 after revert", got)
	}
	if got := vault.GetAccountState(env.db, actionHolder2).Version; got != 0 {
		t.Fatalf("holder2 version = %d, want 0 after revert", got)
	}
	if _, version := vault.GetTotalDistributed(env.db); version != 0 {
		t.Fatalf("total version = %d, want 0 after revert", version)
	}
	if got := env.reveal(actionHolder); got != 0 {
		t.Fatalf("holder balance = %d, want 0", got)
	}

	intrinsic, err := IntrinsicGas(data)
	if err != nil {
		t.Fatalf("IntrinsicGas: %v", err)
	}
	if want := intrinsic + params.SysActionGas + 3*params.VaultCreditGas; res.UsedGas != want {
		t.Fatalf("used gas = %d, want %d", res.UsedGas, want)
	}
	if got := env.db.GetNonce(actionOwner); got != 1 {
		t.Fatalf("owner nonce = %d, want 1", got)
	}
}

func TestWithdrawalCompletionRevertsOnEmptyPool(t *testing.T) {
	env := newActionEnv(t)
	ct, proof := env.external(500, 41)
	if err := env.vlt.Credit(env.db, actionOwner, actionHolder, ct, proof); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	reqData := env.makeAction(sysaction.ActionVaultWithdrawRequest, sysaction.WithdrawRequestPayload{Amount: 500})
	if res, _ := env.apply(actionHolder, reqData, 1_000_000, common.HexToHash("0x03")); res.Failed() {
		t.Fatalf("request failed: %v", res.Err)
	}
	if !vault.GetPendingWithdrawal(env.db, actionHolder).Exists() {
		t.Fatal("pending withdrawal not recorded")
	}

	env.now += params.DefaultWithdrawalDelay

	compData := env.makeAction(sysaction.ActionVaultWithdrawComplete, nil)
	res, logs := env.apply(actionHolder, compData, 1_000_000, common.HexToHash("0x04"))
	if !errors.Is(res.Err, vault.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", res.Err)
	}
	if len(logs) != 0 {
		t.Fatalf("failed completion emitted %d logs", len(logs))
	}
	pending := vault.GetPendingWithdrawal(env.db, actionHolder)
	if !pending.Exists() || pending.ClaimedAmount != 500 {
		t.Fatalf("pending = %+v, want intact claim of 500", pending)
	}
	if got := vault.GetAccountState(env.db, actionHolder).Version; got != 1 {
		t.Fatalf("version = %d, want 1 after revert", got)
	}
	if got := env.reveal(actionHolder); got != 500 {
		t.Fatalf("balance = %d, want 500 after revert", got)
	}

	env.fundPool(500)
	res, logs = env.apply(actionHolder, compData, 1_000_000, common.HexToHash("0x05"))
	if res.Failed() {
		t.Fatalf("funded completion failed: %v", res.Err)
	}
	if got := token.At(actionToken).BalanceOf(env.db, actionHolder).Uint64(); got != 500 {
		t.Fatalf("payout = %d, want 500", got)
	}
	if vault.GetPendingWithdrawal(env.db, actionHolder).Exists() {
		t.Fatal("pending withdrawal not cleared")
	}
	if got := vault.GetAccountState(env.db, actionHolder).Version; got != 2 {
		t.Fatalf("version = %d, want 2", got)
	}
	if got := env.reveal(actionHolder); got != 0 {
		t.Fatalf("balance = %d, want 0 after payout", got)
	}
	if len(logs) != 1 {
		t.Fatalf("log count = %d, want 1", len(logs))
	}
	ev, ok := vault.ParseEvent(logs[0])
	if !ok || ev.Kind != vault.EventWithdrawalCompleted || ev.Amount != 500 {
		t.Fatalf("event = %+v, want completion of 500", ev)
	}
}

func TestActionGasStarvationChargesIntrinsicOnly(t *testing.T) {
	env := newActionEnv(t)
	ct, proof := env.external(5, 51)
	data := env.makeAction(sysaction.ActionVaultCredit, sysaction.CreditPayload{
		Recipient:  actionHolder.Hex(),
		Ciphertext: hexutil.Bytes(ct),
		Proof:      hexutil.Bytes(proof),
	})
	intrinsic, err := IntrinsicGas(data)
	if err != nil {
		t.Fatalf("IntrinsicGas: %v", err)
	}

	// Enough for the envelope but short of the per-credit charge.
	res, logs := env.apply(actionOwner, data, intrinsic+params.SysActionGas, common.HexToHash("0x06"))
	if !errors.Is(res.Err, ErrIntrinsicGas) {
		t.Fatalf("expected ErrIntrinsicGas, got %v", res.Err)
	}
	if res.UsedGas != intrinsic {
		t.Fatalf("used gas = %d, want %d", res.UsedGas, intrinsic)
	}
	if len(logs) != 0 {
		t.Fatalf("starved action emitted %d logs", len(logs))
	}
	if got := vault.GetAccountState(env.db, actionHolder).Version; got != 0 {
		t.Fatalf("holder version = %d, want 0", got)
	}
}

func TestActionWithValueRejected(t *testing.T) {
	env := newActionEnv(t)
	ct, proof := env.external(5, 61)
	data := env.makeAction(sysaction.ActionVaultCredit, sysaction.CreditPayload{
		Recipient:  actionHolder.Hex(),
		Ciphertext: hexutil.Bytes(ct),
		Proof:      hexutil.Bytes(proof),
	})

	to := params.SysActionAddress
	msg := types.NewMessage(actionOwner, &to, 0, big.NewInt(5), 1_000_000, big.NewInt(1), data, false)
	gp := new(GasPool).AddGas(30_000_000)
	res, _, err := ApplyAction(testBlockContext(7, env.now, env.coinbase), params.AllVaultProtocolChanges, msg, gp, env.db, common.HexToHash("0x07"), 0)
	if err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}
	if !errors.Is(res.Err, ErrContractNotSupported) {
		t.Fatalf("expected ErrContractNotSupported, got %v", res.Err)
	}
	if got := vault.GetAccountState(env.db, actionHolder).Version; got != 0 {
		t.Fatalf("holder version = %d, want 0", got)
	}
}

func TestDepositThroughTransition(t *testing.T) {
	env := newActionEnv(t)
	if !token.At(actionToken).Mint(env.db, actionOwner, big.NewInt(1000)) {
		t.Fatal("mint failed")
	}
	if !token.At(actionToken).Approve(env.db, actionOwner, params.VaultAddress, big.NewInt(600)) {
		t.Fatal("approve failed")
	}

	data := env.makeAction(sysaction.ActionVaultDeposit, sysaction.DepositPayload{Amount: "600"})
	res, logs := env.apply(actionOwner, data, 1_000_000, common.HexToHash("0x08"))
	if res.Failed() {
		t.Fatalf("deposit failed: %v", res.Err)
	}
	intrinsic, err := IntrinsicGas(data)
	if err != nil {
		t.Fatalf("IntrinsicGas: %v", err)
	}
	if want := intrinsic + params.SysActionGas + params.VaultDepositGas; res.UsedGas != want {
		t.Fatalf("used gas = %d, want %d", res.UsedGas, want)
	}
	if got := token.At(actionToken).BalanceOf(env.db, params.VaultAddress).Uint64(); got != 600 {
		t.Fatalf("pool balance = %d, want 600", got)
	}
	if len(logs) != 1 {
		t.Fatalf("log count = %d, want 1", len(logs))
	}
	ev, ok := vault.ParseEvent(logs[0])
	if !ok || ev.Kind != vault.EventDeposit || ev.Amount != 600 || ev.Account != actionOwner {
		t.Fatalf("event = %+v, want deposit of 600 by %s", ev, actionOwner)
	}
}

func TestApplyActionRejectsPlainDestination(t *testing.T) {
	env := newActionEnv(t)
	to := actionHolder
	msg := types.NewMessage(actionOwner, &to, 0, big.NewInt(0), 100_000, big.NewInt(1), nil, false)
	gp := new(GasPool).AddGas(30_000_000)
	_, _, err := ApplyAction(testBlockContext(7, env.now, env.coinbase), params.AllVaultProtocolChanges, msg, gp, env.db, common.Hash{}, 0)
	if err == nil || !strings.Contains(err.Error(), "system action") {
		t.Fatalf("expected destination rejection, got %v", err)
	}
}
