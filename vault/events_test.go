package vault

import (
	"testing"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/types"
	"github.com/tos-network/gvault/params"
)

func TestEventRoundTrip(t *testing.T) {
	db := newTestState(t)
	addr := common.HexToAddress("0x21")

	emitDeposit(db, addr, 100)
	emitRecipientCredited(db, addr)
	emitWithdrawalInitiated(db, addr, 200)
	emitWithdrawalCompleted(db, addr, 200)
	emitWithdrawalCanceled(db, addr, 300)

	logs := db.Logs()
	if len(logs) != 5 {
		t.Fatalf("emitted %d logs, want 5", len(logs))
	}

	want := []struct {
		kind   EventKind
		amount uint64
	}{
		{EventDeposit, 100},
		{EventRecipientCredited, 0},
		{EventWithdrawalInitiated, 200},
		{EventWithdrawalCompleted, 200},
		{EventWithdrawalCanceled, 300},
	}
	for i, lg := range logs {
		ev, ok := ParseEvent(lg)
		if !ok {
			t.Fatalf("log %d did not parse", i)
		}
		if ev.Kind != want[i].kind || ev.Account != addr || ev.Amount != want[i].amount {
			t.Fatalf("log %d = %+v, want kind %s amount %d", i, ev, want[i].kind, want[i].amount)
		}
	}
}

func TestParseEventCarriesLogPosition(t *testing.T) {
	lg := &types.Log{
		Address:     params.VaultAddress,
		Topics:      []common.Hash{DepositTopic, addressTopic(common.HexToAddress("0x22"))},
		Data:        amountData(77),
		BlockNumber: 12,
		TxHash:      common.HexToHash("0xbeef"),
	}
	ev, ok := ParseEvent(lg)
	if !ok {
		t.Fatalf("log did not parse")
	}
	if ev.BlockNumber != 12 || ev.TxHash != lg.TxHash || ev.Amount != 77 {
		t.Fatalf("event = %+v", ev)
	}
}

func TestParseEventRejects(t *testing.T) {
	addr := common.HexToAddress("0x23")
	valid := &types.Log{
		Address: params.VaultAddress,
		Topics:  []common.Hash{WithdrawalInitiatedTopic, addressTopic(addr)},
		Data:    amountData(5),
	}
	if _, ok := ParseEvent(valid); !ok {
		t.Fatalf("valid log did not parse")
	}

	cases := map[string]*types.Log{
		"nil": nil,
		"foreign address": {
			Address: addr,
			Topics:  valid.Topics,
			Data:    valid.Data,
		},
		"unknown topic": {
			Address: params.VaultAddress,
			Topics:  []common.Hash{common.HexToHash("0x01"), addressTopic(addr)},
			Data:    valid.Data,
		},
		"missing account topic": {
			Address: params.VaultAddress,
			Topics:  []common.Hash{WithdrawalInitiatedTopic},
			Data:    valid.Data,
		},
		"short amount data": {
			Address: params.VaultAddress,
			Topics:  valid.Topics,
			Data:    valid.Data[:7],
		},
		"credited with data": {
			Address: params.VaultAddress,
			Topics:  []common.Hash{RecipientCreditedTopic, addressTopic(addr)},
			Data:    amountData(1),
		},
	}
	for name, lg := range cases {
		if ev, ok := ParseEvent(lg); ok {
			t.Errorf("%s: parsed to %+v, want rejection", name, ev)
		}
	}
}
