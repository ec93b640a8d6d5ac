package vault

import (
	"encoding/binary"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/types"
	"github.com/tos-network/gvault/core/vm"
	"github.com/tos-network/gvault/crypto"
	"github.com/tos-network/gvault/params"
)

// Event signatures, hashed into topic[0] of emitted logs. The account is
// always topic[1]; public amounts travel as 8 byte big-endian data. Credit
// events deliberately carry no amount.
var (
	DepositTopic             = crypto.Keccak256Hash([]byte("Deposit(address,uint64)"))
	RecipientCreditedTopic   = crypto.Keccak256Hash([]byte("RecipientCredited(address)"))
	WithdrawalInitiatedTopic = crypto.Keccak256Hash([]byte("WithdrawalInitiated(address,uint64)"))
	WithdrawalCompletedTopic = crypto.Keccak256Hash([]byte("WithdrawalCompleted(address,uint64)"))
	WithdrawalCanceledTopic  = crypto.Keccak256Hash([]byte("WithdrawalCanceled(address,uint64)"))
)

// EventKind identifies a decoded vault event.
type EventKind uint8

const (
	EventUnknown EventKind = iota
	EventDeposit
	EventRecipientCredited
	EventWithdrawalInitiated
	EventWithdrawalCompleted
	EventWithdrawalCanceled
)

func (k EventKind) String() string {
	switch k {
	case EventDeposit:
		return "Deposit"
	case EventRecipientCredited:
		return "RecipientCredited"
	case EventWithdrawalInitiated:
		return "WithdrawalInitiated"
	case EventWithdrawalCompleted:
		return "WithdrawalCompleted"
	case EventWithdrawalCanceled:
		return "WithdrawalCanceled"
	}
	return "Unknown"
}

// Event is a decoded vault log record.
type Event struct {
	Kind        EventKind
	Account     common.Address
	Amount      uint64 // zero for RecipientCredited
	BlockNumber uint64
	TxHash      common.Hash
}

// ParseEvent decodes a vault log record. Logs emitted by other addresses,
// with unknown topics or with malformed data return (nil, false).
func ParseEvent(lg *types.Log) (*Event, bool) {
	if lg == nil || lg.Address != params.VaultAddress || len(lg.Topics) != 2 {
		return nil, false
	}
	ev := &Event{
		Account:     common.BytesToAddress(lg.Topics[1].Bytes()),
		BlockNumber: lg.BlockNumber,
		TxHash:      lg.TxHash,
	}
	switch lg.Topics[0] {
	case DepositTopic:
		ev.Kind = EventDeposit
	case RecipientCreditedTopic:
		ev.Kind = EventRecipientCredited
	case WithdrawalInitiatedTopic:
		ev.Kind = EventWithdrawalInitiated
	case WithdrawalCompletedTopic:
		ev.Kind = EventWithdrawalCompleted
	case WithdrawalCanceledTopic:
		ev.Kind = EventWithdrawalCanceled
	default:
		return nil, false
	}
	if ev.Kind == EventRecipientCredited {
		if len(lg.Data) != 0 {
			return nil, false
		}
		return ev, true
	}
	if len(lg.Data) != 8 {
		return nil, false
	}
	ev.Amount = binary.BigEndian.Uint64(lg.Data)
	return ev, true
}

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func amountData(amount uint64) []byte {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, amount)
	return data
}

func emitDeposit(db vm.StateDB, funder common.Address, amount uint64) {
	db.AddLog(&types.Log{
		Address: params.VaultAddress,
		Topics:  []common.Hash{DepositTopic, addressTopic(funder)},
		Data:    amountData(amount),
	})
}

func emitRecipientCredited(db vm.StateDB, recipient common.Address) {
	db.AddLog(&types.Log{
		Address: params.VaultAddress,
		Topics:  []common.Hash{RecipientCreditedTopic, addressTopic(recipient)},
	})
}

func emitWithdrawalInitiated(db vm.StateDB, account common.Address, amount uint64) {
	db.AddLog(&types.Log{
		Address: params.VaultAddress,
		Topics:  []common.Hash{WithdrawalInitiatedTopic, addressTopic(account)},
		Data:    amountData(amount),
	})
}

func emitWithdrawalCompleted(db vm.StateDB, account common.Address, amount uint64) {
	db.AddLog(&types.Log{
		Address: params.VaultAddress,
		Topics:  []common.Hash{WithdrawalCompletedTopic, addressTopic(account)},
		Data:    amountData(amount),
	})
}

func emitWithdrawalCanceled(db vm.StateDB, account common.Address, amount uint64) {
	db.AddLog(&types.Log{
		Address: params.VaultAddress,
		Topics:  []common.Hash{WithdrawalCanceledTopic, addressTopic(account)},
		Data:    amountData(amount),
	})
}
