package vaultidx

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/vault"
)

// inmemoryEvents is the number of recently indexed events kept for lookup
// by transaction hash.
const inmemoryEvents = 4096

// ActivityRecord is the per-account rollup maintained by the index. It is
// derived entirely from vault logs, so a node can rebuild it from any block
// range without touching world state.
type ActivityRecord struct {
	Account common.Address

	Credits         uint64 // number of credits received
	LastCreditBlock uint64

	PendingClaim uint64 // claimed amount of the open withdrawal, 0 if none
	PendingBlock uint64 // block the open withdrawal was requested in

	Withdrawn uint64 // sum of completed withdrawal claims
	Canceled  uint64 // number of canceled withdrawals

	UpdatedAt int64
}

// Registry is the in-memory vault activity index maintained by a node.
// It is populated by the Indexer which consumes vault logs from new blocks.
type Registry struct {
	mu      sync.RWMutex
	records map[common.Address]*ActivityRecord

	deposited uint64 // sum of Deposit event amounts
	withdrawn uint64 // sum of WithdrawalCompleted event amounts

	events *lru.ARCCache // txHash → vault.Event
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	events, _ := lru.NewARC(inmemoryEvents)
	return &Registry{
		records: make(map[common.Address]*ActivityRecord),
		events:  events,
	}
}

// Record folds one parsed vault event into the index. block is the number
// of the block the event's log was sealed in.
func (r *Registry) Record(ev vault.Event, block uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[ev.Account]
	if !ok {
		rec = &ActivityRecord{Account: ev.Account}
		r.records[ev.Account] = rec
	}
	rec.UpdatedAt = time.Now().Unix()

	switch ev.Kind {
	case vault.EventRecipientCredited:
		rec.Credits++
		rec.LastCreditBlock = block
	case vault.EventWithdrawalInitiated:
		rec.PendingClaim = ev.Amount
		rec.PendingBlock = block
	case vault.EventWithdrawalCanceled:
		rec.PendingClaim = 0
		rec.PendingBlock = 0
		rec.Canceled++
	case vault.EventWithdrawalCompleted:
		rec.PendingClaim = 0
		rec.PendingBlock = 0
		rec.Withdrawn += ev.Amount
		r.withdrawn += ev.Amount
	case vault.EventDeposit:
		r.deposited += ev.Amount
	}

	ev.BlockNumber = block
	r.events.Add(ev.TxHash, ev)
}

// Get returns the ActivityRecord for account, or false if the account has
// no indexed activity.
func (r *Registry) Get(account common.Address) (ActivityRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.records[account]
	if !ok {
		return ActivityRecord{}, false
	}
	return *p, true
}

// Event returns the vault event recorded for txHash, if it is still in the
// recent-event cache.
func (r *Registry) Event(txHash common.Hash) (vault.Event, bool) {
	if v, ok := r.events.Get(txHash); ok {
		return v.(vault.Event), true
	}
	return vault.Event{}, false
}

// Totals returns the pool-level aggregates: the sum of deposited custody
// amounts and the sum of completed withdrawal claims.
func (r *Registry) Totals() (deposited, withdrawn uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.deposited, r.withdrawn
}

// Len returns the number of accounts with indexed activity.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Reset drops all indexed state. Used when the node reindexes after a
// reorg deeper than its unwind buffer.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[common.Address]*ActivityRecord)
	r.deposited = 0
	r.withdrawn = 0
	r.events.Purge()
}
