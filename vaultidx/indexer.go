// Package vaultidx maintains the in-memory vault activity index by
// consuming vault logs from sealed blocks.
//
// It lives in a separate package (not vault/) so consensus code carries no
// dependency on indexing: vault/ handles state transitions, vaultidx/
// derives query-side rollups from the logs those transitions emit.
package vaultidx

import (
	log "github.com/inconshreveable/log15"

	"github.com/tos-network/gvault/core/types"
	"github.com/tos-network/gvault/metrics"
	"github.com/tos-network/gvault/vault"
)

var indexedEventsMeter = metrics.NewRegisteredMeter("vault/idx/events", nil)

// ChainEvent carries the logs of one sealed block to the indexer.
type ChainEvent struct {
	BlockNumber uint64
	Logs        []*types.Log
}

// Indexer consumes block logs and keeps a Registry up to date. Blocks are
// fed either synchronously through IndexBlock or from a node's import loop
// through Notify after Start.
type Indexer struct {
	registry *Registry
	log      log.Logger

	ch   chan ChainEvent
	quit chan struct{}
	done chan struct{}
}

// NewIndexer creates an Indexer backed by the given registry.
func NewIndexer(registry *Registry) *Indexer {
	return &Indexer{
		registry: registry,
		log:      log.New("module", "vaultidx"),
		ch:       make(chan ChainEvent, 64),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Registry returns the index the Indexer writes to.
func (idx *Indexer) Registry() *Registry { return idx.registry }

// Start begins consuming notified chain events in a background goroutine.
func (idx *Indexer) Start() {
	go idx.loop()
}

// Stop shuts down the indexer and waits for the loop to drain.
func (idx *Indexer) Stop() {
	close(idx.quit)
	<-idx.done
}

// Notify hands the logs of one sealed block to the background loop. It
// drops the event if the indexer is stopping.
func (idx *Indexer) Notify(ev ChainEvent) {
	select {
	case idx.ch <- ev:
	case <-idx.quit:
	}
}

func (idx *Indexer) loop() {
	defer close(idx.done)
	for {
		select {
		case ev := <-idx.ch:
			idx.IndexBlock(ev.BlockNumber, ev.Logs)
		case <-idx.quit:
			// Drain anything already queued before shutting down.
			for {
				select {
				case ev := <-idx.ch:
					idx.IndexBlock(ev.BlockNumber, ev.Logs)
				default:
					return
				}
			}
		}
	}
}

// IndexBlock folds the vault logs of one block into the registry. Logs
// from other addresses and malformed records are skipped.
func (idx *Indexer) IndexBlock(blockNumber uint64, logs []*types.Log) {
	indexed := 0
	for _, lg := range logs {
		ev, ok := vault.ParseEvent(lg)
		if !ok {
			continue
		}
		idx.registry.Record(*ev, blockNumber)
		indexed++
	}
	if indexed > 0 {
		indexedEventsMeter.Mark(int64(indexed))
		idx.log.Debug("indexed vault events", "block", blockNumber, "events", indexed)
	}
}
