package sysaction

import (
	"fmt"
	"math/big"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/vm"
	"github.com/tos-network/gvault/params"
)

// Context carries information available to a system-action handler.
type Context struct {
	From        common.Address
	Value       *big.Int
	BlockNumber *big.Int
	Time        uint64
	StateDB     vm.StateDB
	ChainConfig *params.ChainConfig
}

// Handler is implemented by the vault sub-system.
type Handler interface {
	CanHandle(kind ActionKind) bool
	Handle(ctx *Context, sa *SysAction) error
}

// Registry holds registered handlers.
type Registry struct{ handlers []Handler }

// DefaultRegistry is the process-wide handler registry.
var DefaultRegistry = &Registry{}

// Register adds a handler to the registry.
func (r *Registry) Register(h Handler) { r.handlers = append(r.handlers, h) }

// Dispatch routes a decoded action to the first handler claiming its kind.
// Called from core.ApplyAction with gas accounting and revert handling
// already in place around it.
func (r *Registry) Dispatch(ctx *Context, sa *SysAction) error {
	for _, h := range r.handlers {
		if h.CanHandle(sa.Action) {
			return h.Handle(ctx, sa)
		}
	}
	return fmt.Errorf("unknown system action: %q", sa.Action)
}

// ExecuteWithContext decodes and dispatches using a pre-built Context
// (used in tests).
func ExecuteWithContext(ctx *Context, data []byte) error {
	sa, err := Decode(data)
	if err != nil {
		return err
	}
	return DefaultRegistry.Dispatch(ctx, sa)
}
