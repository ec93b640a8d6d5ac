package core

import (
	"fmt"

	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/core/state"
	"github.com/tos-network/gvault/core/types"
	"github.com/tos-network/gvault/core/vm"
	"github.com/tos-network/gvault/params"
)

// ApplyAction applies a single system-action message on top of statedb and
// returns the execution result together with the logs the action emitted.
// txHash and txIndex attribute those logs to the enclosing transaction; the
// block hash is not known at execution time and is left zero on the logs.
//
// A non-nil error invalidates the transaction (bad nonce, unpayable gas,
// malformed envelope). A failed ExecutionResult means the action itself was
// rejected: its gas is consumed, its state writes are reverted and no logs
// are returned for it.
func ApplyAction(blockCtx vm.BlockContext, chainConfig *params.ChainConfig, msg Message, gp *GasPool, statedb *state.StateDB, txHash common.Hash, txIndex int) (*ExecutionResult, []*types.Log, error) {
	if to := msg.To(); to == nil || *to != params.SysActionAddress {
		return nil, nil, fmt.Errorf("apply action: destination is not the system action address %v", params.SysActionAddress.Hex())
	}
	statedb.Prepare(txHash, txIndex)
	result, err := ApplyMessage(blockCtx, chainConfig, msg, gp, statedb)
	if err != nil {
		return nil, nil, err
	}
	statedb.Finalise()

	var blockNumber uint64
	if blockCtx.BlockNumber != nil {
		blockNumber = blockCtx.BlockNumber.Uint64()
	}
	return result, statedb.GetLogs(txHash, blockNumber, common.Hash{}), nil
}
