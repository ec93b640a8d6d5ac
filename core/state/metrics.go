package state

import "github.com/tos-network/gvault/metrics"

var (
	accountUpdatedMeter = metrics.NewRegisteredMeter("state/update/account", nil)
	storageUpdatedMeter = metrics.NewRegisteredMeter("state/update/storage", nil)
	storageDeletedMeter = metrics.NewRegisteredMeter("state/delete/storage", nil)
	stateCommitTimer    = metrics.NewRegisteredTimer("state/commit", nil)
)
