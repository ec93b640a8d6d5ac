package vault

import "github.com/tos-network/gvault/metrics"

var (
	creditMeter    = metrics.NewRegisteredMeter("vault/credit", nil)
	requestMeter   = metrics.NewRegisteredMeter("vault/withdraw/request", nil)
	cancelMeter    = metrics.NewRegisteredMeter("vault/withdraw/cancel", nil)
	completeMeter  = metrics.NewRegisteredMeter("vault/withdraw/complete", nil)
	mismatchMeter  = metrics.NewRegisteredMeter("vault/withdraw/mismatch", nil)
	depositMeter   = metrics.NewRegisteredMeter("vault/deposit", nil)
	emergencyMeter = metrics.NewRegisteredMeter("vault/emergency", nil)
)
