package vault

import (
	"github.com/tos-network/gvault/params"
	"github.com/tos-network/gvault/sysaction"
)

// ActionGas returns the schedule cost of one vault action, charged by the
// state processor on top of the intrinsic transaction gas. n is the element
// count for batch actions and ignored otherwise. Unknown kinds cost nothing
// here; the dispatcher rejects them anyway.
func ActionGas(kind sysaction.ActionKind, n int) uint64 {
	switch kind {
	case sysaction.ActionVaultCredit:
		return params.VaultCreditGas
	case sysaction.ActionVaultCreditBatch:
		if n < 0 {
			n = 0
		}
		return uint64(n) * params.VaultCreditGas
	case sysaction.ActionVaultWithdrawRequest:
		return params.VaultRequestGas
	case sysaction.ActionVaultWithdrawCancel:
		return params.VaultCancelGas
	case sysaction.ActionVaultWithdrawComplete:
		return params.VaultCompleteGas
	case sysaction.ActionVaultDeposit:
		return params.VaultDepositGas
	case sysaction.ActionVaultEmergencyWithdraw,
		sysaction.ActionVaultSetToken,
		sysaction.ActionVaultTransferOwnership:
		return params.VaultAdminGas
	}
	return 0
}
