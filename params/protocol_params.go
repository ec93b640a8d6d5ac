package params

const (
	GasLimitBoundDivisor uint64 = 1024               // The bound divisor of the gas limit, used in update calculations.
	MinGasLimit          uint64 = 5000               // Minimum the gas limit may ever be.
	MaxGasLimit          uint64 = 0x7fffffffffffffff // Maximum the gas limit (2^63-1).
	GenesisGasLimit      uint64 = 4712388            // Gas limit of the Genesis block.

	TxGas            uint64 = 3000 // Per transaction not creating a contract.
	TxDataZeroGas    uint64 = 4    // Per byte of transaction data that equals zero.
	TxDataNonZeroGas uint64 = 16   // Per byte of transaction data that is not equal to zero.

	// RefundQuotient is the cap on how much of the used gas can be refunded.
	RefundQuotient uint64 = 2
)
