package config

import "time"

// Gas limits used as EstimateGas fallbacks when the node cannot simulate the tx.
const (
	GasLimitERC20Transfer = uint64(60_000)  // MockUSDC transfer
	GasLimitERC20Mint     = uint64(80_000)  // MockUSDC mint
	GasLimitContractCall  = uint64(200_000) // generic contract state-change call
)

// Timeouts shared by commands.
const (
	RPCSelectTimeout = 10 * time.Second
	TxConfirmTimeout = 3 * time.Minute
)
