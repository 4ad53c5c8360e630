package core

import (
	"github.com/shopspring/decimal"
)

const (
	LAMPORTS_PER_SOL = 1_000_000_000

	// flat relay fee charged on every native withdrawal
	DEFAULT_SOL_BASE_FEE = 6_000_000
	// token-denominated relay fee for SPL withdrawals (0.85 units of a 6 decimal stablecoin)
	DEFAULT_SPL_BASE_FEE = 850_000

	DEFAULT_NETWORK_FEE_ESTIMATE = 10_000
	DEFAULT_SOL_SAFETY_BUFFER    = 5_000_000

	DEFAULT_LIST_LIMIT = 50
	MAX_LIST_LIMIT     = 500
)

var (
	ZERO = decimal.Zero

	DEFAULT_WITHDRAW_FEE_RATE = decimal.RequireFromString("0.0035")
	DEFAULT_OWNER_FEE_RATE    = decimal.RequireFromString("0.01")
)
