package stakemodel

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Status is a live snapshot of the bonder position for one (token, chain).
type Status struct {
	Token    string
	Chain    string
	Decimals int32
	Bonder   common.Address
	IsBonder bool

	CanonicalBalance *big.Int // secondary chain canonical token
	HopTokenBalance  *big.Int
	Credit           *big.Int
	Debit            *big.Int
	Staked           *big.Int // credit minus debit, withdrawable by unstake
	Allowance        *big.Int // canonical token allowance of the AMM swap
}

// PoolStat is one row of the yield display.
type PoolStat struct {
	Token               string
	Chain               string
	Apr                 float64
	AprFormatted        string
	StakingApr          float64
	StakingAprFormatted string
	TotalApr            float64
	TotalAprFormatted   string
}
