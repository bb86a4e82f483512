package stake

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ConvertRoute selects where hop bridge tokens come from when the bonder
// holds fewer than the amount to stake.
type ConvertRoute string

const (
	// Swap secondary-chain canonical tokens on the AMM.
	RouteAmm = ConvertRoute("amm")
	// Deposit base-chain canonical tokens through the chain's canonical
	// bridge, wait for them to arrive, then swap on the AMM.
	RouteCanonical = ConvertRoute("canonical")
)

const (
	DefaultSlippage            = "0.005"
	DefaultSwapDeadline        = time.Minute * 5
	DefaultApprovalThreshold   = "1000000"
	DefaultArrivalPollInterval = time.Second * 10
)

type Options struct {
	Route    ConvertRoute
	Slippage decimal.Decimal
	// Lifetime of AMM swaps submitted by convertAndStake.
	SwapDeadline time.Duration
	// Allowances at or above this amount, in human units, are not re-approved.
	ApprovalThreshold string
	// Polling interval while waiting for canonical deposits to be relayed.
	ArrivalPollInterval time.Duration
	Now                 func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Route:               RouteAmm,
		Slippage:            decimal.RequireFromString(DefaultSlippage),
		SwapDeadline:        DefaultSwapDeadline,
		ApprovalThreshold:   DefaultApprovalThreshold,
		ArrivalPollInterval: DefaultArrivalPollInterval,
		Now:                 time.Now,
	}
}

func (o Options) validate() error {
	switch o.Route {
	case RouteAmm, RouteCanonical:
	default:
		return fmt.Errorf("unknown convert route %q", o.Route)
	}
	if o.Slippage.IsNegative() || o.Slippage.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("slippage must be in [0, 1): %s", o.Slippage)
	}
	if o.SwapDeadline <= 0 {
		return fmt.Errorf("swap deadline must be positive")
	}
	return nil
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}
