// Package stats joins the published pool yields with the tokens and chains
// of an address registry for display.
package stats

import (
	"fmt"

	"bonder-stake/addresses"
	"bonder-stake/models/stakemodel"

	"github.com/shopspring/decimal"
)

// MissingDataError reports a (token, chain) pair the feed has no usable entry for.
type MissingDataError struct {
	Token  string
	Chain  string
	Reason string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("pool stats: token %q chain %q: %s", e.Token, e.Chain, e.Reason)
}

// Result is the stat of one pool, or the reason it could not be built.
type Result struct {
	Token string
	Chain string
	Stat  *stakemodel.PoolStat
	Err   error
}

// OrZero degrades a failed result to a zero yield row.
func (r Result) OrZero() stakemodel.PoolStat {
	if r.Err == nil && r.Stat != nil {
		return *r.Stat
	}
	zero := PercentDisplay(0)
	return stakemodel.PoolStat{
		Token:               r.Token,
		Chain:               r.Chain,
		AprFormatted:        zero,
		StakingAprFormatted: zero,
		TotalAprFormatted:   zero,
	}
}

// NormalizeSymbol maps wrapped and native symbols to the feed's pool symbol.
func NormalizeSymbol(symbol string) string {
	switch symbol {
	case "WETH":
		return "ETH"
	case "XDAI", "WXDAI":
		return "DAI"
	case "WMATIC":
		return "MATIC"
	}
	return symbol
}

// PercentDisplay renders a fractional rate with two decimals, 0.1234 as "12.34%".
func PercentDisplay(rate float64) string {
	return decimal.NewFromFloat(rate).Shift(2).StringFixed(2) + "%"
}

// Reconcile returns one result per (token, chain) of registry, ordered by
// token then by network chain order.
func Reconcile(registry *addresses.Registry, feed Snapshot) []Result {
	results := make([]Result, 0)
	for _, token := range registry.Tokens() {
		for _, chain := range registry.Chains(token) {
			stat, err := lookup(feed, token, chain)
			results = append(results, Result{Token: token, Chain: chain, Stat: stat, Err: err})
		}
	}
	return results
}

func lookup(feed Snapshot, token, chain string) (*stakemodel.PoolStat, error) {
	symbol := NormalizeSymbol(token)
	chains, ok := feed[symbol]
	if !ok {
		return nil, &MissingDataError{Token: token, Chain: chain, Reason: fmt.Sprintf("no data for token symbol %q", symbol)}
	}
	entry, ok := chains[chain]
	if !ok {
		return nil, &MissingDataError{Token: token, Chain: chain, Reason: "no data for network"}
	}
	if entry.Apr == nil {
		return nil, &MissingDataError{Token: token, Chain: chain, Reason: "no apr value"}
	}

	apr := *entry.Apr
	var stakingApr float64
	if entry.StakingApr != nil {
		stakingApr = *entry.StakingApr
	}
	total, _ := decimal.NewFromFloat(apr).Add(decimal.NewFromFloat(stakingApr)).Float64()
	return &stakemodel.PoolStat{
		Token:               token,
		Chain:               chain,
		Apr:                 apr,
		AprFormatted:        PercentDisplay(apr),
		StakingApr:          stakingApr,
		StakingAprFormatted: PercentDisplay(stakingApr),
		TotalApr:            total,
		TotalAprFormatted:   PercentDisplay(total),
	}, nil
}
