// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package core

// Mechanism is the kind of bridge connecting a secondary chain to the base chain.
type Mechanism string

const (
	NativeRollupBridge     = Mechanism("native-rollup-bridge")
	ArbitraryMessageBridge = Mechanism("arbitrary-message-bridge")
)

// Slug of the base settlement chain. Registry tables key the base-chain
// token and bridge under it.
const Ethereum = "ethereum"

const (
	Optimism = "optimism"
	Arbitrum = "arbitrum"
	XDai     = "xdai"
	Polygon  = "polygon"
)

type Chain struct {
	Slug      string
	Mechanism Mechanism
}

func (c Chain) IsAmb() bool {
	return c.Mechanism == ArbitraryMessageBridge
}

var knownChains = map[string]Chain{
	Optimism: {Slug: Optimism, Mechanism: NativeRollupBridge},
	Arbitrum: {Slug: Arbitrum, Mechanism: NativeRollupBridge},
	XDai:     {Slug: XDai, Mechanism: ArbitraryMessageBridge},
	Polygon:  {Slug: Polygon, Mechanism: NativeRollupBridge},
}

// ChainBySlug returns the secondary chain registered under slug.
func ChainBySlug(slug string) (Chain, bool) {
	c, ok := knownChains[slug]
	return c, ok
}

// StakeUniverse is the fixed set of secondary chains stake actions are
// dispatched over, in watcher construction order.
func StakeUniverse() []Chain {
	return []Chain{
		knownChains[Optimism],
		knownChains[Arbitrum],
		knownChains[XDai],
		knownChains[Polygon],
	}
}

type Network struct {
	Slug   string
	Chains []string // supported secondary chain slugs
}

func (n Network) Supports(chain string) bool {
	for _, c := range n.Chains {
		if c == chain {
			return true
		}
	}
	return false
}

// Universe filters chains down to the ones deployed on this network,
// keeping their order.
func (n Network) Universe(chains []Chain) []Chain {
	ret := make([]Chain, 0, len(chains))
	for _, c := range chains {
		if n.Supports(c.Slug) {
			ret = append(ret, c)
		}
	}
	return ret
}

var knownNetworks = map[string]Network{
	"kovan":   {Slug: "kovan", Chains: []string{XDai, Optimism}},
	"goerli":  {Slug: "goerli", Chains: []string{Optimism, Arbitrum, Polygon}},
	"mainnet": {Slug: "mainnet", Chains: []string{XDai, Optimism, Arbitrum, Polygon}},
}

func NetworkBySlug(slug string) (Network, bool) {
	n, ok := knownNetworks[slug]
	return n, ok
}

type ChainConfig struct {
	Name          string // chain slug, ethereum for the base chain
	Endpoint      string // url for rpc endpoint
	MaxGasPrice   int64  // gwei
	GasLimit      uint64 // 0 lets the node estimate
	Confirmations uint64
}
