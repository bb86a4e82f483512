// Package addresses holds the per-environment bridge deployment tables.
//
// A table is keyed by token symbol, then by chain slug. The base-chain
// entry lives under "ethereum" and carries l1CanonicalToken and l1Bridge;
// every secondary-chain entry carries the remaining fields. Tables are
// loaded once and never mutated, so a *Registry is safe for concurrent use.
package addresses

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"

	"bonder-stake/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

//go:embed kovan.json
var kovanTable []byte

var embedded = map[string][]byte{
	"kovan": kovanTable,
}

// Deployment is the full address topology of one token on one secondary chain.
type Deployment struct {
	L1CanonicalToken  common.Address
	L1Bridge          common.Address
	L1CanonicalBridge common.Address
	L2CanonicalBridge common.Address
	L2CanonicalToken  common.Address
	L2Bridge          common.Address
	L2HopBridgeToken  common.Address
	L2AmmWrapper      common.Address
	L2SaddleSwap      common.Address
	L2SaddleLpToken   common.Address

	// Present only on arbitrary-message-bridge chains.
	L1Amb *common.Address
	L2Amb *common.Address

	// Human units, empty when the canonical bridge has no per-tx limit.
	CanonicalBridgeMaxPerTx string
}

func (d Deployment) HasAmb() bool {
	return d.L1Amb != nil && d.L2Amb != nil
}

// MaxPerTx returns the canonical bridge deposit cap in human units.
func (d Deployment) MaxPerTx() (decimal.Decimal, bool) {
	if d.CanonicalBridgeMaxPerTx == "" {
		return decimal.Zero, false
	}
	limit, err := decimal.NewFromString(d.CanonicalBridgeMaxPerTx)
	if err != nil {
		return decimal.Zero, false
	}
	return limit, true
}

type entry struct {
	L1CanonicalToken        string `json:"l1CanonicalToken"`
	L1Bridge                string `json:"l1Bridge"`
	L1CanonicalBridge       string `json:"l1CanonicalBridge"`
	L2CanonicalBridge       string `json:"l2CanonicalBridge"`
	L2CanonicalToken        string `json:"l2CanonicalToken"`
	L2Bridge                string `json:"l2Bridge"`
	L2HopBridgeToken        string `json:"l2HopBridgeToken"`
	L2AmmWrapper            string `json:"l2AmmWrapper"`
	L2SaddleSwap            string `json:"l2SaddleSwap"`
	L2SaddleLpToken         string `json:"l2SaddleLpToken"`
	L1Amb                   string `json:"l1Amb"`
	L2Amb                   string `json:"l2Amb"`
	CanonicalBridgeMaxPerTx string `json:"canonicalBridgeMaxPerTx"`
}

type Registry struct {
	network     core.Network
	deployments map[string]map[string]Deployment
}

// ForNetwork returns the table compiled into the binary for network.
func ForNetwork(network string) (*Registry, error) {
	raw, ok := embedded[network]
	if !ok {
		return nil, &core.ConfigError{Network: network, Reason: "no built-in address table, pass an addresses file"}
	}
	return Parse(network, raw)
}

// Load reads an external table for network from path.
func Load(network, path string) (*Registry, error) {
	raw, err := ioutil.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read addresses file: %w", err)
	}
	return Parse(network, raw)
}

func Parse(network string, raw []byte) (*Registry, error) {
	n, ok := core.NetworkBySlug(network)
	if !ok {
		return nil, &core.ConfigError{Network: network, Reason: "unknown network"}
	}

	table := make(map[string]map[string]entry)
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, &core.ConfigError{Network: network, Reason: fmt.Sprintf("malformed address table: %s", err)}
	}

	r := &Registry{network: n, deployments: make(map[string]map[string]Deployment)}
	for symbol, chains := range table {
		if _, ok := core.TokenBySymbol(symbol); !ok {
			return nil, &core.ConfigError{Network: network, Token: symbol, Reason: "unknown token"}
		}
		base, ok := chains[core.Ethereum]
		if !ok {
			return nil, &core.ConfigError{Network: network, Token: symbol, Chain: core.Ethereum, Reason: "missing base chain entry"}
		}
		r.deployments[symbol] = make(map[string]Deployment)
		for slug, e := range chains {
			if slug == core.Ethereum {
				continue
			}
			d, err := newDeployment(n, symbol, slug, base, e)
			if err != nil {
				return nil, err
			}
			r.deployments[symbol][slug] = d
		}
	}
	return r, nil
}

func newDeployment(n core.Network, symbol, slug string, base, e entry) (Deployment, error) {
	fail := func(reason string) (Deployment, error) {
		return Deployment{}, &core.ConfigError{Network: n.Slug, Token: symbol, Chain: slug, Reason: reason}
	}

	chain, ok := core.ChainBySlug(slug)
	if !ok {
		return fail("unknown chain")
	}
	if !n.Supports(slug) {
		return fail("chain not deployed on network")
	}

	var d Deployment
	mandatory := []struct {
		name  string
		value string
		dst   *common.Address
	}{
		{"l1CanonicalToken", base.L1CanonicalToken, &d.L1CanonicalToken},
		{"l1Bridge", base.L1Bridge, &d.L1Bridge},
		{"l1CanonicalBridge", e.L1CanonicalBridge, &d.L1CanonicalBridge},
		{"l2CanonicalBridge", e.L2CanonicalBridge, &d.L2CanonicalBridge},
		{"l2CanonicalToken", e.L2CanonicalToken, &d.L2CanonicalToken},
		{"l2Bridge", e.L2Bridge, &d.L2Bridge},
		{"l2HopBridgeToken", e.L2HopBridgeToken, &d.L2HopBridgeToken},
		{"l2AmmWrapper", e.L2AmmWrapper, &d.L2AmmWrapper},
		{"l2SaddleSwap", e.L2SaddleSwap, &d.L2SaddleSwap},
		{"l2SaddleLpToken", e.L2SaddleLpToken, &d.L2SaddleLpToken},
	}
	for _, f := range mandatory {
		if f.value == "" {
			return fail("missing " + f.name)
		}
		if !common.IsHexAddress(f.value) {
			return fail(fmt.Sprintf("%s is not an address: %s", f.name, f.value))
		}
		*f.dst = common.HexToAddress(f.value)
	}

	hasAmb := e.L1Amb != "" || e.L2Amb != ""
	if hasAmb != chain.IsAmb() {
		return fail(fmt.Sprintf("message bridge endpoints do not match %s mechanism", chain.Mechanism))
	}
	if chain.IsAmb() {
		for _, v := range []string{e.L1Amb, e.L2Amb} {
			if !common.IsHexAddress(v) {
				return fail(fmt.Sprintf("message bridge endpoint is not an address: %q", v))
			}
		}
		l1, l2 := common.HexToAddress(e.L1Amb), common.HexToAddress(e.L2Amb)
		d.L1Amb, d.L2Amb = &l1, &l2
	}

	if e.CanonicalBridgeMaxPerTx != "" {
		limit, err := decimal.NewFromString(e.CanonicalBridgeMaxPerTx)
		if err != nil || !limit.IsPositive() {
			return fail(fmt.Sprintf("canonicalBridgeMaxPerTx must be a positive decimal: %q", e.CanonicalBridgeMaxPerTx))
		}
		d.CanonicalBridgeMaxPerTx = e.CanonicalBridgeMaxPerTx
	}
	return d, nil
}

// Resolve looks up the deployment of token on chain. It never does I/O.
func (r *Registry) Resolve(network, token, chain string) (Deployment, error) {
	if network != r.network.Slug {
		return Deployment{}, &core.ConfigError{Network: network, Token: token, Chain: chain,
			Reason: fmt.Sprintf("registry is loaded for %s", r.network.Slug)}
	}
	chains, ok := r.deployments[token]
	if !ok {
		return Deployment{}, &core.ConfigError{Network: network, Token: token, Chain: chain, Reason: "token not supported"}
	}
	d, ok := chains[chain]
	if !ok {
		return Deployment{}, &core.ConfigError{Network: network, Token: token, Chain: chain, Reason: "chain not supported for token"}
	}
	return d, nil
}

func (r *Registry) Network() core.Network {
	return r.network
}

func (r *Registry) HasToken(token string) bool {
	_, ok := r.deployments[token]
	return ok
}

// Tokens lists the token symbols of the table in lexical order.
func (r *Registry) Tokens() []string {
	ret := make([]string, 0, len(r.deployments))
	for symbol := range r.deployments {
		ret = append(ret, symbol)
	}
	sort.Strings(ret)
	return ret
}

// Chains lists the chains token is deployed on, in network order.
func (r *Registry) Chains(token string) []string {
	ret := make([]string, 0)
	for _, slug := range r.network.Chains {
		if _, ok := r.deployments[token][slug]; ok {
			ret = append(ret, slug)
		}
	}
	return ret
}
