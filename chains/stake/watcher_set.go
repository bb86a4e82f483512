// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package stake

import (
	"errors"

	"bonder-stake/addresses"
	"bonder-stake/chains"
	"bonder-stake/core"

	"github.com/ChainSafe/log15"
)

// siblingIndex maps chain slugs to the watchers of one token. It is owned by
// the WatcherSet; watchers only read from it.
type siblingIndex map[string]*StakeWatcher

func (s siblingIndex) lookup(token, chain string) (*StakeWatcher, error) {
	w, ok := s[chain]
	if !ok {
		return nil, &core.LookupError{Token: token, Chain: chain}
	}
	return w, nil
}

// WatcherSet holds one StakeWatcher per chain for a single token.
type WatcherSet struct {
	token    core.Token
	order    []string
	watchers siblingIndex
}

// Build resolves every (token, chain) pair before creating any watcher or
// chain client. A failure for any pair fails the whole set.
func Build(registry *addresses.Registry, provider chains.ClientProvider, symbol string, universe []core.Chain, opts Options, log log15.Logger) (*WatcherSet, error) {
	network := registry.Network().Slug
	token, ok := core.TokenBySymbol(symbol)
	if !ok {
		return nil, &core.ConfigError{Network: network, Token: symbol, Reason: "unknown token"}
	}
	if len(universe) == 0 {
		return nil, &core.ConfigError{Network: network, Token: symbol, Reason: "no chains to build watchers for"}
	}
	if err := opts.validate(); err != nil {
		return nil, &core.ConfigError{Network: network, Token: symbol, Reason: err.Error()}
	}

	deployments := make([]addresses.Deployment, len(universe))
	for i, chain := range universe {
		d, err := registry.Resolve(network, symbol, chain.Slug)
		if err != nil {
			return nil, err
		}
		deployments[i] = d
	}

	var base chains.ChainClient
	if opts.Route == RouteCanonical {
		c, err := clientFor(provider, network, symbol, core.Ethereum)
		if err != nil {
			return nil, err
		}
		base = c
	}
	clients := make([]chains.ChainClient, len(universe))
	for i, chain := range universe {
		c, err := clientFor(provider, network, symbol, chain.Slug)
		if err != nil {
			return nil, err
		}
		clients[i] = c
	}

	set := &WatcherSet{
		token:    token,
		order:    make([]string, 0, len(universe)),
		watchers: make(siblingIndex, len(universe)),
	}
	for i, chain := range universe {
		set.order = append(set.order, chain.Slug)
		set.watchers[chain.Slug] = &StakeWatcher{
			network:  network,
			token:    token,
			chain:    chain,
			d:        deployments[i],
			client:   clients[i],
			base:     base,
			siblings: set.watchers,
			opts:     opts,
			log:      log.New("token", symbol, "chain", chain.Slug),
		}
	}
	return set, nil
}

func clientFor(provider chains.ClientProvider, network, token, chain string) (chains.ChainClient, error) {
	c, err := provider.Client(chain)
	if err == nil {
		return c, nil
	}
	var cfgErr *core.ConfigError
	if errors.As(err, &cfgErr) {
		return nil, &core.ConfigError{Network: network, Token: token, Chain: chain, Reason: cfgErr.Reason}
	}
	return nil, &core.ConfigError{Network: network, Token: token, Chain: chain, Reason: err.Error()}
}

func (s *WatcherSet) Token() core.Token {
	return s.token
}

// Chains returns the chain slugs of the set in construction order.
func (s *WatcherSet) Chains() []string {
	return append([]string(nil), s.order...)
}

// First returns the watcher built first; any watcher reaches its siblings.
func (s *WatcherSet) First() *StakeWatcher {
	return s.watchers[s.order[0]]
}

func (s *WatcherSet) Watcher(chain string) (*StakeWatcher, error) {
	return s.watchers.lookup(s.token.Symbol, chain)
}
