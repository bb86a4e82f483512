// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package staker

import (
	"context"
	"fmt"
	"math/big"

	"bonder-stake/addresses"
	"bonder-stake/chains"
	"bonder-stake/chains/stake"
	"bonder-stake/core"
	"bonder-stake/models/stakemodel"
	"bonder-stake/utils"

	"github.com/ChainSafe/log15"
)

// Result is the outcome of one dispatched action.
type Result struct {
	Action core.StakeAction
	Amount *big.Int           // base units, nil for status
	Status *stakemodel.Status // status actions only
}

// Dispatcher turns a StakeAction into calls on the StakeWatcher bound to the
// action's chain.
type Dispatcher struct {
	registry *addresses.Registry
	provider chains.ClientProvider
	universe []core.Chain
	opts     stake.Options
	log      log15.Logger
}

func NewDispatcher(registry *addresses.Registry, provider chains.ClientProvider, opts stake.Options, log log15.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		provider: provider,
		universe: registry.Network().Universe(core.StakeUniverse()),
		opts:     opts,
		log:      log.New("network", registry.Network().Slug),
	}
}

// Validate checks the action without touching any chain.
func (d *Dispatcher) Validate(action core.StakeAction) error {
	return Validate(d.registry, action)
}

// Validate checks action against registry alone. It needs no provider, so
// callers can reject input before unlocking a keystore.
func Validate(registry *addresses.Registry, action core.StakeAction) error {
	if action.Network == "" {
		return &core.ValidationError{Field: "network", Reason: "required"}
	}
	if action.Network != registry.Network().Slug {
		return &core.ValidationError{Field: "network",
			Reason: fmt.Sprintf("%q does not match the loaded address table %q", action.Network, registry.Network().Slug)}
	}
	if action.Chain == "" {
		return &core.ValidationError{Field: "chain", Reason: "required"}
	}
	if action.Token == "" {
		return &core.ValidationError{Field: "token", Reason: "required"}
	}
	token, ok := core.TokenBySymbol(action.Token)
	if !ok || !registry.HasToken(action.Token) {
		return &core.ValidationError{Field: "token", Reason: fmt.Sprintf("%q is not supported on %s", action.Token, action.Network)}
	}

	switch action.Kind {
	case core.Status:
		return nil
	case core.Stake, core.Unstake:
	default:
		return &core.ValidationError{Field: "action", Reason: fmt.Sprintf("unknown action %d", action.Kind)}
	}
	amount, err := utils.ParseUnits(action.Amount, token.Decimals)
	if err != nil {
		return &core.ValidationError{Field: "amount", Reason: err.Error()}
	}
	if amount.Sign() <= 0 {
		return &core.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	return nil
}

// ResolveExecutor builds the token's watcher set and returns the member bound
// to the action's chain.
func (d *Dispatcher) ResolveExecutor(action core.StakeAction) (*stake.StakeWatcher, error) {
	set, err := stake.Build(d.registry, d.provider, action.Token, d.universe, d.opts, d.log)
	if err != nil {
		return nil, err
	}
	return set.First().SiblingFor(action.Chain)
}

// Dispatch validates, resolves and executes action. Errors are returned
// unchanged so callers can inspect them with errors.As.
func (d *Dispatcher) Dispatch(ctx context.Context, action core.StakeAction) (*Result, error) {
	log := d.log.New("action", action.Kind, "token", action.Token, "chain", action.Chain)

	if err := d.Validate(action); err != nil {
		log.Error("invalid action", "err", err)
		return nil, err
	}
	w, err := d.ResolveExecutor(action)
	if err != nil {
		log.Error("resolve watcher failed", "err", err)
		return nil, err
	}

	result := &Result{Action: action}
	switch action.Kind {
	case core.Status:
		status, err := w.Status(ctx)
		if err != nil {
			log.Error("read status failed", "err", err)
			return nil, err
		}
		result.Status = status
		return result, nil
	}

	amount, err := w.ParseAmount(action.Amount)
	if err != nil {
		return nil, err
	}
	result.Amount = amount

	switch action.Kind {
	case core.Stake:
		if err := w.ApproveAllowance(ctx); err != nil {
			log.Error("approve allowance failed", "err", err)
			return nil, err
		}
		if err := w.ConvertAndStake(ctx, amount); err != nil {
			log.Error("stake failed", "err", err)
			return nil, err
		}
	case core.Unstake:
		if err := w.Unstake(ctx, amount); err != nil {
			log.Error("unstake failed", "err", err)
			return nil, err
		}
	}
	log.Info("action complete", "amount", action.Amount)
	return result, nil
}
