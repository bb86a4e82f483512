package stake

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"bonder-stake/addresses"
	"bonder-stake/chains"
	"bonder-stake/core"
	"bonder-stake/models/stakemodel"
	"bonder-stake/utils"

	"github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// StakeWatcher performs bonder actions for one token on one secondary chain.
// Every balance, allowance and stake figure is read live from the chain.
type StakeWatcher struct {
	network  string
	token    core.Token
	chain    core.Chain
	d        addresses.Deployment
	client   chains.ChainClient
	base     chains.ChainClient // nil unless the canonical route is used
	siblings siblingIndex
	opts     Options
	log      log15.Logger
}

func (w *StakeWatcher) Token() core.Token {
	return w.token
}

func (w *StakeWatcher) Chain() core.Chain {
	return w.chain
}

func (w *StakeWatcher) Deployment() addresses.Deployment {
	return w.d
}

// SiblingFor returns the watcher of the same token bound to chain.
func (w *StakeWatcher) SiblingFor(chain string) (*StakeWatcher, error) {
	return w.siblings.lookup(w.token.Symbol, chain)
}

// ParseAmount converts a human readable amount to base units of the token.
func (w *StakeWatcher) ParseAmount(value string) (*big.Int, error) {
	amount, err := utils.ParseUnits(value, w.token.Decimals)
	if err != nil {
		return nil, &core.ValidationError{Field: "amount", Reason: err.Error()}
	}
	return amount, nil
}

func (w *StakeWatcher) format(amount *big.Int) string {
	return utils.FormatUnits(amount, w.token.Decimals)
}

type allowanceTarget struct {
	client  chains.ChainClient
	chain   string
	token   common.Address
	spender common.Address
}

func (w *StakeWatcher) allowanceTargets() []allowanceTarget {
	targets := make([]allowanceTarget, 0, 2)
	if w.opts.Route == RouteCanonical {
		targets = append(targets, allowanceTarget{
			client:  w.base,
			chain:   core.Ethereum,
			token:   w.d.L1CanonicalToken,
			spender: w.d.L1CanonicalBridge,
		})
	}
	return append(targets, allowanceTarget{
		client:  w.client,
		chain:   w.chain.Slug,
		token:   w.d.L2CanonicalToken,
		spender: w.d.L2SaddleSwap,
	})
}

// ApproveAllowance makes sure every spender used by ConvertAndStake may move
// the bonder's canonical tokens. It returns once all approvals are confirmed.
func (w *StakeWatcher) ApproveAllowance(ctx context.Context) error {
	threshold, err := w.ParseAmount(w.opts.ApprovalThreshold)
	if err != nil {
		return err
	}
	for _, t := range w.allowanceTargets() {
		token := t.client.Token(t.token)
		allowance, err := token.Allowance(ctx, t.client.From(), t.spender)
		if err != nil {
			return err
		}
		if allowance.Cmp(threshold) >= 0 {
			w.log.Debug("allowance already sufficient", "on", t.chain, "token", t.token, "spender", t.spender)
			continue
		}
		w.log.Info("approving", "on", t.chain, "token", t.token, "spender", t.spender)
		tx, err := token.Approve(ctx, t.spender, math.MaxBig256)
		if err != nil {
			return err
		}
		if err := t.client.WaitConfirmed(ctx, "approve", tx); err != nil {
			return err
		}
	}
	return nil
}

// ConvertAndStake tops up the bonder's hop bridge tokens from the configured
// route when needed and stakes amount on the chain's bridge.
func (w *StakeWatcher) ConvertAndStake(ctx context.Context, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return &core.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	var canonicalBridge chains.CanonicalBridge
	if w.opts.Route == RouteCanonical {
		cb, err := w.base.CanonicalBridge(w.chain.Slug, w.d.L1CanonicalBridge)
		if err != nil {
			var cfgErr *core.ConfigError
			if errors.As(err, &cfgErr) {
				return &core.ConfigError{Network: w.network, Token: w.token.Symbol, Chain: w.chain.Slug, Reason: cfgErr.Reason}
			}
			return err
		}
		canonicalBridge = cb
	}

	from := w.client.From()
	bridge := w.client.Bridge(w.d.L2Bridge)
	isBonder, err := bridge.IsBonder(ctx, from)
	if err != nil {
		return err
	}
	if !isBonder {
		return &core.NotBonderError{Chain: w.chain.Slug, Bonder: from}
	}

	hopToken := w.client.Token(w.d.L2HopBridgeToken)
	hopBalance, err := hopToken.BalanceOf(ctx, from)
	if err != nil {
		return err
	}
	if hopBalance.Cmp(amount) < 0 {
		shortfall := new(big.Int).Sub(amount, hopBalance)
		plan, err := w.planSwap(ctx, shortfall)
		if err != nil {
			return err
		}
		w.log.Info("converting to hop bridge token", "route", w.opts.Route,
			"shortfall", w.format(shortfall), "dx", w.format(plan.dx))
		if canonicalBridge != nil {
			if err := w.depositViaCanonicalBridge(ctx, canonicalBridge, plan.dx); err != nil {
				return err
			}
		}
		if err := w.executeSwap(ctx, plan); err != nil {
			return err
		}
		hopBalance, err = hopToken.BalanceOf(ctx, from)
		if err != nil {
			return err
		}
		if hopBalance.Cmp(amount) < 0 {
			return &core.InsufficientBalanceError{Token: w.token.Symbol, Chain: w.chain.Slug, Balance: hopBalance, Need: amount}
		}
	}

	w.log.Info("staking", "amount", w.format(amount))
	tx, err := bridge.Stake(ctx, from, amount)
	if err != nil {
		return err
	}
	if err := w.client.WaitConfirmed(ctx, "stake", tx); err != nil {
		return err
	}
	w.log.Info("stake confirmed", "amount", w.format(amount), "txHash", tx.Hash())
	return nil
}

// Quote rounds before giving up on sizing a swap input.
const maxSwapSizingRounds = 8

type swapPlan struct {
	swap     chains.Swap
	from, to uint8
	dx       *big.Int // canonical tokens in
	dy       *big.Int // quoted hop bridge tokens out, at least want
	want     *big.Int
}

// planSwap finds the canonical input whose quoted output covers want. The
// pool charges a fee, so dx grows with the quoted shortfall until it does.
func (w *StakeWatcher) planSwap(ctx context.Context, want *big.Int) (*swapPlan, error) {
	swap := w.client.Swap(w.d.L2SaddleSwap)
	fromIndex, err := swap.TokenIndex(ctx, w.d.L2CanonicalToken)
	if err != nil {
		return nil, err
	}
	toIndex, err := swap.TokenIndex(ctx, w.d.L2HopBridgeToken)
	if err != nil {
		return nil, err
	}

	dx := new(big.Int).Set(want)
	for i := 0; i < maxSwapSizingRounds; i++ {
		dy, err := swap.CalculateSwap(ctx, fromIndex, toIndex, dx)
		if err != nil {
			return nil, err
		}
		if dy.Cmp(want) >= 0 {
			return &swapPlan{swap: swap, from: fromIndex, to: toIndex, dx: dx, dy: dy, want: want}, nil
		}
		if dy.Sign() == 0 {
			return nil, fmt.Errorf("swap on %s quotes zero output for %s", w.chain.Slug, w.format(dx))
		}
		// dx * want / dy, rounded up
		next := new(big.Int).Mul(dx, want)
		next.Add(next, new(big.Int).Sub(dy, big.NewInt(1)))
		next.Div(next, dy)
		if next.Cmp(dx) <= 0 {
			next.Add(dx, big.NewInt(1))
		}
		dx = next
	}
	return nil, fmt.Errorf("swap on %s: no input found to cover %s", w.chain.Slug, w.format(want))
}

func (w *StakeWatcher) executeSwap(ctx context.Context, plan *swapPlan) error {
	from := w.client.From()
	canonical := w.client.Token(w.d.L2CanonicalToken)
	balance, err := canonical.BalanceOf(ctx, from)
	if err != nil {
		return err
	}
	if balance.Cmp(plan.dx) < 0 {
		return &core.InsufficientBalanceError{Token: w.token.Symbol, Chain: w.chain.Slug, Balance: balance, Need: plan.dx}
	}
	allowance, err := canonical.Allowance(ctx, from, w.d.L2SaddleSwap)
	if err != nil {
		return err
	}
	if allowance.Cmp(plan.dx) < 0 {
		return &core.InsufficientAllowanceError{Token: w.token.Symbol, Chain: w.chain.Slug,
			Spender: w.d.L2SaddleSwap, Allowance: allowance, Need: plan.dx}
	}

	// never accept less than the stake needs
	minDy := utils.ApplySlippage(plan.dy, w.opts.Slippage)
	if minDy.Cmp(plan.want) < 0 {
		minDy = new(big.Int).Set(plan.want)
	}
	deadline := big.NewInt(w.opts.now().Add(w.opts.SwapDeadline).Unix())

	w.log.Info("swapping", "dx", w.format(plan.dx), "minDy", w.format(minDy))
	tx, err := plan.swap.Swap(ctx, plan.from, plan.to, plan.dx, minDy, deadline)
	if err != nil {
		return err
	}
	return w.client.WaitConfirmed(ctx, "swap", tx)
}

// depositViaCanonicalBridge brings the secondary-chain canonical balance up
// to dx, depositing only the missing part.
func (w *StakeWatcher) depositViaCanonicalBridge(ctx context.Context, cb chains.CanonicalBridge, dx *big.Int) error {
	l2Token := w.client.Token(w.d.L2CanonicalToken)
	before, err := l2Token.BalanceOf(ctx, w.client.From())
	if err != nil {
		return err
	}
	if before.Cmp(dx) >= 0 {
		return nil
	}
	amount := new(big.Int).Sub(dx, before)

	if limit, ok := w.d.MaxPerTx(); ok {
		maxAmount, err := w.ParseAmount(limit.String())
		if err != nil {
			return err
		}
		if amount.Cmp(maxAmount) > 0 {
			return &core.ValidationError{Field: "amount",
				Reason: "canonical bridge deposit of " + w.format(amount) + " exceeds per-tx cap " + w.d.CanonicalBridgeMaxPerTx}
		}
	}

	from := w.base.From()
	l1Token := w.base.Token(w.d.L1CanonicalToken)
	balance, err := l1Token.BalanceOf(ctx, from)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return &core.InsufficientBalanceError{Token: w.token.Symbol, Chain: core.Ethereum, Balance: balance, Need: amount}
	}
	allowance, err := l1Token.Allowance(ctx, from, w.d.L1CanonicalBridge)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return &core.InsufficientAllowanceError{Token: w.token.Symbol, Chain: core.Ethereum,
			Spender: w.d.L1CanonicalBridge, Allowance: allowance, Need: amount}
	}

	w.log.Info("depositing through canonical bridge", "mechanism", w.chain.Mechanism, "amount", w.format(amount))
	tx, err := cb.Deposit(ctx, w.d.L1CanonicalToken, w.d.L2CanonicalToken, w.client.From(), amount)
	if err != nil {
		return err
	}
	if err := w.base.WaitConfirmed(ctx, "deposit", tx); err != nil {
		return err
	}
	return w.waitArrival(ctx, l2Token, dx)
}

// waitArrival blocks until the relayed deposit shows up on the secondary chain.
func (w *StakeWatcher) waitArrival(ctx context.Context, token chains.Token, target *big.Int) error {
	for {
		balance, err := token.BalanceOf(ctx, w.client.From())
		if err != nil {
			return err
		}
		if balance.Cmp(target) >= 0 {
			return nil
		}
		w.log.Info("waiting for canonical deposit to arrive", "balance", w.format(balance), "target", w.format(target))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.opts.ArrivalPollInterval):
		}
	}
}

// Unstake withdraws amount of collateral back to the bonder.
func (w *StakeWatcher) Unstake(ctx context.Context, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return &core.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	bridge := w.client.Bridge(w.d.L2Bridge)
	staked, _, _, err := w.stakedBalance(ctx, bridge)
	if err != nil {
		return err
	}
	if amount.Cmp(staked) > 0 {
		return &core.InsufficientStakedBalanceError{Token: w.token.Symbol, Chain: w.chain.Slug, Staked: staked, Requested: amount}
	}

	w.log.Info("unstaking", "amount", w.format(amount))
	tx, err := bridge.Unstake(ctx, amount)
	if err != nil {
		return err
	}
	if err := w.client.WaitConfirmed(ctx, "unstake", tx); err != nil {
		return err
	}
	w.log.Info("unstake confirmed", "amount", w.format(amount), "txHash", tx.Hash())
	return nil
}

func (w *StakeWatcher) stakedBalance(ctx context.Context, bridge chains.Bridge) (staked, credit, debit *big.Int, err error) {
	from := w.client.From()
	credit, err = bridge.Credit(ctx, from)
	if err != nil {
		return nil, nil, nil, err
	}
	debit, err = bridge.Debit(ctx, from)
	if err != nil {
		return nil, nil, nil, err
	}
	staked = new(big.Int).Sub(credit, debit)
	if staked.Sign() < 0 {
		staked.SetInt64(0)
	}
	return staked, credit, debit, nil
}

// Status reads the bonder position without submitting anything.
func (w *StakeWatcher) Status(ctx context.Context) (*stakemodel.Status, error) {
	from := w.client.From()
	bridge := w.client.Bridge(w.d.L2Bridge)

	isBonder, err := bridge.IsBonder(ctx, from)
	if err != nil {
		return nil, err
	}
	staked, credit, debit, err := w.stakedBalance(ctx, bridge)
	if err != nil {
		return nil, err
	}
	canonical := w.client.Token(w.d.L2CanonicalToken)
	canonicalBalance, err := canonical.BalanceOf(ctx, from)
	if err != nil {
		return nil, err
	}
	allowance, err := canonical.Allowance(ctx, from, w.d.L2SaddleSwap)
	if err != nil {
		return nil, err
	}
	hopBalance, err := w.client.Token(w.d.L2HopBridgeToken).BalanceOf(ctx, from)
	if err != nil {
		return nil, err
	}

	status := &stakemodel.Status{
		Token:            w.token.Symbol,
		Chain:            w.chain.Slug,
		Decimals:         w.token.Decimals,
		Bonder:           from,
		IsBonder:         isBonder,
		CanonicalBalance: canonicalBalance,
		HopTokenBalance:  hopBalance,
		Credit:           credit,
		Debit:            debit,
		Staked:           staked,
		Allowance:        allowance,
	}
	w.log.Debug("status", "canonical", w.format(canonicalBalance), "hop", w.format(hopBalance),
		"credit", w.format(credit), "debit", w.format(debit), "staked", w.format(staked))
	return status, nil
}
