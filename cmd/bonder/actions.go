package main

import (
	"fmt"

	"bonder-stake/chains"
	"bonder-stake/config"
	"bonder-stake/core"
	"bonder-stake/models/stakemodel"
	"bonder-stake/shared/hop"
	"bonder-stake/staker"
	"bonder-stake/stats"
	"bonder-stake/utils"

	log "github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stafiprotocol/chainbridge/utils/crypto/secp256k1"
	"github.com/urfave/cli/v2"
)

// Replaced in tests.
var (
	unlockKeypair = loadKeypair
	newProvider   = func(configs []*core.ChainConfig, bonder common.Address, kp *secp256k1.Keypair, l log.Logger) (chains.ClientProvider, func()) {
		p := hop.NewProvider(configs, bonder, kp, l)
		return p, p.Close
	}
)

func handleStakeCmd(ctx *cli.Context) error {
	return runAction(ctx, core.Stake)
}

func handleUnstakeCmd(ctx *cli.Context) error {
	return runAction(ctx, core.Unstake)
}

func handleStatusCmd(ctx *cli.Context) error {
	return runAction(ctx, core.Status)
}

func runAction(ctx *cli.Context, kind core.ActionKind) error {
	cfg, err := config.GetConfig(ctx)
	if err != nil {
		return err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}
	opts, err := cfg.StakeOptions()
	if err != nil {
		return err
	}
	bonder, err := cfg.BonderAddress()
	if err != nil {
		return err
	}

	action := core.StakeAction{
		Network: cfg.Network,
		Chain:   ctx.String(config.ChainFlag.Name),
		Token:   ctx.String(config.TokenFlag.Name),
		Kind:    kind,
	}
	if kind != core.Status {
		action.Amount = ctx.String(config.AmountFlag.Name)
		if action.Amount == "" {
			action.Amount = ctx.Args().First()
		}
	}

	// reject bad input before prompting for the keystore password
	if err := staker.Validate(registry, action); err != nil {
		return err
	}

	var kp *secp256k1.Keypair
	if kind != core.Status {
		kp, err = unlockKeypair(bonder, cfg.KeystorePath)
		if err != nil {
			return err
		}
	}
	provider, closeProvider := newProvider(cfg.ChainConfigs(), bonder, kp, log.Root())
	defer closeProvider()

	result, err := staker.NewDispatcher(registry, provider, opts, log.Root()).Dispatch(ctx.Context, action)
	if err != nil {
		return err
	}
	if result.Status != nil {
		printStatus(result.Status)
	}
	return nil
}

func printStatus(s *stakemodel.Status) {
	format := func(label string, value interface{}) {
		fmt.Printf("%-20s %v\n", label+":", value)
	}
	format("token", s.Token)
	format("chain", s.Chain)
	format("bonder", s.Bonder.Hex())
	format("is bonder", s.IsBonder)
	format("canonical balance", utils.FormatUnits(s.CanonicalBalance, s.Decimals))
	format("hop token balance", utils.FormatUnits(s.HopTokenBalance, s.Decimals))
	format("credit", utils.FormatUnits(s.Credit, s.Decimals))
	format("debit", utils.FormatUnits(s.Debit, s.Decimals))
	format("staked", utils.FormatUnits(s.Staked, s.Decimals))
	format("allowance", utils.FormatUnits(s.Allowance, s.Decimals))
}

func handlePoolStatsCmd(ctx *cli.Context) error {
	cfg, err := config.GetConfig(ctx)
	if err != nil {
		return err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}
	snapshot, err := stats.NewHTTPFeed(ctx.String(config.FeedURLFlag.Name)).Fetch(ctx.Context)
	if err != nil {
		return err
	}

	for _, r := range stats.Reconcile(registry, snapshot) {
		if r.Err != nil {
			log.Warn("pool stats unavailable, showing zero", "token", r.Token, "chain", r.Chain, "err", r.Err)
		}
		stat := r.OrZero()
		fmt.Printf("%-6s %-10s apr %8s  staking %8s  total %8s\n",
			stat.Token, stat.Chain, stat.AprFormatted, stat.StakingAprFormatted, stat.TotalAprFormatted)
	}
	return nil
}
