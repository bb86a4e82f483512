package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"bonder-stake/config"

	log "github.com/ChainSafe/log15"
	"github.com/urfave/cli/v2"
)

var app = cli.NewApp()

var cliFlags = []cli.Flag{
	config.VerbosityFlag,
	config.LogFileFlag,
}

var actionFlags = []cli.Flag{
	config.ConfigFileFlag,
	config.NetworkFlag,
	config.ChainFlag,
	config.TokenFlag,
	config.AmountFlag,
	config.KeystorePathFlag,
}

var statusFlags = []cli.Flag{
	config.ConfigFileFlag,
	config.NetworkFlag,
	config.ChainFlag,
	config.TokenFlag,
}

var poolStatsFlags = []cli.Flag{
	config.ConfigFileFlag,
	config.NetworkFlag,
	config.FeedURLFlag,
}

var generateEthFlags = []cli.Flag{
	config.KeystorePathFlag,
}

var stakeCommand = cli.Command{
	Action:    handleStakeCmd,
	Name:      "stake",
	Usage:     "stake hop bridge tokens as bonder collateral",
	ArgsUsage: "[amount]",
	Flags:     actionFlags,
	Description: "The stake command approves the AMM when needed, converts canonical tokens\n" +
		"\tto hop bridge tokens for any shortfall, and stakes on the chain's bridge.",
}

var unstakeCommand = cli.Command{
	Action:      handleUnstakeCmd,
	Name:        "unstake",
	Usage:       "withdraw staked bonder collateral",
	ArgsUsage:   "[amount]",
	Flags:       actionFlags,
	Description: "The unstake command withdraws up to the available staked balance.\n",
}

var statusCommand = cli.Command{
	Action:      handleStatusCmd,
	Name:        "status",
	Usage:       "show the bonder position",
	Flags:       statusFlags,
	Description: "The status command prints balances, credit, debit and allowance without sending transactions.\n",
}

var poolStatsCommand = cli.Command{
	Action:      handlePoolStatsCmd,
	Name:        "pool-stats",
	Usage:       "show published pool yields",
	Flags:       poolStatsFlags,
	Description: "The pool-stats command joins the published pool stats with the address table.\n",
}

var accountCommand = cli.Command{
	Name:        "accounts",
	Usage:       "manage keystores",
	Description: "The accounts command is used to manage the keystore.\n",
	Subcommands: []*cli.Command{
		{
			Action: handleGenerateEthCmd,
			Name:   "geneth",
			Usage:  "generate eth keystore",
			Flags:  generateEthFlags,
			Description: "The generate subcommand is used to generate the eth keystore.\n" +
				"\tkeystore path should be given.",
		},
	},
}

// init initializes CLI
func init() {
	app.Copyright = "Copyright 2021 Stafi Protocol Authors"
	app.Name = "bonder"
	app.Usage = "hop bonder stake manager"
	app.Authors = []*cli.Author{{Name: "Stafi Protocol 2021"}}
	app.Version = "1.0.0"
	app.EnableBashCompletion = true
	app.Before = startLogger
	app.Commands = []*cli.Command{
		&stakeCommand,
		&unstakeCommand,
		&statusCommand,
		&poolStatsCommand,
		&accountCommand,
	}

	app.Flags = append(app.Flags, cliFlags...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runApp(ctx, os.Args)
	stop()
	os.Exit(code)
}

// runApp returns the process exit code for args.
func runApp(ctx context.Context, args []string) int {
	if err := app.RunContext(ctx, args); err != nil {
		log.Error(err.Error())
		return 1
	}
	return 0
}

func startLogger(ctx *cli.Context) error {
	logger := log.Root()
	var lvl log.Lvl

	if lvlToInt, err := strconv.Atoi(ctx.String(config.VerbosityFlag.Name)); err == nil {
		lvl = log.Lvl(lvlToInt)
	} else if lvl, err = log.LvlFromString(ctx.String(config.VerbosityFlag.Name)); err != nil {
		return err
	}

	handlers := []log.Handler{
		log.LvlFilterHandler(
			lvl,
			log.StreamHandler(os.Stderr, log.LogfmtFormat())),
	}
	if path := ctx.String(config.LogFileFlag.Name); path != "" {
		fileHandler, err := log.FileHandler(path, log.JsonFormat())
		if err != nil {
			return err
		}
		handlers = append(handlers, log.LvlFilterHandler(lvl, fileHandler))
	}
	logger.SetHandler(log.MultiHandler(handlers...))

	return nil
}
