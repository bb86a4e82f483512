// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package config

import (
	log "github.com/ChainSafe/log15"
	"github.com/urfave/cli/v2"
)

var (
	ConfigFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "json, yaml or toml configuration file",
	}

	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Supports levels crit (silent) to trce (trace)",
		Value: log.LvlInfo.String(),
	}

	LogFileFlag = &cli.StringFlag{
		Name:  "logfile",
		Usage: "also write json logs to this file",
	}

	KeystorePathFlag = &cli.StringFlag{
		Name:  "keystore",
		Usage: "Path to keystore directory",
		Value: DefaultKeystorePath,
	}

	NetworkFlag = &cli.StringFlag{
		Name:  "network",
		Usage: "network of the address table like [kovan goerli mainnet]",
	}

	ChainFlag = &cli.StringFlag{
		Name:  "chain",
		Usage: "secondary chain to act on like [optimism arbitrum xdai polygon]",
	}

	TokenFlag = &cli.StringFlag{
		Name:  "token",
		Usage: "token symbol like [USDC DAI]",
	}

	AmountFlag = &cli.StringFlag{
		Name:  "amount",
		Usage: "amount in token units, may also be given as the first argument",
	}

	FeedURLFlag = &cli.StringFlag{
		Name:  "feed-url",
		Usage: "pool stats json url",
		Value: DefaultFeedURL,
	}
)
