package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"bonder-stake/addresses"
	"bonder-stake/chains/stake"
	"bonder-stake/core"
	"bonder-stake/stats"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const (
	DefaultConfigPath   = "./config.json"
	DefaultKeystorePath = "./keys"
	DefaultFeedURL      = stats.DefaultFeedURL
	EnvPrefix           = "bonder"
)

// Env holds defaults read from BONDER_* environment variables.
type Env struct {
	Network  string `envconfig:"NETWORK"`
	Config   string `envconfig:"CONFIG" default:"./config.json"`
	Keystore string `envconfig:"KEYSTORE" default:"./keys"`
}

func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return Env{}, fmt.Errorf("read environment: %w", err)
	}
	return e, nil
}

type RawChainConfig struct {
	Name          string `mapstructure:"name"`
	Endpoint      string `mapstructure:"endpoint"`
	MaxGasPrice   int64  `mapstructure:"maxGasPrice"`
	GasLimit      uint64 `mapstructure:"gasLimit"`
	Confirmations uint64 `mapstructure:"confirmations"`
}

type Config struct {
	Network           string           `mapstructure:"network"`
	Bonder            string           `mapstructure:"bonder"`
	KeystorePath      string           `mapstructure:"keystorePath"`
	AddressesPath     string           `mapstructure:"addressesPath"`
	ConvertRoute      string           `mapstructure:"convertRoute"`
	Slippage          string           `mapstructure:"slippage"`
	SwapDeadline      string           `mapstructure:"swapDeadline"`
	ApprovalThreshold string           `mapstructure:"approvalThreshold"`
	Chains            []RawChainConfig `mapstructure:"chains"`
}

// GetConfig reads the config file named by --config, BONDER_CONFIG or the
// default path. Flags override file values, which override the environment.
// A missing default file is not an error.
func GetConfig(ctx *cli.Context) (*Config, error) {
	env, err := LoadEnv()
	if err != nil {
		return nil, err
	}

	path := env.Config
	explicit := os.Getenv("BONDER_CONFIG") != ""
	if ctx.IsSet(ConfigFileFlag.Name) {
		path = ctx.String(ConfigFileFlag.Name)
		explicit = true
	}

	v := viper.New()
	v.SetDefault("convertRoute", string(stake.RouteAmm))
	v.SetDefault("slippage", stake.DefaultSlippage)
	v.SetDefault("swapDeadline", stake.DefaultSwapDeadline.String())
	v.SetDefault("approvalThreshold", stake.DefaultApprovalThreshold)

	if _, err := os.Stat(path); err == nil || explicit {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	switch {
	case ctx.IsSet(NetworkFlag.Name):
		cfg.Network = ctx.String(NetworkFlag.Name)
	case cfg.Network == "":
		cfg.Network = env.Network
	}
	switch {
	case ctx.IsSet(KeystorePathFlag.Name):
		cfg.KeystorePath = ctx.String(KeystorePathFlag.Name)
	case cfg.KeystorePath == "":
		cfg.KeystorePath = env.Keystore
	}

	if cfg.Network == "" {
		return nil, errors.New("config: network is required")
	}
	if _, ok := core.NetworkBySlug(cfg.Network); !ok {
		return nil, &core.ConfigError{Network: cfg.Network, Reason: "unknown network"}
	}
	return cfg, nil
}

// BonderAddress returns the configured bonder account.
func (c *Config) BonderAddress() (common.Address, error) {
	if !common.IsHexAddress(c.Bonder) {
		return common.Address{}, fmt.Errorf("config: bonder %q is not a hex address", c.Bonder)
	}
	return common.HexToAddress(c.Bonder), nil
}

func (c *Config) ChainConfigs() []*core.ChainConfig {
	ret := make([]*core.ChainConfig, 0, len(c.Chains))
	for _, chain := range c.Chains {
		ret = append(ret, &core.ChainConfig{
			Name:          chain.Name,
			Endpoint:      chain.Endpoint,
			MaxGasPrice:   chain.MaxGasPrice,
			GasLimit:      chain.GasLimit,
			Confirmations: chain.Confirmations,
		})
	}
	return ret
}

func (c *Config) StakeOptions() (stake.Options, error) {
	opts := stake.DefaultOptions()
	if c.ConvertRoute != "" {
		opts.Route = stake.ConvertRoute(c.ConvertRoute)
	}
	if c.Slippage != "" {
		slippage, err := decimal.NewFromString(c.Slippage)
		if err != nil {
			return stake.Options{}, fmt.Errorf("config: slippage: %w", err)
		}
		opts.Slippage = slippage
	}
	if c.SwapDeadline != "" {
		deadline, err := time.ParseDuration(c.SwapDeadline)
		if err != nil {
			return stake.Options{}, fmt.Errorf("config: swapDeadline: %w", err)
		}
		opts.SwapDeadline = deadline
	}
	if c.ApprovalThreshold != "" {
		opts.ApprovalThreshold = c.ApprovalThreshold
	}
	return opts, nil
}

// Registry loads the address table from addressesPath, or the built-in one.
func (c *Config) Registry() (*addresses.Registry, error) {
	if c.AddressesPath != "" {
		return addresses.Load(c.Network, c.AddressesPath)
	}
	return addresses.ForNetwork(c.Network)
}
