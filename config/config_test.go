package config_test

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bonder-stake/chains/stake"
	"bonder-stake/config"
	"bonder-stake/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const configBody = `{
  "network": "kovan",
  "bonder": "0x81682250D4566B2986A2B33e23e7c52D401B7aB7",
  "keystorePath": "/var/bonder/keys",
  "convertRoute": "canonical",
  "slippage": "0.01",
  "swapDeadline": "10m",
  "chains": [
    {"name": "ethereum", "endpoint": "wss://kovan.example.org", "maxGasPrice": 150, "confirmations": 2},
    {"name": "xdai", "endpoint": "https://sokol.example.org", "gasLimit": 500000}
  ]
}`

func writeConfig(t *testing.T, body string) string {
	dir, err := ioutil.TempDir("", "bonder-config")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "config.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(body), 0600))
	return path
}

func loadConfig(args ...string) (*config.Config, error) {
	var cfg *config.Config
	var cfgErr error
	app := &cli.App{
		Flags: []cli.Flag{config.ConfigFileFlag, config.NetworkFlag, config.KeystorePathFlag},
		Action: func(ctx *cli.Context) error {
			cfg, cfgErr = config.GetConfig(ctx)
			return nil
		},
	}
	if err := app.Run(append([]string{"bonder"}, args...)); err != nil {
		return nil, err
	}
	return cfg, cfgErr
}

func TestGetConfigFromFile(t *testing.T) {
	cfg, err := loadConfig("--config", writeConfig(t, configBody))
	require.NoError(t, err)

	assert.Equal(t, "kovan", cfg.Network)
	assert.Equal(t, "/var/bonder/keys", cfg.KeystorePath)
	bonder, err := cfg.BonderAddress()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x81682250D4566B2986A2B33e23e7c52D401B7aB7"), bonder)

	chains := cfg.ChainConfigs()
	require.Len(t, chains, 2)
	assert.Equal(t, &core.ChainConfig{Name: core.Ethereum, Endpoint: "wss://kovan.example.org", MaxGasPrice: 150, Confirmations: 2}, chains[0])
	assert.Equal(t, uint64(500000), chains[1].GasLimit)

	opts, err := cfg.StakeOptions()
	require.NoError(t, err)
	assert.Equal(t, stake.RouteCanonical, opts.Route)
	assert.True(t, decimal.RequireFromString("0.01").Equal(opts.Slippage))
	assert.Equal(t, 10*time.Minute, opts.SwapDeadline)
	assert.Equal(t, stake.DefaultApprovalThreshold, opts.ApprovalThreshold)

	registry, err := cfg.Registry()
	require.NoError(t, err)
	assert.Equal(t, "kovan", registry.Network().Slug)
}

func TestFlagsOverrideFile(t *testing.T) {
	cfg, err := loadConfig("--config", writeConfig(t, configBody), "--network", "goerli", "--keystore", "/tmp/keys")
	require.NoError(t, err)
	assert.Equal(t, "goerli", cfg.Network)
	assert.Equal(t, "/tmp/keys", cfg.KeystorePath)

	_, err = cfg.Registry()
	var cfgErr *core.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestEnvironmentDefaults(t *testing.T) {
	require.NoError(t, os.Setenv("BONDER_NETWORK", "mainnet"))
	defer os.Unsetenv("BONDER_NETWORK")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, config.DefaultKeystorePath, cfg.KeystorePath)

	opts, err := cfg.StakeOptions()
	require.NoError(t, err)
	assert.Equal(t, stake.RouteAmm, opts.Route)
	assert.Equal(t, stake.DefaultSwapDeadline, opts.SwapDeadline)
}

func TestGetConfigErrors(t *testing.T) {
	_, err := loadConfig("--config", "/does/not/exist.json")
	assert.Error(t, err)

	_, err = loadConfig()
	assert.Error(t, err)

	_, err = loadConfig("--network", "ropsten")
	var cfgErr *core.ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	cfg, err := loadConfig("--config", writeConfig(t, `{"network": "kovan", "slippage": "lots", "bonder": "nobody"}`))
	require.NoError(t, err)
	_, err = cfg.StakeOptions()
	assert.Error(t, err)
	_, err = cfg.BonderAddress()
	assert.Error(t, err)
}
