package main

import (
	"context"
	"io/ioutil"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"bonder-stake/addresses"
	"bonder-stake/chains"
	"bonder-stake/chains/fakechain"
	"bonder-stake/core"

	log "github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stafiprotocol/chainbridge/utils/crypto/secp256k1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBonder = common.HexToAddress("0x81682250D4566B2986A2B33e23e7c52D401B7aB7")

type fakeNetwork struct {
	journal  *fakechain.Journal
	xdai     *fakechain.Chain
	provider *fakechain.Provider
	unlocks  int
}

// useFakeNetwork points the stake commands at in-memory kovan chains and
// skips the keystore prompt.
func useFakeNetwork(t *testing.T) *fakeNetwork {
	registry, err := addresses.ForNetwork("kovan")
	require.NoError(t, err)

	f := &fakeNetwork{journal: &fakechain.Journal{}}
	optimism := fakechain.NewChain(core.Optimism, testBonder, f.journal)
	f.xdai = fakechain.NewChain(core.XDai, testBonder, f.journal)
	for _, c := range []*fakechain.Chain{optimism, f.xdai} {
		d, err := registry.Resolve("kovan", "DAI", c.Name)
		require.NoError(t, err)
		c.HopToken = d.L2HopBridgeToken
		c.SetTokenIndex(d.L2CanonicalToken, 0)
		c.SetTokenIndex(d.L2HopBridgeToken, 1)
	}
	d, err := registry.Resolve("kovan", "DAI", core.XDai)
	require.NoError(t, err)
	f.xdai.SetBalance(d.L2CanonicalToken, testBonder, new(big.Int).Mul(big.NewInt(500), big.NewInt(1e18)))
	f.provider = fakechain.NewProvider(optimism, f.xdai)

	origUnlock, origProvider := unlockKeypair, newProvider
	unlockKeypair = func(common.Address, string) (*secp256k1.Keypair, error) {
		f.unlocks++
		return nil, nil
	}
	newProvider = func([]*core.ChainConfig, common.Address, *secp256k1.Keypair, log.Logger) (chains.ClientProvider, func()) {
		return f.provider, func() {}
	}
	t.Cleanup(func() {
		unlockKeypair, newProvider = origUnlock, origProvider
	})
	return f
}

func writeTestConfig(t *testing.T) string {
	dir, err := ioutil.TempDir("", "bonder-cli")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "config.json")
	body := `{"network": "kovan", "bonder": "` + testBonder.Hex() + `"}`
	require.NoError(t, ioutil.WriteFile(path, []byte(body), 0600))
	return path
}

func TestStakeCommandExitsZero(t *testing.T) {
	f := useFakeNetwork(t)
	path := writeTestConfig(t)

	code := runApp(context.Background(), []string{"bonder", "stake", "--config", path, "--chain", "xdai", "--token", "DAI", "100"})
	require.Equal(t, 0, code)

	expected, ok := new(big.Int).SetString("100000000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, expected, f.xdai.CreditOf(testBonder))
	assert.Equal(t, 1, f.journal.Count("xdai:stake:confirm"))
	assert.Equal(t, 1, f.unlocks)
}

func TestStakeCommandExitsOneOnBadInput(t *testing.T) {
	path := writeTestConfig(t)

	cases := map[string][]string{
		"unknown chain": {"--chain", "solana", "--token", "DAI", "100"},
		"bad amount":    {"--chain", "xdai", "--token", "DAI", "lots"},
		"unknown token": {"--chain", "xdai", "--token", "DOGE", "100"},
	}
	for name, extra := range cases {
		f := useFakeNetwork(t)
		args := append([]string{"bonder", "stake", "--config", path}, extra...)
		assert.Equal(t, 1, runApp(context.Background(), args), name)
		assert.Equal(t, 0, f.journal.Len(), name)
		assert.Equal(t, 0, f.xdai.CreditOf(testBonder).Sign(), name)
	}
}

func TestStakeCommandRejectsBeforeUnlock(t *testing.T) {
	f := useFakeNetwork(t)
	path := writeTestConfig(t)

	code := runApp(context.Background(), []string{"bonder", "stake", "--config", path, "--chain", "xdai", "--token", "DAI", "1e5000000"})
	assert.Equal(t, 1, code)
	assert.Equal(t, 0, f.unlocks)
	assert.Equal(t, 0, f.provider.Requests())
}
