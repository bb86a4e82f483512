package hop_test

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"

	"bonder-stake/core"
	"bonder-stake/shared/hop"

	"github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tlog   = log15.Root()
	bonder = common.HexToAddress("0x81682250D4566B2986A2B33e23e7c52D401B7aB7")
)

func TestABIsDeclareBonderMethods(t *testing.T) {
	cases := map[string][]string{
		hop.ERC20ABI:          {"balanceOf", "allowance", "approve", "decimals"},
		hop.L2BridgeABI:       {"getIsBonder", "getCredit", "getDebitAndAdditionalDebit", "stake", "unstake"},
		hop.SaddleSwapABI:     {"getTokenIndex", "calculateSwap", "swap"},
		hop.OmnibridgeABI:     {"relayTokens"},
		hop.StandardBridgeABI: {"depositERC20To"},
	}
	for raw, methods := range cases {
		parsed, err := abi.JSON(strings.NewReader(raw))
		require.NoError(t, err)
		for _, m := range methods {
			_, ok := parsed.Methods[m]
			assert.True(t, ok, m)
		}
	}
}

func TestStakeSelector(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(hop.L2BridgeABI))
	require.NoError(t, err)

	// stake(address,uint256)
	assert.Equal(t, "adc9772e", hex.EncodeToString(parsed.Methods["stake"].ID))
	data, err := parsed.Pack("stake", bonder, big.NewInt(100))
	require.NoError(t, err)
	assert.Len(t, data, 4+32*2)
}

func TestProviderClients(t *testing.T) {
	p := hop.NewProvider([]*core.ChainConfig{
		{Name: core.Ethereum, Endpoint: "http://127.0.0.1:8545"},
		{Name: core.XDai, Endpoint: "http://127.0.0.1:8546"},
		{Name: core.Optimism},
	}, bonder, nil, tlog)
	defer p.Close()

	c1, err := p.Client(core.XDai)
	require.NoError(t, err)
	c2, err := p.Client(core.XDai)
	require.NoError(t, err)
	assert.True(t, c1 == c2)
	assert.Equal(t, bonder, c1.From())

	var cfgErr *core.ConfigError
	_, err = p.Client(core.Optimism)
	assert.True(t, errors.As(err, &cfgErr))
	_, err = p.Client(core.Polygon)
	assert.True(t, errors.As(err, &cfgErr))
}

func TestCanonicalBridgeByMechanism(t *testing.T) {
	c := hop.NewPoolClient(&core.ChainConfig{Name: core.Ethereum, Endpoint: "http://127.0.0.1:8545"}, bonder, nil, tlog)
	addr := common.HexToAddress("0xA960d095470f7509955d5402e36d9DB984B5C8E2")

	for _, chain := range []string{core.XDai, core.Optimism} {
		b, err := c.CanonicalBridge(chain, addr)
		assert.NoError(t, err, chain)
		assert.NotNil(t, b)
	}
	for _, chain := range []string{core.Arbitrum, core.Polygon, "solana"} {
		_, err := c.CanonicalBridge(chain, addr)
		var cfgErr *core.ConfigError
		assert.True(t, errors.As(err, &cfgErr), chain)
	}
}

func TestReadOnlyClientCannotSign(t *testing.T) {
	c := hop.NewPoolClient(&core.ChainConfig{Name: core.XDai, Endpoint: "http://127.0.0.1:8546"}, bonder, nil, tlog)
	_, err := c.GetTransactionOpts(context.Background())
	assert.Equal(t, hop.ErrReadOnly, err)

	opts := c.GetCallOpts(context.Background())
	assert.Equal(t, bonder, opts.From)
	assert.False(t, opts.Pending)
}
