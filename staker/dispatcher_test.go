package staker_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"bonder-stake/addresses"
	"bonder-stake/chains"
	"bonder-stake/chains/fakechain"
	"bonder-stake/chains/stake"
	"bonder-stake/core"
	"bonder-stake/staker"

	"github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	tlog   = log15.Root()
	bonder = common.HexToAddress("0x81682250D4566B2986A2B33e23e7c52D401B7aB7")
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Client(chain string) (chains.ChainClient, error) {
	args := m.Called(chain)
	c, _ := args.Get(0).(chains.ChainClient)
	return c, args.Error(1)
}

type harness struct {
	registry   *addresses.Registry
	journal    *fakechain.Journal
	optimism   *fakechain.Chain
	xdai       *fakechain.Chain
	provider   *mockProvider
	dispatcher *staker.Dispatcher
}

func newHarness(t *testing.T) *harness {
	registry, err := addresses.ForNetwork("kovan")
	require.NoError(t, err)

	h := &harness{registry: registry, journal: &fakechain.Journal{}, provider: &mockProvider{}}
	h.optimism = fakechain.NewChain(core.Optimism, bonder, h.journal)
	h.xdai = fakechain.NewChain(core.XDai, bonder, h.journal)
	for _, c := range []*fakechain.Chain{h.optimism, h.xdai} {
		d, err := registry.Resolve("kovan", "DAI", c.Name)
		require.NoError(t, err)
		c.HopToken = d.L2HopBridgeToken
		c.SetTokenIndex(d.L2CanonicalToken, 0)
		c.SetTokenIndex(d.L2HopBridgeToken, 1)
	}
	h.provider.On("Client", core.Optimism).Return(h.optimism, nil)
	h.provider.On("Client", core.XDai).Return(h.xdai, nil)

	h.dispatcher = staker.NewDispatcher(registry, h.provider, stake.DefaultOptions(), tlog)
	return h
}

func TestValidateMakesNoCalls(t *testing.T) {
	h := newHarness(t)
	valid := core.StakeAction{Network: "kovan", Chain: core.XDai, Token: "DAI", Amount: "100", Kind: core.Stake}

	cases := map[string]func(a *core.StakeAction){
		"network":       func(a *core.StakeAction) { a.Network = "" },
		"other network": func(a *core.StakeAction) { a.Network = "mainnet" },
		"chain":         func(a *core.StakeAction) { a.Chain = "" },
		"token":         func(a *core.StakeAction) { a.Token = "" },
		"unknown token": func(a *core.StakeAction) { a.Token = "DOGE" },
		"missing token": func(a *core.StakeAction) { a.Token = "USDT" },
		"amount":        func(a *core.StakeAction) { a.Amount = "" },
		"not a number":  func(a *core.StakeAction) { a.Amount = "lots" },
		"zero":          func(a *core.StakeAction) { a.Amount = "0" },
		"negative":      func(a *core.StakeAction) { a.Amount = "-3" },
		"precision":     func(a *core.StakeAction) { a.Amount = "0.0000000000000000001" },
		"huge":          func(a *core.StakeAction) { a.Amount = "1e5000000" },
		"kind":          func(a *core.StakeAction) { a.Kind = core.ActionKind(9) },
	}
	for name, mutate := range cases {
		action := valid
		mutate(&action)
		_, err := h.dispatcher.Dispatch(context.Background(), action)
		var valErr *core.ValidationError
		assert.True(t, errors.As(err, &valErr), name)
	}

	assert.NoError(t, staker.Validate(h.registry, valid))
	status := valid
	status.Kind, status.Amount = core.Status, ""
	assert.NoError(t, staker.Validate(h.registry, status))

	h.provider.AssertNotCalled(t, "Client", mock.Anything)
	assert.Equal(t, 0, h.journal.Len())
}

func TestDispatchStakeOnKovanXDai(t *testing.T) {
	h := newHarness(t)
	d, err := h.registry.Resolve("kovan", "DAI", core.XDai)
	require.NoError(t, err)
	h.xdai.SetBalance(d.L2CanonicalToken, bonder, new(big.Int).Mul(big.NewInt(500), big.NewInt(1e18)))

	result, err := h.dispatcher.Dispatch(context.Background(), core.StakeAction{
		Network: "kovan", Chain: core.XDai, Token: "DAI", Amount: "100", Kind: core.Stake,
	})
	require.NoError(t, err)

	expected, ok := new(big.Int).SetString("100000000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, expected, result.Amount)
	assert.Equal(t, expected, h.xdai.CreditOf(bonder))

	approved := h.journal.Index("xdai:approve:confirm")
	staked := h.journal.Index("xdai:stake:submit")
	require.NotEqual(t, -1, approved)
	assert.True(t, approved < staked)
	assert.Equal(t, 1, h.journal.Count("xdai:stake:confirm"))

	// only the xdai watcher acts
	for _, e := range h.journal.Entries() {
		assert.NotContains(t, e, core.Optimism)
	}
	h.provider.AssertCalled(t, "Client", core.Optimism)
	h.provider.AssertCalled(t, "Client", core.XDai)
}

func TestDispatchUnknownChain(t *testing.T) {
	h := newHarness(t)

	_, err := h.dispatcher.Dispatch(context.Background(), core.StakeAction{
		Network: "kovan", Chain: "solana", Token: "DAI", Amount: "100", Kind: core.Stake,
	})
	var lookupErr *core.LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, "solana", lookupErr.Chain)
	assert.Equal(t, "DAI", lookupErr.Token)
	assert.Equal(t, 0, h.journal.Len())
}

func TestDispatchUnstakeAndStatus(t *testing.T) {
	h := newHarness(t)
	tenDai := new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18))
	h.optimism.SetStake(bonder, tenDai, new(big.Int))

	_, err := h.dispatcher.Dispatch(context.Background(), core.StakeAction{
		Network: "kovan", Chain: core.Optimism, Token: "DAI", Amount: "10.5", Kind: core.Unstake,
	})
	var stakedErr *core.InsufficientStakedBalanceError
	require.True(t, errors.As(err, &stakedErr))

	_, err = h.dispatcher.Dispatch(context.Background(), core.StakeAction{
		Network: "kovan", Chain: core.Optimism, Token: "DAI", Amount: "4", Kind: core.Unstake,
	})
	require.NoError(t, err)

	result, err := h.dispatcher.Dispatch(context.Background(), core.StakeAction{
		Network: "kovan", Chain: core.Optimism, Token: "DAI", Kind: core.Status,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Status)
	assert.Nil(t, result.Amount)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(6), big.NewInt(1e18)), result.Status.Staked)
	assert.Equal(t, 0, h.journal.Count("optimism:approve:submit"))
}

func TestDispatchProviderFailure(t *testing.T) {
	registry, err := addresses.ForNetwork("kovan")
	require.NoError(t, err)
	provider := &mockProvider{}
	provider.On("Client", core.Optimism).Return(nil, errors.New("dial tcp: connection refused"))

	d := staker.NewDispatcher(registry, provider, stake.DefaultOptions(), tlog)
	_, err = d.Dispatch(context.Background(), core.StakeAction{
		Network: "kovan", Chain: core.XDai, Token: "USDC", Amount: "1", Kind: core.Stake,
	})
	var cfgErr *core.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, core.Optimism, cfgErr.Chain)
	provider.AssertNotCalled(t, "Client", core.XDai)
}
