package hop

import (
	"context"
	"fmt"
	"math/big"

	"bonder-stake/chains"
	"bonder-stake/core"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Gas forwarded to the secondary chain for rollup standard bridge deposits.
const DepositL2Gas = uint32(200000)

func (p *PoolClient) Token(address common.Address) chains.Token {
	return &erc20{pool: p, address: address}
}

func (p *PoolClient) Bridge(address common.Address) chains.Bridge {
	return &l2Bridge{pool: p, address: address}
}

func (p *PoolClient) Swap(address common.Address) chains.Swap {
	return &saddleSwap{pool: p, address: address}
}

// CanonicalBridge returns the base-chain side of the native bridge into chain.
func (p *PoolClient) CanonicalBridge(chain string, address common.Address) (chains.CanonicalBridge, error) {
	c, ok := core.ChainBySlug(chain)
	if !ok {
		return nil, &core.ConfigError{Chain: chain, Reason: "unknown chain"}
	}
	if c.IsAmb() {
		return &omnibridge{pool: p, address: address}, nil
	}
	switch chain {
	case core.Optimism:
		return &standardBridge{pool: p, address: address}, nil
	default:
		return nil, &core.ConfigError{Chain: chain, Reason: "canonical bridge deposits are not supported"}
	}
}

type erc20 struct {
	pool    *PoolClient
	address common.Address
}

func (t *erc20) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return t.pool.callBig(ctx, t.address, erc20ABI, "balanceOf", owner)
}

func (t *erc20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return t.pool.callBig(ctx, t.address, erc20ABI, "allowance", owner, spender)
}

func (t *erc20) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	return t.pool.transact(ctx, t.address, erc20ABI, "approve", spender, amount)
}

type l2Bridge struct {
	pool    *PoolClient
	address common.Address
}

func (b *l2Bridge) IsBonder(ctx context.Context, bonder common.Address) (bool, error) {
	out, err := b.pool.call(ctx, b.address, l2BridgeABI, "getIsBonder", bonder)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (b *l2Bridge) Credit(ctx context.Context, bonder common.Address) (*big.Int, error) {
	return b.pool.callBig(ctx, b.address, l2BridgeABI, "getCredit", bonder)
}

func (b *l2Bridge) Debit(ctx context.Context, bonder common.Address) (*big.Int, error) {
	return b.pool.callBig(ctx, b.address, l2BridgeABI, "getDebitAndAdditionalDebit", bonder)
}

func (b *l2Bridge) Stake(ctx context.Context, bonder common.Address, amount *big.Int) (*types.Transaction, error) {
	return b.pool.transact(ctx, b.address, l2BridgeABI, "stake", bonder, amount)
}

func (b *l2Bridge) Unstake(ctx context.Context, amount *big.Int) (*types.Transaction, error) {
	return b.pool.transact(ctx, b.address, l2BridgeABI, "unstake", amount)
}

type saddleSwap struct {
	pool    *PoolClient
	address common.Address
}

func (s *saddleSwap) TokenIndex(ctx context.Context, token common.Address) (uint8, error) {
	out, err := s.pool.call(ctx, s.address, saddleSwapABI, "getTokenIndex", token)
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

func (s *saddleSwap) CalculateSwap(ctx context.Context, from, to uint8, dx *big.Int) (*big.Int, error) {
	return s.pool.callBig(ctx, s.address, saddleSwapABI, "calculateSwap", from, to, dx)
}

func (s *saddleSwap) Swap(ctx context.Context, from, to uint8, dx, minDy, deadline *big.Int) (*types.Transaction, error) {
	return s.pool.transact(ctx, s.address, saddleSwapABI, "swap", from, to, dx, minDy, deadline)
}

type omnibridge struct {
	pool    *PoolClient
	address common.Address
}

func (o *omnibridge) Deposit(ctx context.Context, l1Token, l2Token, recipient common.Address, amount *big.Int) (*types.Transaction, error) {
	return o.pool.transact(ctx, o.address, omnibridgeABI, "relayTokens", l1Token, recipient, amount)
}

type standardBridge struct {
	pool    *PoolClient
	address common.Address
}

func (s *standardBridge) Deposit(ctx context.Context, l1Token, l2Token, recipient common.Address, amount *big.Int) (*types.Transaction, error) {
	return s.pool.transact(ctx, s.address, standardBridgeABI, "depositERC20To", l1Token, l2Token, recipient, amount, DepositL2Gas, []byte{})
}

func (p *PoolClient) callBig(ctx context.Context, address common.Address, parsed abi.ABI, method string, params ...interface{}) (*big.Int, error) {
	out, err := p.call(ctx, address, parsed, method, params...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s.%s returned no value", address.Hex(), method)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
