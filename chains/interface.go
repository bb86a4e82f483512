// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package chains

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ClientProvider hands out one client per chain slug. The base chain is
// requested as core.Ethereum. Obtaining a client must not touch the network.
type ClientProvider interface {
	Client(chain string) (ChainClient, error)
}

// ChainClient is the contract-call layer of one chain, signing as the bonder.
type ChainClient interface {
	From() common.Address
	Token(address common.Address) Token
	Bridge(address common.Address) Bridge
	Swap(address common.Address) Swap
	CanonicalBridge(chain string, address common.Address) (CanonicalBridge, error)
	// WaitConfirmed blocks until tx has the configured number of
	// confirmations and returns a *core.OnChainRevertError for failed receipts.
	WaitConfirmed(ctx context.Context, op string, tx *types.Transaction) error
}

type Token interface {
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error)
}

// Bridge is the secondary-chain hop bridge holding bonder collateral.
type Bridge interface {
	IsBonder(ctx context.Context, bonder common.Address) (bool, error)
	Credit(ctx context.Context, bonder common.Address) (*big.Int, error)
	Debit(ctx context.Context, bonder common.Address) (*big.Int, error)
	Stake(ctx context.Context, bonder common.Address, amount *big.Int) (*types.Transaction, error)
	Unstake(ctx context.Context, amount *big.Int) (*types.Transaction, error)
}

// Swap is the AMM pool pairing the canonical token with the hop bridge token.
type Swap interface {
	TokenIndex(ctx context.Context, token common.Address) (uint8, error)
	CalculateSwap(ctx context.Context, from, to uint8, dx *big.Int) (*big.Int, error)
	Swap(ctx context.Context, from, to uint8, dx, minDy, deadline *big.Int) (*types.Transaction, error)
}

// CanonicalBridge deposits base-chain canonical tokens into a secondary chain
// through its native or message bridge.
type CanonicalBridge interface {
	Deposit(ctx context.Context, l1Token, l2Token, recipient common.Address, amount *big.Int) (*types.Transaction, error)
}
