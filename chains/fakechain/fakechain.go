// Package fakechain is an in-memory ledger implementing the chains client
// interfaces for tests. Transaction effects apply when the transaction is
// confirmed through WaitConfirmed, and every call is journaled.
package fakechain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"bonder-stake/chains"
	"bonder-stake/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
)

var ErrExecutionReverted = errors.New("execution reverted")

// Journal records calls across every chain of a test, in order.
type Journal struct {
	mu      sync.Mutex
	entries []string
	nonce   uint64
}

func (j *Journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *Journal) nextNonce() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.nonce++
	return j.nonce
}

func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Index returns the position of the first entry equal to entry, or -1.
func (j *Journal) Index(entry string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, e := range j.entries {
		if e == entry {
			return i
		}
	}
	return -1
}

func (j *Journal) Count(entry string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, e := range j.entries {
		if e == entry {
			n++
		}
	}
	return n
}

type allowanceKey struct {
	token, owner, spender common.Address
}

type pendingTx struct {
	op    string
	apply func() error
}

type arrival struct {
	token  common.Address
	owner  common.Address
	amount *big.Int
	polls  int
}

// Chain is one fake chain. Its exported fields seed state before a test runs.
type Chain struct {
	Name    string
	Bonder  common.Address
	Journal *Journal
	// Hop bridge token moved by stake and unstake.
	HopToken common.Address

	// Hop bridge token received per canonical token swapped, as num/den.
	SwapRateNum int64
	SwapRateDen int64
	// Balance reads of the recipient before a canonical deposit lands.
	ArrivalPolls int
	// Ops whose receipts fail.
	Reverts map[string]bool
	// Destination chain of canonical deposits, set on the base chain.
	Peers map[string]*Chain

	mu         sync.Mutex
	balances   map[common.Address]map[common.Address]*big.Int
	allowances map[allowanceKey]*big.Int
	credit     map[common.Address]*big.Int
	debit      map[common.Address]*big.Int
	bonders    map[common.Address]bool
	indexes    map[common.Address]uint8
	pending    map[common.Hash]pendingTx
	arrivals   []*arrival
}

func NewChain(name string, bonder common.Address, journal *Journal) *Chain {
	return &Chain{
		Name:        name,
		Bonder:      bonder,
		Journal:     journal,
		SwapRateNum: 1,
		SwapRateDen: 1,
		Reverts:     make(map[string]bool),
		Peers:       make(map[string]*Chain),
		balances:    make(map[common.Address]map[common.Address]*big.Int),
		allowances:  make(map[allowanceKey]*big.Int),
		credit:      make(map[common.Address]*big.Int),
		debit:       make(map[common.Address]*big.Int),
		bonders:     map[common.Address]bool{bonder: true},
		indexes:     make(map[common.Address]uint8),
		pending:     make(map[common.Hash]pendingTx),
	}
}

func (c *Chain) record(format string, args ...interface{}) {
	c.Journal.add(c.Name + ":" + fmt.Sprintf(format, args...))
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func (c *Chain) SetBalance(token, owner common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balances[token] == nil {
		c.balances[token] = make(map[common.Address]*big.Int)
	}
	c.balances[token][owner] = new(big.Int).Set(amount)
}

func (c *Chain) Balance(token, owner common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return orZero(c.balances[token][owner])
}

func (c *Chain) addBalance(token, owner common.Address, delta *big.Int) {
	if c.balances[token] == nil {
		c.balances[token] = make(map[common.Address]*big.Int)
	}
	c.balances[token][owner] = new(big.Int).Add(orZero(c.balances[token][owner]), delta)
}

func (c *Chain) SetAllowance(token, owner, spender common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allowances[allowanceKey{token, owner, spender}] = new(big.Int).Set(amount)
}

func (c *Chain) AllowanceOf(token, owner, spender common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return orZero(c.allowances[allowanceKey{token, owner, spender}])
}

func (c *Chain) SetStake(bonder common.Address, credit, debit *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credit[bonder] = new(big.Int).Set(credit)
	c.debit[bonder] = new(big.Int).Set(debit)
}

func (c *Chain) CreditOf(bonder common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return orZero(c.credit[bonder])
}

func (c *Chain) SetBonder(bonder common.Address, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bonders[bonder] = ok
}

func (c *Chain) SetTokenIndex(token common.Address, index uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indexes[token] = index
}

// submit queues effect until the transaction is confirmed.
func (c *Chain) submit(op string, apply func() error) *types.Transaction {
	tx := types.NewTx(&types.LegacyTx{Nonce: c.Journal.nextNonce(), Gas: 21000, GasPrice: big.NewInt(1)})
	c.pending[tx.Hash()] = pendingTx{op: op, apply: apply}
	c.record("%s:submit", op)
	return tx
}

func (c *Chain) From() common.Address {
	return c.Bonder
}

func (c *Chain) WaitConfirmed(ctx context.Context, op string, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[tx.Hash()]
	if !ok {
		return fmt.Errorf("unknown tx %s", tx.Hash().Hex())
	}
	delete(c.pending, tx.Hash())
	if c.Reverts[p.op] {
		c.record("%s:revert", p.op)
		return &core.OnChainRevertError{Chain: c.Name, Op: op, TxHash: tx.Hash()}
	}
	if err := p.apply(); err != nil {
		c.record("%s:revert", p.op)
		return &core.OnChainRevertError{Chain: c.Name, Op: op, TxHash: tx.Hash()}
	}
	c.record("%s:confirm", p.op)
	return nil
}

func (c *Chain) Token(address common.Address) chains.Token {
	return &token{c: c, address: address}
}

func (c *Chain) Bridge(address common.Address) chains.Bridge {
	return &bridge{c: c}
}

func (c *Chain) Swap(address common.Address) chains.Swap {
	return &swap{c: c, address: address}
}

// CanonicalBridge deposits into the peer registered under chain.
func (c *Chain) CanonicalBridge(chain string, address common.Address) (chains.CanonicalBridge, error) {
	peer, ok := c.Peers[chain]
	if !ok {
		return nil, &core.ConfigError{Chain: chain, Reason: "canonical bridge deposits are not supported"}
	}
	return &canonicalBridge{c: c, peer: peer, address: address}, nil
}

type token struct {
	c       *Chain
	address common.Address
}

func (t *token) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	t.c.record("balanceOf")
	remaining := t.c.arrivals[:0]
	for _, a := range t.c.arrivals {
		if a.token == t.address && a.owner == owner {
			if a.polls <= 0 {
				t.c.addBalance(a.token, a.owner, a.amount)
				continue
			}
			a.polls--
		}
		remaining = append(remaining, a)
	}
	t.c.arrivals = remaining
	return orZero(t.c.balances[t.address][owner]), nil
}

func (t *token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	t.c.record("allowance")
	return orZero(t.c.allowances[allowanceKey{t.address, owner, spender}]), nil
}

func (t *token) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	owner := t.c.Bonder
	value := new(big.Int).Set(amount)
	return t.c.submit("approve", func() error {
		t.c.allowances[allowanceKey{t.address, owner, spender}] = value
		return nil
	}), nil
}

// spend moves allowance and balance; callers hold the lock.
func (c *Chain) spend(tokenAddr, owner, spender common.Address, amount *big.Int) error {
	key := allowanceKey{tokenAddr, owner, spender}
	allowance := orZero(c.allowances[key])
	if allowance.Cmp(amount) < 0 {
		return ErrExecutionReverted
	}
	if orZero(c.balances[tokenAddr][owner]).Cmp(amount) < 0 {
		return ErrExecutionReverted
	}
	if allowance.Cmp(math.MaxBig256) != 0 {
		c.allowances[key] = new(big.Int).Sub(allowance, amount)
	}
	c.addBalance(tokenAddr, owner, new(big.Int).Neg(amount))
	return nil
}

type bridge struct {
	c *Chain
}

func (b *bridge) IsBonder(ctx context.Context, bonder common.Address) (bool, error) {
	b.c.mu.Lock()
	defer b.c.mu.Unlock()
	b.c.record("getIsBonder")
	return b.c.bonders[bonder], nil
}

func (b *bridge) Credit(ctx context.Context, bonder common.Address) (*big.Int, error) {
	b.c.mu.Lock()
	defer b.c.mu.Unlock()
	b.c.record("getCredit")
	return orZero(b.c.credit[bonder]), nil
}

func (b *bridge) Debit(ctx context.Context, bonder common.Address) (*big.Int, error) {
	b.c.mu.Lock()
	defer b.c.mu.Unlock()
	b.c.record("getDebit")
	return orZero(b.c.debit[bonder]), nil
}

func (b *bridge) Stake(ctx context.Context, bonder common.Address, amount *big.Int) (*types.Transaction, error) {
	b.c.mu.Lock()
	defer b.c.mu.Unlock()
	if orZero(b.c.balances[b.c.HopToken][bonder]).Cmp(amount) < 0 {
		b.c.record("stake:rejected")
		return nil, ErrExecutionReverted
	}
	value := new(big.Int).Set(amount)
	return b.c.submit("stake", func() error {
		if orZero(b.c.balances[b.c.HopToken][bonder]).Cmp(value) < 0 {
			return ErrExecutionReverted
		}
		b.c.addBalance(b.c.HopToken, bonder, new(big.Int).Neg(value))
		b.c.credit[bonder] = new(big.Int).Add(orZero(b.c.credit[bonder]), value)
		return nil
	}), nil
}

func (b *bridge) Unstake(ctx context.Context, amount *big.Int) (*types.Transaction, error) {
	b.c.mu.Lock()
	defer b.c.mu.Unlock()
	bonder := b.c.Bonder
	value := new(big.Int).Set(amount)
	return b.c.submit("unstake", func() error {
		available := new(big.Int).Sub(orZero(b.c.credit[bonder]), orZero(b.c.debit[bonder]))
		if available.Cmp(value) < 0 {
			return ErrExecutionReverted
		}
		b.c.credit[bonder] = new(big.Int).Sub(b.c.credit[bonder], value)
		b.c.addBalance(b.c.HopToken, bonder, value)
		return nil
	}), nil
}

type swap struct {
	c       *Chain
	address common.Address
}

func (s *swap) TokenIndex(ctx context.Context, tokenAddr common.Address) (uint8, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.record("getTokenIndex")
	index, ok := s.c.indexes[tokenAddr]
	if !ok {
		return 0, ErrExecutionReverted
	}
	return index, nil
}

func (s *swap) quote(dx *big.Int) *big.Int {
	dy := new(big.Int).Mul(dx, big.NewInt(s.c.SwapRateNum))
	return dy.Div(dy, big.NewInt(s.c.SwapRateDen))
}

func (s *swap) tokenAt(index uint8) common.Address {
	for addr, i := range s.c.indexes {
		if i == index {
			return addr
		}
	}
	return common.Address{}
}

func (s *swap) CalculateSwap(ctx context.Context, from, to uint8, dx *big.Int) (*big.Int, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.record("calculateSwap")
	return s.quote(dx), nil
}

func (s *swap) Swap(ctx context.Context, from, to uint8, dx, minDy, deadline *big.Int) (*types.Transaction, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	owner := s.c.Bonder
	in, out := s.tokenAt(from), s.tokenAt(to)
	dxCopy, minDyCopy := new(big.Int).Set(dx), new(big.Int).Set(minDy)
	return s.c.submit("swap", func() error {
		dy := s.quote(dxCopy)
		if dy.Cmp(minDyCopy) < 0 {
			return ErrExecutionReverted
		}
		if err := s.c.spend(in, owner, s.address, dxCopy); err != nil {
			return err
		}
		s.c.addBalance(out, owner, dy)
		return nil
	}), nil
}

type canonicalBridge struct {
	c       *Chain
	peer    *Chain
	address common.Address
}

func (b *canonicalBridge) Deposit(ctx context.Context, l1Token, l2Token, recipient common.Address, amount *big.Int) (*types.Transaction, error) {
	b.c.mu.Lock()
	defer b.c.mu.Unlock()
	owner := b.c.Bonder
	value := new(big.Int).Set(amount)
	return b.c.submit("deposit", func() error {
		if err := b.c.spend(l1Token, owner, b.address, value); err != nil {
			return err
		}
		b.peer.mu.Lock()
		defer b.peer.mu.Unlock()
		b.peer.arrivals = append(b.peer.arrivals, &arrival{token: l2Token, owner: recipient, amount: value, polls: b.peer.ArrivalPolls})
		return nil
	}), nil
}

// Provider serves fake chains by slug and counts requests.
type Provider struct {
	Chains map[string]*Chain

	mu       sync.Mutex
	requests int
}

func NewProvider(chainList ...*Chain) *Provider {
	p := &Provider{Chains: make(map[string]*Chain)}
	for _, c := range chainList {
		p.Chains[c.Name] = c
	}
	return p
}

func (p *Provider) Client(chain string) (chains.ChainClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests++
	c, ok := p.Chains[chain]
	if !ok {
		return nil, &core.ConfigError{Chain: chain, Reason: "no rpc endpoint configured"}
	}
	return c, nil
}

func (p *Provider) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}
