package core

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ConfigError reports a missing or malformed address registry entry.
type ConfigError struct {
	Network string
	Token   string
	Chain   string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: network %q token %q chain %q: %s", e.Network, e.Token, e.Chain, e.Reason)
}

// ValidationError reports a bad input value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// LookupError reports a chain outside the configured chain universe of a token.
type LookupError struct {
	Token string
	Chain string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no %s watcher for chain %q", e.Token, e.Chain)
}

type InsufficientBalanceError struct {
	Token   string
	Chain   string
	Balance *big.Int
	Need    *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance on %s: have %s, need %s", e.Token, e.Chain, e.Balance, e.Need)
}

type InsufficientAllowanceError struct {
	Token     string
	Chain     string
	Spender   common.Address
	Allowance *big.Int
	Need      *big.Int
}

func (e *InsufficientAllowanceError) Error() string {
	return fmt.Sprintf("insufficient %s allowance on %s for spender %s: have %s, need %s",
		e.Token, e.Chain, e.Spender.Hex(), e.Allowance, e.Need)
}

type InsufficientStakedBalanceError struct {
	Token     string
	Chain     string
	Staked    *big.Int
	Requested *big.Int
}

func (e *InsufficientStakedBalanceError) Error() string {
	return fmt.Sprintf("insufficient staked %s balance on %s: staked %s, requested %s", e.Token, e.Chain, e.Staked, e.Requested)
}

// OnChainRevertError is returned when a confirmed transaction has a failed receipt.
type OnChainRevertError struct {
	Chain  string
	Op     string
	TxHash common.Hash
}

func (e *OnChainRevertError) Error() string {
	return fmt.Sprintf("%s on %s reverted, tx %s", e.Op, e.Chain, e.TxHash.Hex())
}

type NotBonderError struct {
	Chain  string
	Bonder common.Address
}

func (e *NotBonderError) Error() string {
	return fmt.Sprintf("%s is not an allowed bonder on %s", e.Bonder.Hex(), e.Chain)
}
