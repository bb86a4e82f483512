package hop

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Trimmed ABIs of the contracts the bonder talks to.
const (
	ERC20ABI = `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
		`{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
		`{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},` +
		`{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}]`

	L2BridgeABI = `[{"inputs":[{"name":"maybeBonder","type":"address"}],"name":"getIsBonder","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},` +
		`{"inputs":[{"name":"bonder","type":"address"}],"name":"getCredit","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
		`{"inputs":[{"name":"bonder","type":"address"}],"name":"getDebitAndAdditionalDebit","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
		`{"inputs":[{"name":"bonder","type":"address"},{"name":"amount","type":"uint256"}],"name":"stake","outputs":[],"stateMutability":"payable","type":"function"},` +
		`{"inputs":[{"name":"amount","type":"uint256"}],"name":"unstake","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

	SaddleSwapABI = `[{"inputs":[{"name":"tokenAddress","type":"address"}],"name":"getTokenIndex","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},` +
		`{"inputs":[{"name":"tokenIndexFrom","type":"uint8"},{"name":"tokenIndexTo","type":"uint8"},{"name":"dx","type":"uint256"}],"name":"calculateSwap","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
		`{"inputs":[{"name":"tokenIndexFrom","type":"uint8"},{"name":"tokenIndexTo","type":"uint8"},{"name":"dx","type":"uint256"},{"name":"minDy","type":"uint256"},{"name":"deadline","type":"uint256"}],"name":"swap","outputs":[{"name":"","type":"uint256"}],"stateMutability":"nonpayable","type":"function"}]`

	// Omnibridge style mediator used by arbitrary message bridge chains.
	OmnibridgeABI = `[{"inputs":[{"name":"token","type":"address"},{"name":"_receiver","type":"address"},{"name":"_value","type":"uint256"}],"name":"relayTokens","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

	// Rollup L1 standard bridge.
	StandardBridgeABI = `[{"inputs":[{"name":"_l1Token","type":"address"},{"name":"_l2Token","type":"address"},{"name":"_to","type":"address"},{"name":"_amount","type":"uint256"},{"name":"_l2Gas","type":"uint32"},{"name":"_data","type":"bytes"}],"name":"depositERC20To","outputs":[],"stateMutability":"nonpayable","type":"function"}]`
)

var (
	erc20ABI          = mustParse(ERC20ABI)
	l2BridgeABI       = mustParse(L2BridgeABI)
	saddleSwapABI     = mustParse(SaddleSwapABI)
	omnibridgeABI     = mustParse(OmnibridgeABI)
	standardBridgeABI = mustParse(StandardBridgeABI)
)

func mustParse(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
