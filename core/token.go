package core

// Token is a bridged asset. Decimals is the precision of its canonical contract.
type Token struct {
	Symbol   string
	Decimals int32
}

var knownTokens = map[string]Token{
	"USDC":  {Symbol: "USDC", Decimals: 6},
	"USDT":  {Symbol: "USDT", Decimals: 6},
	"DAI":   {Symbol: "DAI", Decimals: 18},
	"ETH":   {Symbol: "ETH", Decimals: 18},
	"MATIC": {Symbol: "MATIC", Decimals: 18},
	"WBTC":  {Symbol: "WBTC", Decimals: 8},
}

// TokenBySymbol looks a token up by its exact, case sensitive symbol.
func TokenBySymbol(symbol string) (Token, bool) {
	t, ok := knownTokens[symbol]
	return t, ok
}
