// Package coinpkg provides the coins a goal can be set for.
package coinpkg

// ReferenceCurrency is the fiat-equivalent unit contributions and prices are denominated in.
const ReferenceCurrency = "USD"

// Constants for all supported coins.
const (
	BTC  = "BTC"
	ETH  = "ETH"
	SOL  = "SOL"
	LTC  = "LTC"
	BNB  = "BNB"
	DOGE = "DOGE"
)

// Coin holds display metadata of a supported coin.
type Coin struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	CoinCapID string `json:"-"`
	Decimals  int32  `json:"decimals"`
}

var coins = map[string]Coin{
	BTC:  {Symbol: BTC, Name: "Bitcoin", CoinCapID: "bitcoin", Decimals: 8},
	ETH:  {Symbol: ETH, Name: "Ethereum", CoinCapID: "ethereum", Decimals: 8},
	SOL:  {Symbol: SOL, Name: "Solana", CoinCapID: "solana", Decimals: 8},
	LTC:  {Symbol: LTC, Name: "Litecoin", CoinCapID: "litecoin", Decimals: 8},
	BNB:  {Symbol: BNB, Name: "BNB", CoinCapID: "binance-coin", Decimals: 8},
	DOGE: {Symbol: DOGE, Name: "Dogecoin", CoinCapID: "dogecoin", Decimals: 8},
}

// SupportedCoins holds all the supported coin symbols in display order.
var SupportedCoins = []string{BTC, ETH, SOL, LTC, BNB, DOGE}

// IsSupportedCoin returns true if the coin is supported.
func IsSupportedCoin(symbol string) bool {
	_, ok := coins[symbol]
	return ok
}

// Lookup returns the metadata of the coin.
func Lookup(symbol string) (Coin, bool) {
	c, ok := coins[symbol]
	return c, ok
}
