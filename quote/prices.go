package quote

import (
	"math/big"
	"sort"
	"strings"

	"github.com/aswapdex/aswap/common"
	"github.com/aswapdex/aswap/registry"
)

// referencePricesUSD are coarse anchor prices for the major assets,
// used only to estimate the price impact of a quote. They don't need
// to be fresh: the impact compares two sides of the same instant, so a
// stale anchor cancels out to first order.
var referencePricesUSD = map[string]float64{
	"AVAX":   25,
	"WAVAX":  25,
	"WETH.E": 2500,
	"WETH":   2500,
	"WBTC.E": 60000,
	"WBTC":   60000,
	"BTC.B":  60000,
	"USDT.E": 1,
	"USDT":   1,
	"USDC.E": 1,
	"USDC":   1,
	"DAI.E":  1,
	"DAI":    1,
}

func referencePriceUSD(symbol string) (float64, bool) {
	price, ok := referencePricesUSD[strings.ToUpper(symbol)]
	return price, ok
}

// priceImpactPct estimates how much USD value a quote loses between
// input and output, in percent. Returns 0 when either asset lacks a
// reference price.
func priceImpactPct(from, to registry.Token, amountIn, amountOut *big.Int) float64 {
	priceIn, okIn := referencePriceUSD(from.Symbol)
	priceOut, okOut := referencePriceUSD(to.Symbol)
	if !okIn || !okOut {
		return 0
	}
	valueIn := common.BigToFloat(amountIn, from.Decimals) * priceIn
	valueOut := common.BigToFloat(amountOut, to.Decimals) * priceOut
	if valueIn <= 0 {
		return 0
	}
	return (1 - valueOut/valueIn) * 100
}

// estimatedUSDValue prices an amount against the anchor table, 0 when
// the asset has no anchor.
func estimatedUSDValue(token registry.Token, amount *big.Int) float64 {
	price, ok := referencePriceUSD(token.Symbol)
	if !ok {
		return 0
	}
	return common.BigToFloat(amount, token.Decimals) * price
}

// sortRoutes orders by descending output, stable so routers declared
// earlier win ties.
func sortRoutes(routes []Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].AmountOut.Cmp(routes[j].AmountOut) > 0
	})
}
