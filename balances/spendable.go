package balances

import (
	"math/big"

	"github.com/aswapdex/aswap/registry"
)

// Spendable caps for the native asset. Swapping the full native
// balance would leave nothing for gas, so "max" keeps 5% headroom and
// "half" a bit over half of it.
const (
	nativeMaxPct  = 95
	nativeHalfPct = 45
)

// MaxSpendable returns how much of a balance can go into a swap: the
// whole amount for tokens, 95% for the native asset.
func MaxSpendable(token registry.Token, balance *big.Int) *big.Int {
	if balance == nil {
		return big.NewInt(0)
	}
	if !token.IsNative() {
		return new(big.Int).Set(balance)
	}
	return pctOf(balance, nativeMaxPct)
}

// HalfSpendable returns roughly half the balance: 50% for tokens, 45%
// for the native asset to keep gas headroom on top.
func HalfSpendable(token registry.Token, balance *big.Int) *big.Int {
	if balance == nil {
		return big.NewInt(0)
	}
	if !token.IsNative() {
		return pctOf(balance, 50)
	}
	return pctOf(balance, nativeHalfPct)
}

func pctOf(amount *big.Int, pct int64) *big.Int {
	result := new(big.Int).Mul(amount, big.NewInt(pct))
	return result.Div(result, big.NewInt(100))
}
