package common

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

func FloatToInt(amount float64) int64 {
	s := fmt.Sprintf("%.0f", amount)
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		panic(err)
	}
	return i
}

// FloatToBigInt converts a float to a big int with specific decimal
// Example:
// - FloatToBigInt(1, 4) = 10000
// - FloatToBigInt(1.234, 4) = 12340
func FloatToBigInt(amount float64, decimal uint64) *big.Int {
	// 9 is our smallest precision, amounts smaller than 0.000000001
	// lose precision and the result is rounded down
	if decimal < 9 {
		return big.NewInt(FloatToInt(amount * math.Pow10(int(decimal))))
	}
	result := big.NewInt(FloatToInt(amount * math.Pow10(9)))
	return result.Mul(result, big.NewInt(0).Exp(big.NewInt(10), big.NewInt(int64(decimal-9)), nil))
}

// BigToFloat converts a big int to float according to its number of decimal digits
// Example:
// - BigToFloat(1100, 3) = 1.1
// - BigToFloat(1100, 2) = 11
// - BigToFloat(1100, 5) = 0.11
func BigToFloat(b *big.Int, decimal uint64) float64 {
	f := new(big.Float).SetInt(b)
	power := new(big.Float).SetInt(new(big.Int).Exp(
		big.NewInt(10), big.NewInt(int64(decimal)), nil,
	))
	res := new(big.Float).Quo(f, power)
	result, _ := res.Float64()
	return result
}

func StringToBig(input string) *big.Int {
	resultBig, ok := big.NewInt(0).SetString(input, 10)
	if !ok {
		return big.NewInt(0)
	}
	return resultBig
}

// GweiToWei converts Gwei as a float to Wei as a big int
func GweiToWei(n float64) *big.Int {
	return FloatToBigInt(n, 9)
}

// FloatStringToBig converts a human readable decimal amount to its raw
// representation in the token's smallest unit.
func FloatStringToBig(value string, decimal uint64) (*big.Int, error) {
	f, success := new(big.Float).SetString(value)
	if !success {
		return nil, fmt.Errorf("couldn't parse string to big int")
	}
	power := new(big.Float).SetInt(new(big.Int).Exp(
		big.NewInt(10), big.NewInt(int64(decimal)), nil,
	))
	f.Mul(f, power)
	res, _ := f.Int(nil)
	return res, nil
}

// BigToFloatString renders a raw smallest-unit amount as a decimal string
// with trailing zeros trimmed.
func BigToFloatString(value *big.Int, decimal uint64) string {
	f := new(big.Float).SetInt(value)
	power := new(big.Float).SetInt(new(big.Int).Exp(
		big.NewInt(10), big.NewInt(int64(decimal)), nil,
	))
	res := new(big.Float).Quo(f, power)
	return strings.TrimRight(strings.TrimRight(res.Text('f', int(decimal)), "0"), ".")
}
