package common

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

func GetERC20ABI() *abi.ABI {
	result, _ := abi.JSON(strings.NewReader(erc20abi))
	return &result
}

func GetRouterABI() *abi.ABI {
	result, _ := abi.JSON(strings.NewReader(routerabi))
	return &result
}

func GetFeeCollectorABI() *abi.ABI {
	result, _ := abi.JSON(strings.NewReader(feecollectorabi))
	return &result
}

func PackERC20Data(function string, params ...interface{}) ([]byte, error) {
	return GetERC20ABI().Pack(function, params...)
}

func HexToAddress(hex string) common.Address {
	return common.HexToAddress(hex)
}

// IsRealAddress returns true iff addr is a well formed, non zero
// hex address.
func IsRealAddress(addr string) bool {
	if !common.IsHexAddress(addr) {
		return false
	}
	return common.HexToAddress(addr).Big().Sign() != 0
}
