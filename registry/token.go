package registry

import (
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/aswapdex/aswap/networks"
)

// NativeTokenAddress is the sentinel address representing the chain's
// native asset. It never goes on chain: router paths substitute it
// with the network's wrapped native token.
const NativeTokenAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

type Token struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint64 `json:"decimals"`
	LogoURI  string `json:"logoURI,omitempty"`
	// Balance is the raw amount in the token's smallest unit, empty
	// when no account was supplied or the lookup failed.
	Balance string `json:"balance,omitempty"`
}

func (t Token) IsNative() bool {
	return strings.EqualFold(t.Address, NativeTokenAddress)
}

func NativeToken(network networks.Network) Token {
	logo := ""
	if templates := network.GetTokenLogoURLTemplates(); len(templates) > 0 {
		logo = logoURLFromTemplate(templates[0], network.GetWrappedNativeTokenAddress().Hex())
	}
	return Token{
		Address:  NativeTokenAddress,
		Name:     network.GetNativeTokenName(),
		Symbol:   network.GetNativeTokenSymbol(),
		Decimals: network.GetNativeTokenDecimal(),
		LogoURI:  logo,
	}
}

// EffectiveAddress returns the address used in on-chain calls: the
// wrapped native token for the native sentinel, the token itself
// otherwise.
func EffectiveAddress(network networks.Network, address string) ethcommon.Address {
	if strings.EqualFold(address, NativeTokenAddress) {
		return network.GetWrappedNativeTokenAddress()
	}
	return ethcommon.HexToAddress(address)
}
