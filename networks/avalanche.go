package networks

import (
	"github.com/ethereum/go-ethereum/common"
)

var Avalanche Network = NewAvalanche()

type avalanche struct {
	*GenericNetwork
}

func NewAvalanche() *avalanche {
	return &avalanche{
		GenericNetwork: NewGenericNetwork(GenericNetworkConfig{
			Name:                      "avalanche",
			AlternativeNames:          []string{"avax", "c-chain"},
			ChainID:                   43114,
			NativeTokenSymbol:         "AVAX",
			NativeTokenName:           "Avalanche",
			NativeTokenDecimal:        18,
			BlockTime:                 2,
			WrappedNativeTokenAddress: common.HexToAddress("0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7"),
			Routers: []Router{
				{
					Name:    "traderjoe",
					Address: common.HexToAddress("0x60aE616a2155Ee3d9A68541Ba4544862310933d4"),
				},
				{
					Name:    "pangolin",
					Address: common.HexToAddress("0xE54Ca86531e17Ef3616d22Ca28b0D458b6C89106"),
				},
				{
					Name:    "gmx",
					Address: common.HexToAddress("0x5F719c2F1095F7B9fc68a68e35B51194f4b6abe8"),
				},
			},
			TokenListURLs: []string{
				"https://raw.githubusercontent.com/traderjoe-xyz/joe-tokenlists/main/joe.tokenlist.json",
				"https://raw.githubusercontent.com/pangolindex/tokenlists/main/pangolin.tokenlist.json",
			},
			TokenLogoURLTemplates: []string{
				"https://raw.githubusercontent.com/traderjoe-xyz/joe-tokenlists/main/logos/%s/logo.png",
				"https://raw.githubusercontent.com/pangolindex/tokens/main/assets/%s/logo.png",
			},
			NodeVariableName: "AVALANCHE_MAINNET_NODE",
			DefaultNodes: map[string]string{
				"avalanche": "https://api.avax.network/ext/bc/C/rpc",
			},
			BlockExplorerAPIKeyVariableName: "ETHERSCAN_API_KEY",
			BlockExplorerAPIURL:             "https://api.snowtrace.io",
		}),
	}
}
