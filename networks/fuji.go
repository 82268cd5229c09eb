package networks

import (
	"github.com/ethereum/go-ethereum/common"
)

var Fuji Network = NewFuji()

type fuji struct {
	*GenericNetwork
}

func NewFuji() *fuji {
	return &fuji{
		GenericNetwork: NewGenericNetwork(GenericNetworkConfig{
			Name:                      "fuji",
			AlternativeNames:          []string{"avalanche-testnet"},
			ChainID:                   43113,
			NativeTokenSymbol:         "AVAX",
			NativeTokenName:           "Avalanche",
			NativeTokenDecimal:        18,
			BlockTime:                 2,
			WrappedNativeTokenAddress: common.HexToAddress("0xd00ae08403B9bbb9124bB305C09058E32C39A48c"),
			Routers: []Router{
				{
					Name:    "traderjoe",
					Address: common.HexToAddress("0xd7f655E3376cE2D7A2b08fF01Eb3B1023191A901"),
				},
				{
					Name:    "pangolin",
					Address: common.HexToAddress("0x2D99ABD9008Dc933ff5c0CD271B88309593aB921"),
				},
			},
			TokenListURLs: []string{
				"https://raw.githubusercontent.com/pangolindex/tokenlists/main/fuji.tokenlist.json",
			},
			TokenLogoURLTemplates: []string{
				"https://raw.githubusercontent.com/pangolindex/tokens/main/assets/%s/logo.png",
			},
			NodeVariableName: "FUJI_NODE",
			DefaultNodes: map[string]string{
				"fuji": "https://api.avax-test.network/ext/bc/C/rpc",
			},
			BlockExplorerAPIKeyVariableName: "ETHERSCAN_API_KEY",
			BlockExplorerAPIURL:             "https://api-testnet.snowtrace.io",
		}),
	}
}
