package networks

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Router identifies one AMM router contract the aggregator can route
// a swap through. Iteration order of the network's router slice is the
// tie break order when two routers quote the same output.
type Router struct {
	Name    string         `json:"name"`
	Address common.Address `json:"address"`
}

type Network interface {
	GetName() string
	GetChainID() uint64
	GetAlternativeNames() []string
	GetNativeTokenSymbol() string
	GetNativeTokenName() string
	GetNativeTokenDecimal() uint64
	GetBlockTime() time.Duration

	// GetWrappedNativeTokenAddress returns the canonical ERC-20 wrapper of
	// the native asset. Routers only understand token-to-token paths so the
	// native sentinel address is always substituted by this one.
	GetWrappedNativeTokenAddress() common.Address
	GetRouters() []Router
	GetTokenListURLs() []string
	// GetTokenLogoURLTemplates returns fmt templates taking the checksummed
	// token address, probed in order during icon discovery.
	GetTokenLogoURLTemplates() []string

	GetNodeVariableName() string
	GetDefaultNodes() map[string]string

	GetBlockExplorerAPIKeyVariableName() string
	GetBlockExplorerAPIURL() string
	RecommendedGasPrice() (float64, error)
	GetTokenInfoFromExplorer(address string) (name, symbol string, decimals uint64, err error)
}
