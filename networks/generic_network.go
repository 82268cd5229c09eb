package networks

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aswapdex/aswap/explorers"
)

type GenericNetworkConfig struct {
	Name                            string            `json:"name"`
	AlternativeNames                []string          `json:"alternative_names"`
	ChainID                         uint64            `json:"chain_id"`
	NativeTokenSymbol               string            `json:"native_token_symbol"`
	NativeTokenName                 string            `json:"native_token_name"`
	NativeTokenDecimal              uint64            `json:"native_token_decimal"`
	BlockTime                       uint64            `json:"block_time"`
	WrappedNativeTokenAddress       common.Address    `json:"wrapped_native_token_address"`
	Routers                         []Router          `json:"routers"`
	TokenListURLs                   []string          `json:"token_list_urls"`
	TokenLogoURLTemplates           []string          `json:"token_logo_url_templates"`
	NodeVariableName                string            `json:"node_variable_name"`
	DefaultNodes                    map[string]string `json:"default_nodes"`
	BlockExplorerAPIKeyVariableName string            `json:"block_explorer_api_key_variable_name"`
	BlockExplorerAPIURL             string            `json:"block_explorer_api_url"`
}

// GenericNetwork is a network whose official explorer speaks the
// etherscan API dialect. All supported chains are instances of it.
type GenericNetwork struct {
	*explorers.EtherscanLikeExplorer
	config GenericNetworkConfig
}

func NewGenericNetwork(config GenericNetworkConfig) *GenericNetwork {
	explorer := explorers.NewEtherscanLikeExplorer(config.BlockExplorerAPIURL, "")
	explorer.ChainID = config.ChainID
	result := &GenericNetwork{
		EtherscanLikeExplorer: explorer,
		config:                config,
	}
	apiKey := strings.Trim(os.Getenv(result.GetBlockExplorerAPIKeyVariableName()), " ")
	if apiKey != "" {
		result.EtherscanLikeExplorer.APIKey = apiKey
	}
	return result
}

func (gn *GenericNetwork) GetName() string { return gn.config.Name }

func (gn *GenericNetwork) GetChainID() uint64 { return gn.config.ChainID }

func (gn *GenericNetwork) GetAlternativeNames() []string { return gn.config.AlternativeNames }

func (gn *GenericNetwork) GetNativeTokenSymbol() string { return gn.config.NativeTokenSymbol }

func (gn *GenericNetwork) GetNativeTokenName() string { return gn.config.NativeTokenName }

func (gn *GenericNetwork) GetNativeTokenDecimal() uint64 { return gn.config.NativeTokenDecimal }

func (gn *GenericNetwork) GetBlockTime() time.Duration {
	return time.Duration(gn.config.BlockTime) * time.Second
}

func (gn *GenericNetwork) GetWrappedNativeTokenAddress() common.Address {
	return gn.config.WrappedNativeTokenAddress
}

func (gn *GenericNetwork) GetRouters() []Router { return gn.config.Routers }

func (gn *GenericNetwork) GetTokenListURLs() []string { return gn.config.TokenListURLs }

func (gn *GenericNetwork) GetTokenLogoURLTemplates() []string {
	return gn.config.TokenLogoURLTemplates
}

func (gn *GenericNetwork) GetNodeVariableName() string { return gn.config.NodeVariableName }

func (gn *GenericNetwork) GetDefaultNodes() map[string]string { return gn.config.DefaultNodes }

func (gn *GenericNetwork) GetBlockExplorerAPIKeyVariableName() string {
	return gn.config.BlockExplorerAPIKeyVariableName
}

func (gn *GenericNetwork) GetBlockExplorerAPIURL() string { return gn.config.BlockExplorerAPIURL }

func (gn *GenericNetwork) GetTokenInfoFromExplorer(address string) (string, string, uint64, error) {
	info, err := gn.EtherscanLikeExplorer.GetTokenInfo(address)
	if err != nil {
		return "", "", 0, err
	}
	decimals, err := strconv.ParseUint(info.Divisor, 10, 64)
	if err != nil {
		return "", "", 0, err
	}
	return info.TokenName, info.Symbol, decimals, nil
}

func (gn *GenericNetwork) MarshalJSON() ([]byte, error) {
	return json.Marshal(gn.config)
}
