package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const dexscreenerBaseURL = "https://api.dexscreener.com"

// dexscreenerClient looks token metadata up on the dexscreener pair
// aggregator. It is the fallback for tokens that are in no token list
// and whose contract reads failed.
type dexscreenerClient struct {
	baseURL    string
	httpClient *http.Client
}

type dexscreenerPairsResponse struct {
	Pairs []dexscreenerPair `json:"pairs"`
}

type dexscreenerPair struct {
	ChainID    string           `json:"chainId"`
	BaseToken  dexscreenerToken `json:"baseToken"`
	QuoteToken dexscreenerToken `json:"quoteToken"`
}

type dexscreenerToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

func (dc *dexscreenerClient) tokenURL(address string) string {
	return fmt.Sprintf("%s/latest/dex/tokens/%s", dc.baseURL, address)
}

func (dc *dexscreenerClient) LookupToken(ctx context.Context, address string) (name, symbol string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dc.tokenURL(address), nil)
	if err != nil {
		return "", "", err
	}
	resp, err := dc.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("dexscreener returned status %d", resp.StatusCode)
	}

	data := dexscreenerPairsResponse{}
	if err = json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", "", err
	}
	if len(data.Pairs) == 0 {
		return "", "", fmt.Errorf("no pairs found for token %s", address)
	}

	token := data.Pairs[0].QuoteToken
	if strings.EqualFold(data.Pairs[0].BaseToken.Address, address) {
		token = data.Pairs[0].BaseToken
	}
	return token.Name, token.Symbol, nil
}
