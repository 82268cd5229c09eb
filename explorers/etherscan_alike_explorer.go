package explorers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const GAS_PRICE_CACHE_TIMEOUT int64 = 30 // seconds

// EtherscanLikeExplorer talks to any block explorer exposing the
// etherscan v2 API shape (etherscan, snowtrace, bscscan...).
type EtherscanLikeExplorer struct {
	gpmu              sync.Mutex
	latestGasPrice    float64
	gasPriceTimestamp int64

	ChainID uint64
	Domain  string
	APIKey  string
}

func NewEtherscanLikeExplorer(domain string, apiKey string) *EtherscanLikeExplorer {
	return &EtherscanLikeExplorer{
		Domain: domain,
		APIKey: apiKey,
	}
}

func NewEtherscanV2() *EtherscanLikeExplorer {
	return NewEtherscanLikeExplorer("https://api.etherscan.io/v2", "")
}

func (ee *EtherscanLikeExplorer) RecommendedGasPriceAPIURL() string {
	return fmt.Sprintf(
		"%s/api?chainid=%d&module=gastracker&action=gasoracle&apikey=%s",
		ee.Domain,
		ee.ChainID,
		ee.APIKey,
	)
}

type etherscanGasResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  struct {
		LastBlock       string `json:"LastBlock"`
		SafeGasPrice    string `json:"SafeGasPrice"`
		ProposeGasPrice string `json:"ProposeGasPrice"`
		FastGasPrice    string `json:"FastGasPrice"`
	} `json:"result"`
}

func (ee *EtherscanLikeExplorer) getGasPrice() (low, average, fast float64, err error) {
	resp, err := http.Get(ee.RecommendedGasPriceAPIURL())
	if err != nil {
		return 0, 0, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, 0, err
	}
	prices := etherscanGasResponse{}
	err = json.Unmarshal(body, &prices)
	if err != nil {
		return 0, 0, 0, fmt.Errorf(
			"couldn't unmarshal %s to gas price struct, err: %w",
			string(body),
			err,
		)
	}
	low, err = strconv.ParseFloat(prices.Result.SafeGasPrice, 64)
	if err != nil {
		return 0, 0, 0, err
	}
	average, err = strconv.ParseFloat(prices.Result.ProposeGasPrice, 64)
	if err != nil {
		return 0, 0, 0, err
	}
	fast, err = strconv.ParseFloat(prices.Result.FastGasPrice, 64)
	if err != nil {
		return 0, 0, 0, err
	}
	return low, average, fast, nil
}

func (ee *EtherscanLikeExplorer) RecommendedGasPrice() (float64, error) {
	ee.gpmu.Lock()
	defer ee.gpmu.Unlock()

	if ee.latestGasPrice == 0 || time.Now().Unix()-ee.gasPriceTimestamp > GAS_PRICE_CACHE_TIMEOUT {
		_, _, esFast, err := ee.getGasPrice()
		if err != nil {
			return 0, fmt.Errorf("explorer gas price lookup failed: %w", err)
		}

		ee.latestGasPrice = esFast
		ee.gasPriceTimestamp = time.Now().Unix()
	}
	return ee.latestGasPrice, nil
}

func (ee *EtherscanLikeExplorer) TokenInfoAPIURL(address string) string {
	return fmt.Sprintf(
		"%s/api?chainid=%d&module=token&action=tokeninfo&contractaddress=%s&apikey=%s",
		ee.Domain,
		ee.ChainID,
		address,
		ee.APIKey,
	)
}

type TokenInfo struct {
	ContractAddress string `json:"contractAddress"`
	TokenName       string `json:"tokenName"`
	Symbol          string `json:"symbol"`
	Divisor         string `json:"divisor"`
}

type tokenInfoResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Result  []TokenInfo `json:"result"`
}

// GetTokenInfo is a best effort metadata lookup for tokens that are not
// in any token list. Most explorers gate this endpoint behind paid API
// keys so callers must treat failures as non fatal.
func (ee *EtherscanLikeExplorer) GetTokenInfo(address string) (*TokenInfo, error) {
	url := ee.TokenInfoAPIURL(address)
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	tokenresp := tokenInfoResponse{}
	if err = json.Unmarshal(body, &tokenresp); err != nil {
		return nil, err
	}
	if tokenresp.Status != "1" || len(tokenresp.Result) == 0 {
		return nil, fmt.Errorf("error from %s: %s", url, tokenresp.Message)
	}
	return &tokenresp.Result[0], nil
}
