package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/aswapdex/aswap/common"
	"github.com/aswapdex/aswap/networks"
)

var ErrInvalidAddress = errors.New("invalid token address")

// ChainReader is the read-only chain surface the registry needs. It is
// satisfied by *reader.EthReader.
type ChainReader interface {
	GetBalance(address string) (*big.Int, error)
	ERC20Name(caddr string) (string, error)
	ERC20Symbol(caddr string) (string, error)
	ERC20Decimal(caddr string) (uint64, error)
	ERC20Balance(caddr string, user string) (*big.Int, error)
}

// Registry resolves token addresses to metadata and balances. It keeps
// one in-memory cache merged from the network's token lists, the seed
// set and successful on-demand lookups. A single instance is shared by
// the quote engine and the CLI and must be passed by reference.
type Registry struct {
	network     networks.Network
	reader      ChainReader
	httpClient  *http.Client
	logger      *zap.Logger
	dexscreener *dexscreenerClient

	mu          sync.RWMutex
	tokens      map[string]Token
	initialized bool
	listURLs    []string
}

func NewRegistry(network networks.Network, chainReader ChainReader, logger *zap.Logger) *Registry {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return &Registry{
		network:    network,
		reader:     chainReader,
		httpClient: httpClient,
		logger:     logger,
		dexscreener: &dexscreenerClient{
			baseURL:    dexscreenerBaseURL,
			httpClient: httpClient,
		},
		tokens: map[string]Token{},
	}
}

// SetTokenListURLs overrides the network's token list sources. Used by
// tests and by deployments pinning their own lists.
func (r *Registry) SetTokenListURLs(urls []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listURLs = urls
}

func (r *Registry) tokenListURLs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.listURLs != nil {
		return r.listURLs
	}
	return r.network.GetTokenListURLs()
}

type tokenListEntry struct {
	ChainID  uint64 `json:"chainId"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint64 `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

type tokenListDoc struct {
	Tokens []tokenListEntry `json:"tokens"`
}

// Initialize fetches the network's token lists, keeps the entries of
// the target chain and merges them over the seed set, deduplicated by
// lower-cased address with last writer winning. Any list source may
// fail without aborting initialization; a total outage leaves the
// registry functional with the seed set only. Idempotent.
func (r *Registry) Initialize(ctx context.Context) error {
	r.mu.Lock()
	if r.initialized {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	urls := r.tokenListURLs()
	lists := make([][]tokenListEntry, len(urls))
	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			entries, err := r.fetchTokenList(ctx, url)
			if err != nil {
				r.logger.Warn("token list source failed",
					zap.String("url", url),
					zap.Error(err),
				)
				return
			}
			lists[i] = entries
		}(i, url)
	}
	wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return nil
	}
	for _, token := range seedTokens[r.network.GetChainID()] {
		r.tokens[strings.ToLower(token.Address)] = token
	}
	count := 0
	for _, entries := range lists {
		for _, entry := range entries {
			if entry.ChainID != r.network.GetChainID() {
				continue
			}
			if !ethcommon.IsHexAddress(entry.Address) {
				continue
			}
			r.tokens[strings.ToLower(entry.Address)] = Token{
				Address:  entry.Address,
				Name:     entry.Name,
				Symbol:   entry.Symbol,
				Decimals: entry.Decimals,
				LogoURI:  entry.LogoURI,
			}
			count++
		}
	}
	r.initialized = true
	r.logger.Info("token registry initialized",
		zap.Int("listed", count),
		zap.Int("cached", len(r.tokens)),
	)
	return nil
}

// Reset drops the cache so the next Initialize refetches everything.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = map[string]Token{}
	r.initialized = false
}

func (r *Registry) fetchTokenList(ctx context.Context, url string) ([]tokenListEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token list returned status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err = json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	// standard token lists wrap entries in a "tokens" field, some
	// sources serve a bare array
	doc := tokenListDoc{}
	if err = json.Unmarshal(raw, &doc); err == nil && len(doc.Tokens) > 0 {
		return doc.Tokens, nil
	}
	entries := []tokenListEntry{}
	if err = json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("unrecognized token list document: %w", err)
	}
	return entries, nil
}

// Resolve returns the metadata of a token, annotated with account's
// balance when account is not empty. Unknown but valid addresses are
// looked up on chain first, then on the dexscreener aggregator, then
// on the block explorer; a successful lookup is cached.
func (r *Registry) Resolve(ctx context.Context, address string, account string) (*Token, error) {
	if strings.EqualFold(address, NativeTokenAddress) {
		token := NativeToken(r.network)
		r.annotateBalance(&token, account)
		return &token, nil
	}
	if !ethcommon.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}

	r.mu.RLock()
	cached, found := r.tokens[strings.ToLower(address)]
	r.mu.RUnlock()
	if found {
		r.annotateBalance(&cached, account)
		return &cached, nil
	}

	token, err := r.lookupToken(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("couldn't resolve token %s: %w", address, err)
	}

	r.mu.Lock()
	r.tokens[strings.ToLower(address)] = *token
	r.mu.Unlock()
	r.logger.Info("resolved unlisted token",
		zap.String("address", address),
		zap.String("symbol", token.Symbol),
	)

	r.annotateBalance(token, account)
	return token, nil
}

func (r *Registry) lookupToken(ctx context.Context, address string) (*Token, error) {
	checksummed := ethcommon.HexToAddress(address).Hex()
	token := &Token{
		Address:  checksummed,
		Decimals: 18,
	}

	name, nameErr := r.reader.ERC20Name(checksummed)
	symbol, symbolErr := r.reader.ERC20Symbol(checksummed)
	decimals, decimalsErr := r.reader.ERC20Decimal(checksummed)
	if nameErr == nil && symbolErr == nil && decimalsErr == nil {
		token.Name = name
		token.Symbol = symbol
		token.Decimals = decimals
		token.LogoURI = r.probeLogoURL(ctx, checksummed)
		return token, nil
	}

	dsName, dsSymbol, dsErr := r.dexscreener.LookupToken(ctx, checksummed)
	if dsErr == nil {
		token.Name = dsName
		token.Symbol = dsSymbol
		if decimalsErr == nil {
			token.Decimals = decimals
		}
		token.LogoURI = r.probeLogoURL(ctx, checksummed)
		return token, nil
	}

	exName, exSymbol, exDecimals, exErr := r.network.GetTokenInfoFromExplorer(checksummed)
	if exErr == nil {
		token.Name = exName
		token.Symbol = exSymbol
		token.Decimals = exDecimals
		token.LogoURI = r.probeLogoURL(ctx, checksummed)
		return token, nil
	}

	return nil, errors.Join(nameErr, symbolErr, decimalsErr, dsErr, exErr)
}

// probeLogoURL HEADs the known icon hosting templates, first 2xx wins.
func (r *Registry) probeLogoURL(ctx context.Context, checksummed string) string {
	for _, template := range r.network.GetTokenLogoURLTemplates() {
		url := logoURLFromTemplate(template, checksummed)
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			continue
		}
		resp, err := r.httpClient.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return url
		}
	}
	return ""
}

func logoURLFromTemplate(template, checksummed string) string {
	return fmt.Sprintf(template, checksummed)
}

func (r *Registry) annotateBalance(token *Token, account string) {
	if account == "" {
		return
	}
	var balance *big.Int
	var err error
	if token.IsNative() {
		balance, err = r.reader.GetBalance(account)
	} else {
		balance, err = r.reader.ERC20Balance(token.Address, account)
	}
	if err != nil {
		r.logger.Debug("balance annotation failed",
			zap.String("token", token.Address),
			zap.Error(err),
		)
		return
	}
	token.Balance = balance.String()
}

// List returns the native asset plus every cached token, annotated
// with account's balances when account is not empty. Ordering: native
// asset first, then tokens with balances by descending magnitude, then
// the rest alphabetically by symbol.
func (r *Registry) List(ctx context.Context, account string) []Token {
	r.mu.RLock()
	result := make([]Token, 0, len(r.tokens)+1)
	result = append(result, NativeToken(r.network))
	for _, token := range r.tokens {
		result = append(result, token)
	}
	r.mu.RUnlock()

	if account != "" {
		var wg sync.WaitGroup
		for i := range result {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				r.annotateBalance(&result[i], account)
			}(i)
		}
		wg.Wait()
	}

	sortTokens(result)
	return result
}

func sortTokens(tokens []Token) {
	sort.SliceStable(tokens, func(i, j int) bool {
		a, b := tokens[i], tokens[j]
		if a.IsNative() != b.IsNative() {
			return a.IsNative()
		}
		aBalance := common.BigToFloat(common.StringToBig(a.Balance), a.Decimals)
		bBalance := common.BigToFloat(common.StringToBig(b.Balance), b.Decimals)
		if aBalance != bBalance {
			return aBalance > bBalance
		}
		return strings.ToLower(a.Symbol) < strings.ToLower(b.Symbol)
	})
}

// Search filters the token list by a case-insensitive substring match
// against symbol, name and address. When the query is a valid address
// that is not known yet, it is resolved on demand and spliced to the
// front of the result.
func (r *Registry) Search(ctx context.Context, query string, account string) []Token {
	all := r.List(ctx, account)

	if ethcommon.IsHexAddress(query) {
		known := false
		for _, token := range all {
			if strings.EqualFold(token.Address, query) {
				known = true
				break
			}
		}
		if !known {
			if token, err := r.Resolve(ctx, query, account); err == nil {
				all = append([]Token{*token}, all...)
			} else {
				r.logger.Warn("searched address couldn't be resolved",
					zap.String("address", query),
					zap.Error(err),
				)
			}
		}
	}

	needle := strings.ToLower(query)
	matched := []Token{}
	for _, token := range all {
		if strings.Contains(strings.ToLower(token.Symbol), needle) ||
			strings.Contains(strings.ToLower(token.Name), needle) ||
			strings.Contains(strings.ToLower(token.Address), needle) {
			matched = append(matched, token)
		}
	}

	return rankBySymbolRelevance(query, matched)
}

// rankBySymbolRelevance puts fuzzy matches on symbol/name first, best
// score leading, keeping the balance ordering for everything else.
func rankBySymbolRelevance(query string, tokens []Token) []Token {
	if query == "" || ethcommon.IsHexAddress(query) {
		return tokens
	}
	haystack := make([]string, len(tokens))
	for i, token := range tokens {
		haystack[i] = token.Symbol + " " + token.Name
	}
	matches := fuzzy.Find(query, haystack)
	if len(matches) == 0 {
		return tokens
	}

	picked := make(map[int]bool, len(matches))
	result := make([]Token, 0, len(tokens))
	for _, m := range matches {
		picked[m.Index] = true
		result = append(result, tokens[m.Index])
	}
	for i, token := range tokens {
		if !picked[i] {
			result = append(result, token)
		}
	}
	return result
}
