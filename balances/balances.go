package balances

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aswapdex/aswap/registry"
)

const (
	// per-token and whole-batch retry budget
	maxAttempts = 3
	retryDelay  = 1 * time.Second
)

// BalanceReader is the chain surface the fetcher needs, satisfied by
// *reader.EthReader.
type BalanceReader interface {
	GetBalance(address string) (*big.Int, error)
	ERC20Balance(caddr string, user string) (*big.Int, error)
}

// Fetcher loads wallet balances for a set of tokens in parallel. A
// token whose reads keep failing is omitted from the result rather
// than reported as zero, so the caller can keep showing the last known
// value.
type Fetcher struct {
	reader BalanceReader
	logger *zap.Logger
}

func NewFetcher(reader BalanceReader, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		reader: reader,
		logger: logger,
	}
}

// FetchAll returns balances keyed by lower-cased token address. Tokens
// may include the native sentinel address. Each token is retried up to
// 3 times with a fixed 1s delay; if every single token fails, the
// whole batch is retried with the same budget before giving up with an
// empty map.
func (f *Fetcher) FetchAll(ctx context.Context, account string, tokens []string) map[string]*big.Int {
	if len(tokens) == 0 {
		return map[string]*big.Int{}
	}
	for attempt := 1; ; attempt++ {
		result := f.fetchBatch(ctx, account, tokens)
		if len(result) > 0 || attempt >= maxAttempts {
			if len(result) == 0 {
				f.logger.Warn("balance batch failed completely",
					zap.Int("tokens", len(tokens)),
					zap.String("account", account),
				)
			}
			return result
		}
		f.logger.Warn("balance batch returned nothing, retrying",
			zap.Int("attempt", attempt),
		)
		if !sleepCtx(ctx, retryDelay) {
			return result
		}
	}
}

func (f *Fetcher) fetchBatch(ctx context.Context, account string, tokens []string) map[string]*big.Int {
	result := map[string]*big.Int{}
	mu := sync.Mutex{}
	wg := sync.WaitGroup{}
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			balance, err := f.fetchOne(ctx, account, token)
			if err != nil {
				f.logger.Debug("balance fetch failed",
					zap.String("token", token),
					zap.Error(err),
				)
				return
			}
			mu.Lock()
			result[strings.ToLower(token)] = balance
			mu.Unlock()
		}(token)
	}
	wg.Wait()
	return result
}

func (f *Fetcher) fetchOne(ctx context.Context, account string, token string) (*big.Int, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var balance *big.Int
		var err error
		if strings.EqualFold(token, registry.NativeTokenAddress) {
			balance, err = f.reader.GetBalance(account)
		} else {
			balance, err = f.reader.ERC20Balance(token, account)
		}
		if err == nil {
			return balance, nil
		}
		lastErr = err
		if attempt < maxAttempts && !sleepCtx(ctx, retryDelay) {
			break
		}
	}
	return nil, fmt.Errorf("balance of %s for %s: %w", token, account, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
