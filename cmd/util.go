package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/aswapdex/aswap/accounts"
	"github.com/aswapdex/aswap/common"
	"github.com/aswapdex/aswap/config"
	"github.com/aswapdex/aswap/logger"
	"github.com/aswapdex/aswap/networks"
	"github.com/aswapdex/aswap/quote"
	"github.com/aswapdex/aswap/reader"
	"github.com/aswapdex/aswap/registry"
)

// stack bundles the network bound services every command needs.
type stack struct {
	network  networks.Network
	reader   *reader.EthReader
	registry *registry.Registry
	engine   *quote.Engine
	logger   *zap.Logger
}

func buildStack() (*stack, error) {
	network := networks.CurrentNetwork()
	log := logger.New(config.LogLevel)
	ethReader := reader.NewEthReaderForNetwork(network)
	reg := registry.NewRegistry(network, ethReader, log)
	feeCollector := ethcommon.Address{}
	if common.IsRealAddress(config.FeeCollector) {
		feeCollector = ethcommon.HexToAddress(config.FeeCollector)
	}
	engine := quote.NewEngine(network, ethReader, feeCollector, log)
	return &stack{
		network:  network,
		reader:   ethReader,
		registry: reg,
		engine:   engine,
		logger:   log,
	}, nil
}

func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + suffix
	return s
}

func printError(err error) {
	color.Red("Error: %v", err)
}

// unlockWallet opens the configured keystore file, falling back to the
// last used one, then to the single file in the keystore dir.
func unlockWallet() (*accounts.Account, error) {
	file := config.KeystoreFile
	if file == "" {
		file = config.LastUsedWallet
	}
	if file == "" {
		candidates, _ := filepath.Glob(filepath.Join(accounts.KeystoreDir(), "*.json"))
		if len(candidates) == 1 {
			file = candidates[0]
		}
	}
	if file == "" {
		return nil, fmt.Errorf("no keystore wallet configured, import one with: aswap wallet import")
	}
	if _, err := os.Stat(file); err != nil {
		return nil, fmt.Errorf("keystore file %s is not accessible: %w", file, err)
	}

	passphrase := accounts.PromptPassphrase(fmt.Sprintf("Passphrase for %s: ", filepath.Base(file)))
	account, err := accounts.NewKeystoreAccount(file, passphrase)
	if err != nil {
		return nil, err
	}
	if err := config.RememberWallet(file); err != nil {
		// not fatal, the wallet is already unlocked
		fmt.Println("warning: couldn't persist last used wallet:", err)
	}
	return account, nil
}

// resolvePair turns the two user supplied token args (symbol or
// address) into registry tokens.
func resolvePair(st *stack, ctx context.Context, fromArg, toArg string) (registry.Token, registry.Token, error) {
	from, err := resolveTokenArg(st, ctx, fromArg)
	if err != nil {
		return registry.Token{}, registry.Token{}, err
	}
	to, err := resolveTokenArg(st, ctx, toArg)
	if err != nil {
		return registry.Token{}, registry.Token{}, err
	}
	return from, to, nil
}

func resolveTokenArg(st *stack, ctx context.Context, arg string) (registry.Token, error) {
	if strings.EqualFold(arg, st.network.GetNativeTokenSymbol()) {
		return registry.NativeToken(st.network), nil
	}
	if ethcommon.IsHexAddress(arg) {
		token, err := st.registry.Resolve(ctx, arg, "")
		if err != nil {
			return registry.Token{}, err
		}
		return *token, nil
	}
	for _, token := range st.registry.List(ctx, "") {
		if strings.EqualFold(token.Symbol, arg) {
			return token, nil
		}
	}
	return registry.Token{}, fmt.Errorf("unknown token %q, try: aswap tokens --search %s", arg, arg)
}

func formatTokenAmount(raw string, decimals uint64) string {
	if raw == "" {
		return "-"
	}
	return common.BigToFloatString(common.StringToBig(raw), decimals)
}

func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:8] + ".." + addr[len(addr)-4:]
}
