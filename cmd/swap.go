package cmd

import (
	"bufio"
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aswapdex/aswap/accounts"
	"github.com/aswapdex/aswap/balances"
	"github.com/aswapdex/aswap/broadcaster"
	"github.com/aswapdex/aswap/common"
	"github.com/aswapdex/aswap/config"
	"github.com/aswapdex/aswap/monitor"
	"github.com/aswapdex/aswap/quote"
	"github.com/aswapdex/aswap/registry"
	"github.com/aswapdex/aswap/swap"
)

var (
	swapRouterName  string
	swapSlippagePct float64
	noConfirm       bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <from-token> <to-token>",
	Short: "Swap tokens through the best quoted route",
	Long: `Quote the pair on every router, pick the best route and execute it:
approve the spender if the allowance is too low, submit the swap with
the slippage bound applied and wait until it is mined.

The amount can be "max" or "half" to spend (most of) the wallet's
balance; for the native asset some headroom is kept for gas.

Examples:
  aswap swap 1.5 AVAX USDC.e
  aswap swap max AVAX USDC.e
  aswap swap 100 USDT.e USDC.e --slippage 1
  aswap swap 100 USDT.e USDC.e --router pangolin --yes`,
	Args: cobra.ExactArgs(3),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)
	swapCmd.Flags().Float64VarP(&swapSlippagePct, "slippage", "s", 0,
		"max slippage in percent, default from config (0.5)")
	swapCmd.Flags().StringVarP(&swapRouterName, "router", "r", "",
		"force a specific router instead of the best quoted one")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "skip the confirmation prompt")
	swapCmd.Flags().StringVarP(&config.Account, "wallet", "f", "",
		"keystore file of the wallet to swap from")
}

func runSwap(cmd *cobra.Command, args []string) {
	st, err := buildStack()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	config.SlippagePct = resolveSlippage(cmd)
	ctx := context.Background()

	s := newSpinner("Loading token lists...")
	s.Start()
	err = st.registry.Initialize(ctx)
	s.Stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	from, to, err := resolvePair(st, ctx, args[1], args[2])
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if config.Account != "" {
		config.KeystoreFile = config.Account
	}

	var account *accounts.Account
	amountStr := args[0]
	var amountIn *big.Int
	switch strings.ToLower(amountStr) {
	case "max", "half":
		// spending a balance fraction needs the wallet address first
		account, err = unlockWallet()
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		fetcher := balances.NewFetcher(st.reader, st.logger)
		fetched := fetcher.FetchAll(ctx, account.AddressHex(), []string{from.Address})
		balance, ok := fetched[strings.ToLower(from.Address)]
		if !ok {
			printError(fmt.Errorf("couldn't fetch the %s balance of %s", from.Symbol, account.AddressHex()))
			os.Exit(1)
		}
		if strings.EqualFold(amountStr, "max") {
			amountIn = balances.MaxSpendable(from, balance)
		} else {
			amountIn = balances.HalfSpendable(from, balance)
		}
		amountStr = common.BigToFloatString(amountIn, from.Decimals)
	default:
		amountIn, err = common.FloatStringToBig(amountStr, from.Decimals)
		if err != nil {
			printError(fmt.Errorf("bad amount %q: %w", amountStr, err))
			os.Exit(1)
		}
	}

	s = newSpinner("Quoting routers...")
	s.Start()
	routes, err := st.engine.GetAllRoutes(ctx, from, to, amountIn)
	s.Stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	route, err := pickRoute(routes, swapRouterName)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	minOut, err := swap.MinAmountOut(route.AmountOut, config.SlippagePct)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	displaySwapPlan(st, from, to, amountStr, route, minOut)

	if !noConfirm && !confirmSwap() {
		fmt.Println("\nSwap cancelled.")
		return
	}

	if account == nil {
		account, err = unlockWallet()
		if err != nil {
			printError(err)
			os.Exit(1)
		}
	}
	color.HiBlack("Swapping from %s", account.AddressHex())

	executor := swap.NewExecutor(
		st.network,
		st.reader,
		broadcaster.NewBroadcasterForNetwork(st.network),
		monitor.NewGenericTxMonitor(st.reader),
		account,
		st.engine.FeeCollector(),
		st.logger,
	)

	s = newSpinner("Executing swap (this can take a minute)...")
	s.Start()
	result, err := executor.Execute(ctx, swap.Params{
		Route:       route,
		From:        from,
		To:          to,
		SlippagePct: config.SlippagePct,
	})
	s.Stop()

	if result != nil && result.ApprovalTxHash != "" {
		fmt.Printf("  approval tx: %s\n", color.CyanString(result.ApprovalTxHash))
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	color.Green("\nSwap confirmed!")
	fmt.Printf("  tx:       %s\n", color.CyanString(result.SwapTxHash))
	fmt.Printf("  received: at least %s %s\n",
		common.BigToFloatString(result.MinAmountOut, to.Decimals),
		color.YellowString(to.Symbol),
	)
	if result.SwapInfo.Receipt != nil && result.SwapInfo.Tx != nil {
		fmt.Printf("  gas cost: %s %s\n",
			common.BigToFloatString(result.SwapInfo.GasCost(), 18),
			st.network.GetNativeTokenSymbol(),
		)
	}
}

// resolveSlippage prefers the flag when it was given on the command
// line, the configured default otherwise. An explicit --slippage 0 is
// a valid choice and must not fall back to the default.
func resolveSlippage(cmd *cobra.Command) float64 {
	if cmd.Flags().Changed("slippage") {
		return swapSlippagePct
	}
	return config.SlippagePct
}

func pickRoute(routes []quote.Route, routerName string) (*quote.Route, error) {
	if len(routes) == 0 {
		return nil, quote.ErrNoLiquidity
	}
	if routerName == "" {
		return &routes[0], nil
	}
	for i := range routes {
		if strings.EqualFold(routes[i].Router.Name, routerName) {
			return &routes[i], nil
		}
	}
	return nil, fmt.Errorf("router %q returned no quote for this pair", routerName)
}

func displaySwapPlan(st *stack, from, to registry.Token, amountStr string, route *quote.Route, minOut *big.Int) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("  SWAP PLAN")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("  Route:     %s\n", color.CyanString(route.Router.Name))
	fmt.Printf("  From:      %s %s\n", amountStr, color.YellowString(from.Symbol))
	fmt.Printf("  To:        ~%s %s\n",
		common.BigToFloatString(route.AmountOut, to.Decimals),
		color.YellowString(to.Symbol),
	)
	fmt.Printf("  Min out:   %s %s (%.2f%% slippage)\n",
		common.BigToFloatString(minOut, to.Decimals),
		to.Symbol,
		config.SlippagePct,
	)
	if route.PriceImpactPct != 0 {
		fmt.Printf("  Impact:    %.2f%%\n", route.PriceImpactPct)
	}
	if collector := st.engine.FeeCollector(); collector != (ethcommon.Address{}) {
		fmt.Printf("  Fee:       1%% of input, collected by %s\n", shortAddress(collector.Hex()))
	}
	fmt.Println(strings.Repeat("=", 70))
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
