package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aswapdex/aswap/common"
	"github.com/aswapdex/aswap/quote"
	"github.com/aswapdex/aswap/registry"
)

var watchQuotes bool

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <from-token> <to-token>",
	Short: "Quote a swap on every router and rank the routes",
	Long: `Ask every supported router for a quote in parallel and print the
routes ordered by output, best first. Tokens are given by symbol or by
contract address, the native asset by its symbol (AVAX).

Examples:
  aswap quote 1.5 AVAX USDC.e
  aswap quote 100 USDT.e 0x60781C2586D68229fde47564546784ab3fACA982
  aswap quote 1 AVAX USDC.e --watch`,
	Args: cobra.ExactArgs(3),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().BoolVarP(&watchQuotes, "watch", "w", false, "refresh the quote every 10s until interrupted")
}

func runQuote(cmd *cobra.Command, args []string) {
	st, err := buildStack()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
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
	amountIn, err := common.FloatStringToBig(args[0], from.Decimals)
	if err != nil {
		printError(fmt.Errorf("bad amount %q: %w", args[0], err))
		os.Exit(1)
	}

	if !watchQuotes {
		if err := quoteOnce(ctx, st, from, to, amountIn, args[0]); err != nil {
			printError(err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		if err := quoteOnce(ctx, st, from, to, amountIn, args[0]); err != nil {
			printError(err)
		}
		select {
		case <-ctx.Done():
			fmt.Println("\nstopped")
			return
		case <-ticker.C:
		}
	}
}

func quoteOnce(ctx context.Context, st *stack, from, to registry.Token, amountIn *big.Int, amountStr string) error {
	seq := st.engine.NextSeq()

	s := newSpinner(fmt.Sprintf("Quoting %s %s -> %s...", amountStr, from.Symbol, to.Symbol))
	s.Start()
	routes, err := st.engine.GetAllRoutes(ctx, from, to, amountIn)
	s.Stop()
	if err != nil {
		return err
	}
	if !st.engine.IsLatest(seq) {
		// a newer request is already in flight, drop this answer
		return nil
	}
	// best effort, the header shows "?" when no node answered
	block, _ := st.reader.CurrentBlock()
	displayRoutes(st, from, to, amountStr, block, routes)
	return nil
}

func displayRoutes(st *stack, from, to registry.Token, amountStr string, block uint64, routes []quote.Route) {
	blockStr := "?"
	if block > 0 {
		blockStr = fmt.Sprintf("%d", block)
	}
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("  %s %s -> %s   (block %s, %s)",
		amountStr, from.Symbol, to.Symbol, blockStr, time.Now().Format("15:04:05"))
	fmt.Println(strings.Repeat("=", 70))
	if len(routes) == 0 {
		color.Yellow("  no route found, none of the routers has liquidity for this pair")
		fmt.Println(strings.Repeat("=", 70) + "\n")
		return
	}
	for i, route := range routes {
		marker := "  "
		if i == 0 {
			marker = color.GreenString("* ")
		}
		impact := ""
		if route.PriceImpactPct != 0 {
			impact = fmt.Sprintf("  impact %.2f%%", route.PriceImpactPct)
		}
		if route.ValueOutUSD != 0 {
			impact += fmt.Sprintf("  ~$%.2f", route.ValueOutUSD)
		}
		fmt.Printf("%s%-12s %s %s%s\n",
			marker,
			route.Router.Name,
			common.BigToFloatString(route.AmountOut, to.Decimals),
			color.YellowString(to.Symbol),
			color.HiBlackString(impact),
		)
	}
	if fee := st.engine.FeeCollector(); fee != (ethcommon.Address{}) {
		color.HiBlack("  quoted on the net amount after the protocol fee")
	}
	fmt.Println(strings.Repeat("=", 70) + "\n")
}
