package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aswapdex/aswap/balances"
)

var balancesCmd = &cobra.Command{
	Use:   "balances <address>",
	Short: "Show the wallet's balances for all known tokens",
	Long: `Fetch the native and token balances of an address across the whole
token registry. Tokens whose balance couldn't be read after retries
are shown as unknown instead of zero.

Example:
  aswap balances 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266`,
	Args: cobra.ExactArgs(1),
	Run:  runBalances,
}

func init() {
	rootCmd.AddCommand(balancesCmd)
}

func runBalances(cmd *cobra.Command, args []string) {
	account := args[0]
	if !ethcommon.IsHexAddress(account) {
		printError(fmt.Errorf("%q is not a valid address", account))
		os.Exit(1)
	}

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

	tokens := st.registry.List(ctx, "")
	addresses := make([]string, 0, len(tokens))
	for _, token := range tokens {
		addresses = append(addresses, token.Address)
	}

	s = newSpinner(fmt.Sprintf("Fetching %d balances...", len(addresses)))
	s.Start()
	fetcher := balances.NewFetcher(st.reader, st.logger)
	result := fetcher.FetchAll(ctx, account, addresses)
	s.Stop()

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("  BALANCES OF %s", shortAddress(ethcommon.HexToAddress(account).Hex()))
	fmt.Println(strings.Repeat("=", 70))
	shown := 0
	for _, token := range tokens {
		balance, ok := result[strings.ToLower(token.Address)]
		if !ok {
			color.Yellow("  %-12s unknown (node errors)", token.Symbol)
			shown++
			continue
		}
		if balance.Sign() == 0 && !token.IsNative() {
			continue
		}
		fmt.Printf("  %-12s %s\n",
			color.YellowString(token.Symbol),
			formatTokenAmount(balance.String(), token.Decimals),
		)
		shown++
	}
	if shown == 0 {
		fmt.Println("  no balances found")
	}
	fmt.Println(strings.Repeat("=", 70) + "\n")
}
