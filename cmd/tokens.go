package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aswapdex/aswap/registry"
)

var searchQuery string

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"ls"},
	Short:   "List or search the known tokens",
	Long: `List every token known on the current network, merged from the
network's token lists. With --search the list is filtered by symbol,
name or address; searching for an unlisted contract address resolves
it on chain.

Examples:
  aswap tokens
  aswap tokens --search usd
  aswap tokens --search 0x60781C2586D68229fde47564546784ab3fACA982`,
	Run: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.Flags().StringVarP(&searchQuery, "search", "s", "", "filter by symbol, name or address")
}

func runTokens(cmd *cobra.Command, args []string) {
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

	var tokens []registry.Token
	if searchQuery == "" {
		tokens = st.registry.List(ctx, "")
	} else {
		tokens = st.registry.Search(ctx, searchQuery, "")
	}
	displayTokens(st, tokens)
}

func displayTokens(st *stack, tokens []registry.Token) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	color.Green("  TOKENS ON %s", strings.ToUpper(st.network.GetName()))
	fmt.Println(strings.Repeat("=", 80))
	for _, token := range tokens {
		address := token.Address
		if token.IsNative() {
			address = "native"
		}
		fmt.Printf("  %-12s %2d decimals  %-44s %s\n",
			color.YellowString(token.Symbol),
			token.Decimals,
			color.HiBlackString(address),
			token.Name,
		)
	}
	fmt.Printf("\nTotal: %d tokens\n\n", len(tokens))
}
