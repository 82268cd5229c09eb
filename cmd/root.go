package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aswapdex/aswap/config"
	"github.com/aswapdex/aswap/networks"
)

var rootCmd = &cobra.Command{
	Use:   "aswap",
	Short: "Swap tokens on avalanche from your terminal",
	Long: fmt.Sprintf(`aswap quotes a swap on every supported dex router in parallel,
shows you the best route and executes it with your keystore wallet.

Supported networks: %v.

Nodes and explorer API keys can be overridden with each network's env
vars, a custom node for avalanche for example via %s. Persistent
settings live in ~/.aswap/config.yaml and can also be set through
ASWAP_* env vars (ASWAP_FEE_COLLECTOR, ASWAP_KEYSTORE_FILE, ...).`,
		networks.GetSupportedNetworkNames(),
		mustNetwork("avalanche").GetNodeVariableName(),
	),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return fmt.Errorf("couldn't load config: %w", err)
		}
		networks.SetNetwork(config.Network)
		return nil
	},
}

func mustNetwork(name string) networks.Network {
	network, err := networks.GetNetwork(name)
	if err != nil {
		panic(err)
	}
	return network
}

func Execute() {
	rootCmd.PersistentFlags().StringVarP(&config.Network, "network", "k", "",
		"network to operate on. Valid values: \"avalanche\", \"fuji\".")
	rootCmd.PersistentFlags().StringVarP(&config.LogLevel, "log-level", "l", "",
		"zap log level: debug, info, warn, error.")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
