package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aswapdex/aswap/accounts"
	"github.com/aswapdex/aswap/config"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage keystore wallets",
}

var walletImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a raw private key into an encrypted keystore file",
	Long: `Prompt for a raw hex private key and a passphrase, encrypt the key
into a standard json keystore file under ~/.aswap/keystores and make it
the default wallet for swaps.`,
	Run: runWalletImport,
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the imported wallets",
	Run:   runWalletList,
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletImportCmd)
	walletCmd.AddCommand(walletListCmd)
}

func runWalletImport(cmd *cobra.Command, args []string) {
	privateKey := accounts.PromptPassphrase("Private key (hex): ")
	privateKey = strings.TrimPrefix(strings.TrimSpace(privateKey), "0x")
	passphrase := accounts.PromptPassphrase("Passphrase to encrypt with: ")
	confirm := accounts.PromptPassphrase("Repeat passphrase: ")
	if passphrase != confirm {
		printError(fmt.Errorf("passphrases don't match"))
		os.Exit(1)
	}

	path, err := accounts.StorePrivateKeyWithKeystore(privateKey, passphrase)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := config.RememberWallet(path); err != nil {
		fmt.Println("warning: couldn't persist wallet as default:", err)
	}
	color.Green("Wallet imported: %s", path)
}

func runWalletList(cmd *cobra.Command, args []string) {
	files, err := filepath.Glob(filepath.Join(accounts.KeystoreDir(), "*.json"))
	if err != nil || len(files) == 0 {
		fmt.Println("No wallets imported yet. Run: aswap wallet import")
		return
	}
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".json")
		if file == config.LastUsedWallet {
			fmt.Printf("  %s %s\n", color.YellowString(name), color.HiBlackString("(default)"))
		} else {
			fmt.Printf("  %s\n", name)
		}
	}
}
