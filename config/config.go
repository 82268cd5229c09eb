package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Flag-bound runtime settings shared across commands.
var (
	Network     string
	Account     string
	SlippagePct float64
	LogLevel    string
)

// Persistent settings loaded from the config file and environment.
var (
	FeeCollector   string
	KeystoreFile   string
	LastUsedWallet string
)

const (
	defaultSlippagePct = 0.5
	envPrefix          = "ASWAP"
)

func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aswap"
	}
	return filepath.Join(home, ".aswap")
}

// Load reads ~/.aswap/config.yaml if present and the ASWAP_* env vars
// on top of it. A missing file is not an error, every setting has a
// usable default.
func Load() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(Dir())
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("network", "avalanche")
	viper.SetDefault("slippage", defaultSlippagePct)
	viper.SetDefault("log_level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return err
		}
	}

	if Network == "" {
		Network = viper.GetString("network")
	}
	if SlippagePct == 0 {
		SlippagePct = viper.GetFloat64("slippage")
	}
	if LogLevel == "" {
		LogLevel = viper.GetString("log_level")
	}
	FeeCollector = viper.GetString("fee_collector")
	KeystoreFile = viper.GetString("keystore_file")
	LastUsedWallet = viper.GetString("last_used_wallet")
	return nil
}

// RememberWallet persists the keystore file of the wallet that was
// just used so the next swap doesn't ask again.
func RememberWallet(keystoreFile string) error {
	viper.Set("last_used_wallet", keystoreFile)
	if err := os.MkdirAll(Dir(), 0700); err != nil {
		return err
	}
	return viper.WriteConfigAs(filepath.Join(Dir(), "config.yaml"))
}
