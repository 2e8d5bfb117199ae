package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"krizpay/config"
	"krizpay/pkg/logging"
	"krizpay/pkg/provider"
	"krizpay/pkg/rates"
	"krizpay/pkg/record"
	"krizpay/pkg/wallet"
)

var rootCmd = &cobra.Command{
	Use:   "krizpay",
	Short: "Pay UPI and crypto QR codes from an EVM wallet",
	Long: `krizpay scans UPI and crypto payment QR codes, values the payment in INR,
sends the transfer from your wallet and records it.

Examples:
  krizpay scan "upi://pay?pa=shop@okaxis&am=150"
  krizpay rates eth --amount 0.5
  krizpay wallet connect
  krizpay pay 0x52908400098527886E0F7030069857D2E4169EE7 0.01 --token eth
  krizpay records list
  krizpay serve`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "\n%s %v\n\n", color.RedString("Error:"), err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", color.GreenString(message))
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return cfg
}

// newLogger builds the process logger; --verbose forces debug
func newLogger(cmd *cobra.Command, cfg *config.Config) *zap.Logger {
	level := cfg.LogLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	logger, err := logging.New(level)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return logger
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newSession creates a wallet session over the configured provider. The
// provider is nil when none is configured, so connecting fails with
// provider_unavailable.
func newSession(cfg *config.Config, logger *zap.Logger) (*wallet.Session, func()) {
	opts := []wallet.Option{
		wallet.WithLogger(logger),
		wallet.WithPlaceholderDelay(cfg.PlaceholderDelay),
	}
	if !cfg.HasProvider() {
		return wallet.NewSession(nil, opts...), func() {}
	}

	evm, err := provider.Dial(provider.Config{
		RPCURL:     cfg.Provider.RPCURL,
		PrivateKey: cfg.Provider.PrivateKey,
		ChainID:    cfg.Provider.ChainID,
		Network:    cfg.Provider.Network,
		Selected:   cfg.Provider.Selected,
	}, provider.WithLogger(logger))
	if err != nil {
		logger.Warn("wallet provider unavailable", zap.Error(err))
		return wallet.NewSession(nil, opts...), func() {}
	}
	return wallet.NewSession(evm, opts...), evm.Close
}

func newConverter(cfg *config.Config) *rates.Converter {
	converter, err := rates.NewConverter(rates.NewStaticTableFromFloats(cfg.Rates))
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return converter
}

func openStore(cfg *config.Config) (record.Repository, func() error) {
	repo, cleanup, err := record.Open(record.Options{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		DSN:    cfg.Store.DSN,
		URL:    cfg.Store.URL,
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return repo, cleanup
}

func pendingPath(cfg *config.Config) string {
	if cfg.PendingPath != "" {
		return cfg.PendingPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return record.DefaultPendingFileName
	}
	return filepath.Join(home, record.DefaultPendingFileName)
}
