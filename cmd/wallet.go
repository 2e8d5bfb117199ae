package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"krizpay/pkg/payment"
	"krizpay/pkg/rates"
	"krizpay/pkg/wallet"
)

var walletProvider string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Connect the configured wallet and show its state",
}

var walletConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect a wallet provider",
	Long: `Connect a wallet provider and show the bound account, balance and network.

Only the injected provider (an RPC endpoint plus a local key) is implemented;
walletconnect and blocto are recognized but fail.

Examples:
  krizpay wallet connect
  krizpay wallet connect --provider walletconnect`,
	Run: runWalletConnect,
}

var walletStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the wallet session, connecting automatically when the account is pre-selected",
	Run:   runWalletStatus,
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletConnectCmd)
	walletCmd.AddCommand(walletStatusCmd)

	walletConnectCmd.Flags().StringVar(&walletProvider, "provider", string(wallet.KindInjected), "Provider kind (injected, walletconnect, blocto)")
}

func runWalletConnect(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg := mustLoadConfig()
	logger := newLogger(cmd, cfg)
	defer func() { _ = logger.Sync() }()

	kind, err := wallet.ParseProviderKind(walletProvider)
	if err != nil {
		printError(payment.ConnectError(err))
		os.Exit(1)
	}

	session, closeProvider := newSession(cfg, logger)
	defer closeProvider()

	ctx, cancel := signalContext()
	defer cancel()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = fmt.Sprintf(" Connecting %s wallet...", kind)
		s.Start()
	}
	err = session.Connect(ctx, kind)
	if !jsonOutput {
		s.Stop()
	}

	state := session.Snapshot()
	if jsonOutput {
		printJSON(state)
	} else {
		displayWallet(state)
	}
	if err != nil {
		printError(payment.ConnectError(err))
		os.Exit(1)
	}
}

func runWalletStatus(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg := mustLoadConfig()
	logger := newLogger(cmd, cfg)
	defer func() { _ = logger.Sync() }()

	session, closeProvider := newSession(cfg, logger)
	defer closeProvider()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// a failed auto-connect shows up in the state below
	_, _ = session.AutoConnect(ctx)
	if err := session.RefreshBalance(ctx); err != nil {
		color.Yellow("Balance may be stale: %v", err)
	}

	state := session.Snapshot()
	if jsonOutput {
		printJSON(state)
		return
	}
	displayWallet(state)
}

func displayWallet(state wallet.State) {
	fmt.Println()
	switch state.Status {
	case wallet.StatusConnected:
		color.Green("Wallet connected")
		fmt.Printf("  Address:  %s (%s)\n", color.CyanString(state.Address), rates.FormatAddress(state.Address, 4))
		fmt.Printf("  Balance:  %s\n", rates.FormatBalance(state.Balance, 4))
		fmt.Printf("  Network:  %s\n", state.Network)
	case wallet.StatusFailed:
		color.Red("Wallet connection failed")
		fmt.Printf("  Reason:   %s\n", state.LastError)
	default:
		color.Yellow("Wallet %s", state.Status)
		fmt.Println("  Run: krizpay wallet connect")
	}
	fmt.Println()
}
