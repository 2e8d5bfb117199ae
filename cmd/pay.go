package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"krizpay/config"
	"krizpay/pkg/payment"
	"krizpay/pkg/rates"
	"krizpay/pkg/record"
	"krizpay/pkg/wallet"
)

var (
	payToken  string
	payRef    string
	payNoWait bool
	payYes    bool
)

var payCmd = &cobra.Command{
	Use:   "pay <qr-text> [amount]",
	Short: "Pay a UPI code or crypto address from the connected wallet",
	Long: `Pay a scanned target. The transfer is broadcast once, then recorded with its
INR value. If the transfer succeeds but the record cannot be saved, the record
is kept in a pending file; run "krizpay records retry" to save it later.

Transfers must use the native coin of the connected network (eth on Ethereum,
matic on Polygon, bnb on BSC). When the wallet is slower than submit_timeout,
pay keeps waiting for the transaction hash and records it once it arrives.

UPI codes are settled on-chain to upi.settlement_address.

Examples:
  krizpay pay 0x52908400098527886E0F7030069857D2E4169EE7 0.01 --token eth
  krizpay pay "upi://pay?pa=shop@okaxis&am=0.002" --token eth --yes`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runPay,
}

func init() {
	rootCmd.AddCommand(payCmd)

	payCmd.Flags().StringVar(&payToken, "token", payment.DefaultToken, "Native coin of the connected network (eth, matic, bnb)")
	payCmd.Flags().StringVar(&payRef, "ref", "", "Reference stored with the record")
	payCmd.Flags().BoolVarP(&payYes, "yes", "y", false, "Skip confirmation prompt")
	payCmd.Flags().BoolVar(&payNoWait, "no-timeout", false, "Wait for the wallet without a time limit")
}

func runPay(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg := mustLoadConfig()
	logger := newLogger(cmd, cfg)
	defer func() { _ = logger.Sync() }()

	amount := ""
	if len(args) == 2 {
		amount = args[1]
	}
	intent, err := payment.ParseIntent(args[0], amount, payToken)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if payRef != "" {
		intent.Reference = payRef
	}

	ctx, cancel := signalContext()
	defer cancel()

	session, closeProvider := newSession(cfg, logger)
	defer closeProvider()

	if err := connectForPayment(ctx, session, jsonOutput); err != nil {
		printError(payment.ConnectError(err))
		os.Exit(1)
	}

	store, closeStore := openStore(cfg)
	defer func() { _ = closeStore() }()

	pipeline := newPipeline(cfg, session, store, logger)

	if !payYes && !jsonOutput {
		displayIntent(cfg, intent)
		if !confirmPayment() {
			fmt.Println("\nPayment cancelled.")
			return
		}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Sending payment..."
		s.Start()
	}
	result, err := pipeline.Submit(ctx, intent)
	if !jsonOutput {
		s.Stop()
	}
	if result.Late != nil {
		result, err = awaitLate(pipeline, result, err, jsonOutput)
	}

	if result.Outcome == payment.OutcomePartial {
		path := pendingPath(cfg)
		if perr := record.AppendPending(path, result.Record); perr != nil {
			logger.Error("failed to write pending record", zap.String("hash", result.TxHash), zap.Error(perr))
		} else {
			logger.Info("pending record written", zap.String("path", path))
		}
	}

	if jsonOutput {
		output := map[string]interface{}{"result": result}
		if err != nil {
			output["error"] = err.Error()
			output["kind"] = payment.KindOf(err)
		}
		printJSON(output)
		if err != nil {
			os.Exit(1)
		}
		return
	}

	displayResult(result, err)
	if err != nil {
		os.Exit(1)
	}
}

// connectForPayment reuses a pre-selected account or connects the injected provider
func connectForPayment(ctx context.Context, session *wallet.Session, quiet bool) error {
	if attempted, err := session.AutoConnect(ctx); attempted {
		return err
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !quiet {
		s.Suffix = " Connecting wallet..."
		s.Start()
		defer s.Stop()
	}
	return session.Connect(ctx, wallet.KindInjected)
}

// awaitLate keeps waiting for a transfer Submit stopped waiting for, so a
// hash that arrives late is still recorded. A further interrupt gives up.
func awaitLate(pipeline *payment.Pipeline, result payment.Result, err error, quiet bool) (payment.Result, error) {
	ctx, cancel := signalContext()
	defer cancel()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !quiet {
		color.Yellow("\n%v", err)
		s.Suffix = " Waiting for the wallet to return the transaction (Ctrl+C to give up)..."
		s.Start()
	}

	select {
	case late, ok := <-result.Late:
		s.Stop()
		if !ok {
			return result, err
		}
		if late.Err != nil {
			return payment.Result{Outcome: payment.OutcomeFailed}, late.Err
		}
		return pipeline.RetryPersist(ctx, late.Record)
	case <-ctx.Done():
		s.Stop()
		if !quiet {
			color.Yellow("Stopped waiting. The transfer may still complete; check the wallet before paying again.")
		}
		return result, err
	}
}

func newPipeline(cfg *config.Config, session *wallet.Session, store record.Store, logger *zap.Logger) *payment.Pipeline {
	timeout := cfg.SubmitTimeout
	if payNoWait {
		timeout = 0
	}
	pipeline, err := payment.NewPipeline(session, newConverter(cfg), store,
		payment.WithSettlementAddress(cfg.UPI.SettlementAddress),
		payment.WithPayeeName(cfg.UPI.PayeeName),
		payment.WithTimeout(timeout),
		payment.WithLogger(logger),
	)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return pipeline
}

func displayIntent(cfg *config.Config, intent payment.Intent) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                      PAYMENT")
	fmt.Println(strings.Repeat("=", 60))

	if upi := intent.Target.UPI; upi != nil {
		fmt.Printf("\n  Payee VPA:     %s\n", color.CyanString(upi.VPA))
		if upi.PayeeName != "" {
			fmt.Printf("  Payee:         %s\n", upi.PayeeName)
		}
		fmt.Printf("  Settled to:    %s\n", cfg.UPI.SettlementAddress)
	} else {
		fmt.Printf("\n  Recipient:     %s\n", color.CyanString(intent.Recipient()))
	}
	fmt.Printf("  Amount:        %s %s\n", intent.Amount, color.YellowString(strings.ToUpper(intent.Token)))

	if amount, err := rates.ParseAmount(intent.Amount); err == nil {
		if inr, err := newConverter(cfg).ToINR(amount, intent.Token); err == nil {
			fmt.Printf("  INR value:     ≈ ₹%s\n", inr.StringFixed(2))
		}
	}
	fmt.Println("\n" + strings.Repeat("=", 60))
}

func displayResult(result payment.Result, err error) {
	fmt.Println()
	switch result.Outcome {
	case payment.OutcomeSuccess:
		color.Green("✓ Payment sent and recorded")
		fmt.Printf("  Tx Hash:   %s\n", color.CyanString(result.TxHash))
		fmt.Printf("  Record ID: %s\n", result.RecordID)
		fmt.Printf("  INR value: ₹%s\n", rates.FormatBalance(result.Record.InrValue, 2))
	case payment.OutcomePartial:
		color.Yellow("! Payment sent but NOT recorded")
		fmt.Printf("  Tx Hash:   %s\n", color.CyanString(result.TxHash))
		fmt.Printf("  Reason:    %v\n", err)
		color.Yellow("  The funds moved. Save the record with: krizpay records retry")
	default:
		color.Red("✗ Payment failed")
		var perr *payment.Error
		if errors.As(err, &perr) {
			fmt.Printf("  Kind:      %s\n", perr.Kind)
		}
		fmt.Printf("  Reason:    %v\n", err)
	}
	if result.ExplorerURL != "" {
		fmt.Printf("  Explorer:  %s\n", result.ExplorerURL)
	}
	fmt.Println()
}

func confirmPayment() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nSend this payment? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
