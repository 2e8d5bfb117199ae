package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"krizpay/pkg/payment"
	"krizpay/pkg/rates"
	"krizpay/pkg/record"
	"krizpay/pkg/types"
	"krizpay/pkg/wallet"
)

var recordsCmd = &cobra.Command{
	Use:     "records",
	Aliases: []string{"history"},
	Short:   "List saved payments and retry unsaved ones",
}

var recordsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recorded payments",
	Run:     runRecordsList,
}

var recordsRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Save payments that were sent but not recorded",
	Long: `Save the records kept in the pending file after a partial success.

Only the record is saved again; no transfer is broadcast.`,
	Run: runRecordsRetry,
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsRetryCmd)
}

func runRecordsList(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg := mustLoadConfig()

	store, closeStore := openStore(cfg)
	defer func() { _ = closeStore() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := store.ListTransactionRecords(ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	pending, err := record.ReadPending(pendingPath(cfg))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"records": records, "pending": pending})
		return
	}

	if len(records) == 0 {
		fmt.Println("\nNo recorded payments.")
	} else {
		fmt.Println()
		for _, rec := range records {
			displayRecord(rec)
		}
	}
	if len(pending) > 0 {
		color.Yellow("\n%d payment(s) sent but not recorded. Run: krizpay records retry\n", len(pending))
	}
	if fs, ok := store.(*record.FileStore); ok {
		fmt.Println(color.HiBlackString("\n%d record(s) in %s", fs.Count(), fs.FilePath()))
	}
	fmt.Println()
}

func displayRecord(rec types.TransactionRecord) {
	to := rates.FormatAddress(rec.ToAddress, 4)
	if rec.PayeeVPA != "" {
		to = rec.PayeeVPA
	}
	fmt.Printf("%s  %s %s → %s  ₹%s  %s\n",
		rec.CreatedAt.Local().Format("2006-01-02 15:04"),
		rec.Amount,
		color.YellowString(rec.Token),
		color.CyanString(to),
		rates.FormatBalance(rec.InrValue, 2),
		rates.FormatAddress(rec.Hash, 6),
	)
	if url := rates.ExplorerURL(rec.Hash, rec.Network); url != "" {
		fmt.Printf("                  %s\n", color.HiBlackString(url))
	}
}

func runRecordsRetry(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg := mustLoadConfig()
	logger := newLogger(cmd, cfg)
	defer func() { _ = logger.Sync() }()

	path := pendingPath(cfg)
	pending, err := record.ReadPending(path)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if len(pending) == 0 {
		if jsonOutput {
			printJSON([]payment.Result{})
			return
		}
		printSuccess("Nothing to retry.")
		return
	}

	store, closeStore := openStore(cfg)
	defer func() { _ = closeStore() }()

	// persistence needs no wallet connection
	pipeline, err := payment.NewPipeline(wallet.NewSession(nil), newConverter(cfg), store, payment.WithLogger(logger))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	var (
		remaining []types.TransactionRecord
		results   []payment.Result
	)
	for _, rec := range pending {
		result, err := pipeline.RetryPersist(ctx, rec)
		switch {
		case err == nil:
			results = append(results, result)
			if !jsonOutput {
				color.Green("✓ %s recorded (%s)", rec.Hash, result.RecordID)
			}
		case errors.Is(err, record.ErrDuplicate):
			logger.Info("pending record already saved", zap.String("hash", rec.Hash))
			if !jsonOutput {
				color.Green("✓ %s was already recorded", rec.Hash)
			}
		default:
			remaining = append(remaining, rec)
			results = append(results, result)
			if !jsonOutput {
				color.Red("✗ %s: %v", rec.Hash, err)
			}
		}
	}

	if err := record.WritePending(path, remaining); err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(results)
	}
	if len(remaining) > 0 {
		os.Exit(1)
	}
}
