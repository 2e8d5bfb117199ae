package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"krizpay/pkg/qr"
	"krizpay/pkg/rates"
)

var scanCmd = &cobra.Command{
	Use:   "scan <qr-text>",
	Short: "Classify scanned or pasted QR text",
	Long: `Classify QR text as a UPI payment code, a crypto address or neither.

Examples:
  krizpay scan "upi://pay?pa=shop@okaxis&pn=Corner%20Shop&am=150"
  krizpay scan 0x52908400098527886E0F7030069857D2E4169EE7
  krizpay scan --json 1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2`,
	Args: cobra.MinimumNArgs(1),
	Run:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	validation := qr.Validate(strings.Join(args, " "))

	if jsonOutput {
		printJSON(validation)
		if !validation.Valid {
			os.Exit(1)
		}
		return
	}

	if !validation.Valid {
		printError(fmt.Errorf("%s", validation.Error))
		os.Exit(1)
	}

	target := validation.Target
	fmt.Println()
	switch target.Kind {
	case qr.KindUPI:
		color.Green("UPI payment code")
		fmt.Printf("  VPA:       %s\n", color.CyanString(target.UPI.VPA))
		if target.UPI.PayeeName != "" {
			fmt.Printf("  Payee:     %s\n", target.UPI.PayeeName)
		}
		if target.UPI.Amount != "" {
			fmt.Printf("  Amount:    %s %s\n", target.UPI.Amount, target.UPI.Currency)
		}
		if target.UPI.Note != "" {
			fmt.Printf("  Note:      %s\n", target.UPI.Note)
		}
		if target.UPI.Ref != "" {
			fmt.Printf("  Reference: %s\n", target.UPI.Ref)
		}
	case qr.KindAddress:
		color.Green("Crypto address")
		fmt.Printf("  Address:   %s (%s)\n", color.CyanString(target.Address.Address), rates.FormatAddress(target.Address.Address, 4))
		fmt.Printf("  Network:   %s\n", target.Address.Network)
	}
	fmt.Println()
}
