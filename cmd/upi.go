package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"krizpay/pkg/qr"
	"krizpay/pkg/rates"
)

var (
	upiRef  string
	upiName string
)

var upiCmd = &cobra.Command{
	Use:   "upi <vpa> <amount>",
	Short: "Generate a UPI payment URI",
	Long: `Generate the canonical upi://pay URI for a payee, ready to render as a QR code.

Examples:
  krizpay upi shop@okaxis 150.00 --ref ORDER-42 --name "Corner Shop"`,
	Args: cobra.ExactArgs(2),
	Run:  runUPI,
}

func init() {
	rootCmd.AddCommand(upiCmd)

	upiCmd.Flags().StringVar(&upiRef, "ref", "", "Transaction reference (tr)")
	upiCmd.Flags().StringVar(&upiName, "name", "", "Payee name (pn)")
}

func runUPI(cmd *cobra.Command, args []string) {
	vpa, amount := args[0], args[1]
	if _, err := rates.ParseAmount(amount); err != nil {
		printError(err)
		os.Exit(1)
	}

	uri := qr.GenerateUPI(vpa, amount, upiRef, upiName)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		printJSON(map[string]string{"uri": uri})
		return
	}
	fmt.Println(uri)
}
