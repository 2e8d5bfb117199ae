package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"krizpay/pkg/rates"
)

var ratesAmount string

var ratesCmd = &cobra.Command{
	Use:   "rates [token]",
	Short: "Show INR rates and convert token amounts",
	Long: `Show the configured INR rate of each supported token, or convert an amount.

Rates come from the "rates" map in the config file.

Examples:
  krizpay rates
  krizpay rates eth --amount 0.25`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRates,
}

func init() {
	rootCmd.AddCommand(ratesCmd)

	ratesCmd.Flags().StringVar(&ratesAmount, "amount", "", "Amount of the token to convert")
}

type rateRow struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Decimals int32  `json:"decimals"`
	Rate     string `json:"rate,omitempty"`
	Amount   string `json:"amount,omitempty"`
	INR      string `json:"inr,omitempty"`
}

func runRates(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg := mustLoadConfig()
	converter := newConverter(cfg)
	registry := rates.DefaultRegistry()

	if len(args) == 1 {
		token, ok := registry.Lookup(args[0])
		if !ok {
			printError(fmt.Errorf("%w: %q", rates.ErrUnknownToken, args[0]))
			os.Exit(1)
		}
		rate, err := converter.RateOf(token.ID)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		row := rateRow{Token: token.Symbol, Name: token.Name, Decimals: token.Decimals, Rate: rate.String()}
		if ratesAmount != "" {
			amount, err := rates.ParseAmount(ratesAmount)
			if err != nil {
				printError(err)
				os.Exit(1)
			}
			inr, err := converter.ToINR(amount, token.ID)
			if err != nil {
				printError(err)
				os.Exit(1)
			}
			row.Amount = amount.String()
			row.INR = inr.StringFixed(2)
		}

		if jsonOutput {
			printJSON(row)
			return
		}
		fmt.Printf("\n  1 %s = ₹%s\n", color.YellowString(row.Token), row.Rate)
		if row.INR != "" {
			fmt.Printf("  %s %s ≈ %s\n", row.Amount, row.Token, color.GreenString("₹"+row.INR))
		}
		fmt.Println()
		return
	}

	rows := make([]rateRow, 0)
	for _, token := range registry.Tokens() {
		row := rateRow{Token: token.Symbol, Name: token.Name, Decimals: token.Decimals}
		if rate, err := converter.RateOf(token.ID); err == nil {
			row.Rate = rate.String()
		}
		rows = append(rows, row)
	}

	if jsonOutput {
		printJSON(rows)
		return
	}
	fmt.Printf("\n%-8s %-16s %s\n", "TOKEN", "NAME", "INR RATE")
	for _, row := range rows {
		rate := row.Rate
		if rate == "" {
			rate = color.HiBlackString("not configured")
		}
		fmt.Printf("%s %-16s %s\n", color.YellowString("%-8s", row.Token), row.Name, rate)
	}
	fmt.Println()
}
