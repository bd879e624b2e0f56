// Command dualtax computes income tax, capital gains, dividend tax and
// double-tax-agreement relief across the UK and ZA regimes, and maintains a
// FIFO tax-lot ledger for disposal events.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dualtax/tax-engine/internal/calculation"
	"github.com/dualtax/tax-engine/internal/config"
)

var (
	tablesFile string
	jsonOutput bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dualtax",
		Short: "Cross-border personal tax calculator for the UK and ZA regimes",
		Long: `dualtax computes progressive income tax, capital gains tax, dividend tax
and double-tax-agreement relief for taxpayers subject to the UK and ZA
regimes, and matches disposals against FIFO tax lots with multi-currency
cost basis.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&tablesFile, "tables", "", "YAML file of tax-year tables (defaults to the built-in 2024-25 tables)")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit results as JSON")

	root.AddCommand(newIncomeTaxCmd())
	root.AddCommand(newCapitalGainsCmd())
	root.AddCommand(newDividendTaxCmd())
	root.AddCommand(newTreatyCmd())
	root.AddCommand(newDisposalsCmd())
	root.AddCommand(newTablesCmd())
	return root
}

// buildEngine loads the table registry (external file or built-in defaults)
// and wraps it in a calculation engine.
func buildEngine() (*calculation.Engine, error) {
	registry, err := buildRegistry()
	if err != nil {
		return nil, err
	}
	return calculation.NewEngine(registry, nil), nil
}

func buildRegistry() (*config.Registry, error) {
	if tablesFile != "" {
		return config.NewLoader().LoadFile(tablesFile)
	}
	return config.DefaultRegistry()
}

func newTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Inspect and validate tax-year tables",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate a table file (or the built-in tables) and list the configured years",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := buildRegistry()
			if err != nil {
				return err
			}
			for _, j := range []string{"UK", "ZA"} {
				years := registry.TaxYears(jurisdictionArg(j))
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tax year(s) configured %v\n", j, len(years), years)
			}
			return nil
		},
	})
	return cmd
}
