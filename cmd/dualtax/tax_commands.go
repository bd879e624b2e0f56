package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dualtax/tax-engine/internal/calculation"
	"github.com/dualtax/tax-engine/internal/domain"
	"github.com/dualtax/tax-engine/internal/output"
	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

// jurisdictionArg converts a --jurisdiction flag value, exiting through the
// usual error path on bad input.
func jurisdictionArg(code string) domain.Jurisdiction {
	j, err := domain.ParseJurisdiction(code)
	if err != nil {
		// Callers validate first; this keeps the helper total.
		return domain.Jurisdiction(code)
	}
	return j
}

func parseMoneyFlag(name, value string) (moneypkg.Money, error) {
	m, err := moneypkg.NewFromString(value)
	if err != nil {
		return moneypkg.Zero(), fmt.Errorf("flag --%s: %w", name, err)
	}
	return m, nil
}

func emit(cmd *cobra.Command, result any, console string) error {
	if jsonOutput {
		data, err := output.FormatJSON(result)
		if err != nil {
			return err
		}
		cmd.OutOrStdout().Write(data)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), console)
	return nil
}

func newIncomeTaxCmd() *cobra.Command {
	var (
		jurisdiction string
		taxYear      string
		gross        string
		age          int
	)
	cmd := &cobra.Command{
		Use:   "income-tax",
		Short: "Compute progressive income tax for one jurisdiction and tax year",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := buildEngine()
			if err != nil {
				return err
			}
			j, err := domain.ParseJurisdiction(jurisdiction)
			if err != nil {
				return err
			}
			grossIncome, err := parseMoneyFlag("gross", gross)
			if err != nil {
				return err
			}
			var agePtr *int
			if cmd.Flags().Changed("age") {
				agePtr = &age
			}
			result, err := engine.ComputeIncomeTax(j, taxYear, grossIncome, agePtr)
			if err != nil {
				return err
			}
			return emit(cmd, result, output.FormatIncomeTax(result))
		},
	}
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "UK or ZA")
	cmd.Flags().StringVar(&taxYear, "year", "2024-25", "tax year label, e.g. 2024-25")
	cmd.Flags().StringVar(&gross, "gross", "", "gross income")
	cmd.Flags().IntVar(&age, "age", 0, "taxpayer age (enables age rebates)")
	cmd.MarkFlagRequired("jurisdiction")
	cmd.MarkFlagRequired("gross")
	return cmd
}

func newCapitalGainsCmd() *cobra.Command {
	var (
		jurisdiction  string
		taxYear       string
		gains         string
		exclusionUsed string
		otherIncome   string
		asset         string
		higherRate    bool
		corporate     bool
		age           int
	)
	cmd := &cobra.Command{
		Use:   "capital-gains",
		Short: "Compute capital gains tax on a realized-gain total",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := buildEngine()
			if err != nil {
				return err
			}
			j, err := domain.ParseJurisdiction(jurisdiction)
			if err != nil {
				return err
			}
			totalGains, err := parseMoneyFlag("gains", gains)
			if err != nil {
				return err
			}
			used, err := parseMoneyFlag("exclusion-used", exclusionUsed)
			if err != nil {
				return err
			}
			other, err := parseMoneyFlag("other-income", otherIncome)
			if err != nil {
				return err
			}
			taxpayer := domain.TaxpayerContext{
				HigherRate:         higherRate,
				Corporate:          corporate,
				AssetClass:         domain.AssetClass(asset),
				OtherTaxableIncome: other,
			}
			if cmd.Flags().Changed("age") {
				taxpayer.Age = &age
			}
			result, err := engine.ComputeCapitalGains(j, taxYear, totalGains, used, taxpayer)
			if err != nil {
				return err
			}
			return emit(cmd, result, output.FormatCapitalGains(result))
		},
	}
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "UK or ZA")
	cmd.Flags().StringVar(&taxYear, "year", "2024-25", "tax year label")
	cmd.Flags().StringVar(&gains, "gains", "", "total realized gains for the year")
	cmd.Flags().StringVar(&exclusionUsed, "exclusion-used", "0", "annual exclusion already consumed")
	cmd.Flags().StringVar(&otherIncome, "other-income", "0", "other taxable income (inclusion methodology)")
	cmd.Flags().StringVar(&asset, "asset", string(domain.AssetGeneral), "asset class: general or property")
	cmd.Flags().BoolVar(&higherRate, "higher-rate", false, "taxpayer pays the higher flat rate")
	cmd.Flags().BoolVar(&corporate, "corporate", false, "corporate inclusion rate applies")
	cmd.Flags().IntVar(&age, "age", 0, "taxpayer age (affects rebates under the inclusion methodology)")
	cmd.MarkFlagRequired("jurisdiction")
	cmd.MarkFlagRequired("gains")
	return cmd
}

func newDividendTaxCmd() *cobra.Command {
	var (
		jurisdiction  string
		taxYear       string
		dividends     string
		exemptionUsed string
		otherIncome   string
	)
	cmd := &cobra.Command{
		Use:   "dividend-tax",
		Short: "Compute dividend tax for one jurisdiction and tax year",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := buildEngine()
			if err != nil {
				return err
			}
			j, err := domain.ParseJurisdiction(jurisdiction)
			if err != nil {
				return err
			}
			dividendIncome, err := parseMoneyFlag("dividends", dividends)
			if err != nil {
				return err
			}
			used, err := parseMoneyFlag("exemption-used", exemptionUsed)
			if err != nil {
				return err
			}
			var otherPtr *moneypkg.Money
			if cmd.Flags().Changed("other-income") {
				other, err := parseMoneyFlag("other-income", otherIncome)
				if err != nil {
					return err
				}
				otherPtr = &other
			}
			result, err := engine.ComputeDividendTax(j, taxYear, dividendIncome, used, otherPtr)
			if err != nil {
				return err
			}
			return emit(cmd, result, output.FormatDividendTax(result))
		},
	}
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "UK or ZA")
	cmd.Flags().StringVar(&taxYear, "year", "2024-25", "tax year label")
	cmd.Flags().StringVar(&dividends, "dividends", "", "dividend income")
	cmd.Flags().StringVar(&exemptionUsed, "exemption-used", "0", "exemption already consumed")
	cmd.Flags().StringVar(&otherIncome, "other-income", "0", "other taxable income (stacked methodology)")
	cmd.MarkFlagRequired("jurisdiction")
	cmd.MarkFlagRequired("dividends")
	return cmd
}

func newTreatyCmd() *cobra.Command {
	var (
		taxYear     string
		incomeType  string
		source      string
		amount      string
		otherIncome string
		asset       string
		age         int
		residentUK  bool
		residentZA  bool
		homeUK      bool
		homeZA      bool
		vitalUK     bool
		vitalZA     bool
		abodeUK     bool
		abodeZA     bool
		nationalUK  bool
		nationalZA  bool
	)
	cmd := &cobra.Command{
		Use:   "dta",
		Short: "Compute double-tax-agreement relief for one income item",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := buildEngine()
			if err != nil {
				return err
			}
			itype, err := domain.ParseIncomeType(incomeType)
			if err != nil {
				return err
			}
			src, err := domain.ParseJurisdiction(source)
			if err != nil {
				return err
			}
			amt, err := parseMoneyFlag("amount", amount)
			if err != nil {
				return err
			}
			other, err := parseMoneyFlag("other-income", otherIncome)
			if err != nil {
				return err
			}
			input := calculation.TreatyInput{
				IncomeType:  itype,
				Source:      src,
				Amount:      amt,
				OtherIncome: other,
				AssetClass:  domain.AssetClass(asset),
				Flags: domain.ResidenceFlags{
					ResidentUK: residentUK,
					ResidentZA: residentZA,
					FactsUK: domain.CountryFacts{
						PermanentHome:          homeUK,
						CentreOfVitalInterests: vitalUK,
						HabitualAbode:          abodeUK,
						National:               nationalUK,
					},
					FactsZA: domain.CountryFacts{
						PermanentHome:          homeZA,
						CentreOfVitalInterests: vitalZA,
						HabitualAbode:          abodeZA,
						National:               nationalZA,
					},
				},
			}
			if cmd.Flags().Changed("age") {
				input.Age = &age
			}
			result, err := engine.ComputeTreatyRelief(taxYear, input)
			if err != nil {
				return err
			}
			return emit(cmd, result, output.FormatTreatyRelief(result))
		},
	}
	cmd.Flags().StringVar(&taxYear, "year", "2024-25", "tax year label for both jurisdictions")
	cmd.Flags().StringVar(&incomeType, "type", "", "income type: employment, dividends, interest, capital_gains, private_pension, government_pension")
	cmd.Flags().StringVar(&source, "source", "", "source jurisdiction: UK or ZA")
	cmd.Flags().StringVar(&amount, "amount", "", "income amount")
	cmd.Flags().StringVar(&otherIncome, "other-income", "0", "other income in the taxing jurisdiction")
	cmd.Flags().StringVar(&asset, "asset", string(domain.AssetGeneral), "asset class for capital gains: general or property")
	cmd.Flags().IntVar(&age, "age", 0, "taxpayer age")
	cmd.Flags().BoolVar(&residentUK, "resident-uk", false, "tax resident in the UK")
	cmd.Flags().BoolVar(&residentZA, "resident-za", false, "tax resident in ZA")
	cmd.Flags().BoolVar(&homeUK, "home-uk", false, "permanent home in the UK")
	cmd.Flags().BoolVar(&homeZA, "home-za", false, "permanent home in ZA")
	cmd.Flags().BoolVar(&vitalUK, "vital-uk", false, "centre of vital interests in the UK")
	cmd.Flags().BoolVar(&vitalZA, "vital-za", false, "centre of vital interests in ZA")
	cmd.Flags().BoolVar(&abodeUK, "abode-uk", false, "habitual abode in the UK")
	cmd.Flags().BoolVar(&abodeZA, "abode-za", false, "habitual abode in ZA")
	cmd.Flags().BoolVar(&nationalUK, "national-uk", false, "UK national")
	cmd.Flags().BoolVar(&nationalZA, "national-za", false, "ZA national")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("amount")
	return cmd
}
