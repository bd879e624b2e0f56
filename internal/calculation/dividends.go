package calculation

import (
	"fmt"

	"github.com/dualtax/tax-engine/internal/domain"
	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

// DividendTaxCalculator applies one jurisdiction/year's dividend rules. The
// flat variant subtracts the annual exemption and taxes the rest at a single
// rate; the stacked variant consumes the allowance first, then stacks the
// remainder on top of other taxable income and charges each slice at the
// dividend rate of the income band it lands in.
type DividendTaxCalculator struct {
	tables *domain.TaxYearTables
}

// NewDividendTaxCalculator creates a dividend-tax calculator over published
// tables for one (jurisdiction, tax year).
func NewDividendTaxCalculator(tables *domain.TaxYearTables) *DividendTaxCalculator {
	return &DividendTaxCalculator{tables: tables}
}

// Compute calculates the dividend tax owed. otherIncome is required by the
// stacked methodology, where dividends are taxed as the top slice of income;
// the flat methodology ignores it.
func (c *DividendTaxCalculator) Compute(dividends, exemptionUsed moneypkg.Money, otherIncome *moneypkg.Money) (*domain.DividendTaxResult, error) {
	if dividends.IsNegative() {
		return nil, domain.NewValidationError("dividend_income",
			fmt.Sprintf("must not be negative, got %s", dividends))
	}
	if exemptionUsed.IsNegative() {
		return nil, domain.NewValidationError("exemption_already_used",
			fmt.Sprintf("must not be negative, got %s", exemptionUsed))
	}

	rules := c.tables.Dividends
	remaining := rules.Exemption.Sub(exemptionUsed).FloorZero()
	allowanceUsed := moneypkg.Min(dividends, remaining)
	taxableDividends := dividends.Sub(allowanceUsed)

	result := &domain.DividendTaxResult{
		Jurisdiction:     c.tables.Jurisdiction,
		TaxYear:          c.tables.TaxYear,
		DividendIncome:   dividends,
		AllowanceUsed:    allowanceUsed,
		TaxableDividends: taxableDividends,
	}
	if taxableDividends.IsZero() {
		return result, nil
	}

	switch rules.Method {
	case domain.DividendFlatAfterExemption:
		result.TaxOwed = taxableDividends.MulRate(rules.FlatRate).Round()
	case domain.DividendStackedBands:
		other := moneypkg.Zero()
		if otherIncome != nil {
			if otherIncome.IsNegative() {
				return nil, domain.NewValidationError("other_income",
					fmt.Sprintf("must not be negative, got %s", otherIncome))
			}
			other = *otherIncome
		}
		// Dividends sit on top of other income, so position the slice at the
		// taxpayer's other taxable income after the personal allowance.
		allowance := c.tables.Allowance.EffectiveFor(other.Add(dividends))
		otherTaxable := other.Sub(allowance).FloorZero()
		tax, bands := walkBands(c.tables.Bands, otherTaxable, otherTaxable.Add(taxableDividends), rules.StackedRates)
		result.TaxOwed = tax.Round()
		result.Bands = bands
	default:
		return nil, domain.NewValidationError("dividend_method", fmt.Sprintf("unknown methodology %q", rules.Method))
	}

	return result, nil
}
