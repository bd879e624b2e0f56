package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

// TaxBand is one progressive bracket of a jurisdiction's income-tax schedule.
// Upper is nil for the open top band. CumulativeAtLower is the total tax on
// income exactly at the band's lower bound, precomputed when the table is
// published and verified by Validate rather than recomputed at call time.
type TaxBand struct {
	Lower             moneypkg.Money
	Upper             *moneypkg.Money
	Rate              decimal.Decimal
	CumulativeAtLower moneypkg.Money
}

// BandTable is the ordered bracket schedule for one jurisdiction and tax
// year. Tables are immutable once published.
type BandTable []TaxBand

// Validate checks the structural invariants of a band table: ascending,
// contiguous, non-overlapping bands, exactly one open top band, and
// cumulative-at-lower figures that agree with the widths and rates of the
// preceding bands.
func (bt BandTable) Validate() error {
	if len(bt) == 0 {
		return fmt.Errorf("band table is empty")
	}
	if !bt[0].Lower.IsZero() {
		return fmt.Errorf("first band must start at zero, starts at %s", bt[0].Lower)
	}
	cumulative := moneypkg.Zero()
	for i, band := range bt {
		if band.Rate.IsNegative() || band.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("band %d rate %s is outside [0,1]", i, band.Rate)
		}
		if !band.CumulativeAtLower.Equal(cumulative) {
			return fmt.Errorf("band %d cumulative_at_lower is %s, expected %s from preceding bands",
				i, band.CumulativeAtLower, cumulative)
		}
		if band.Upper == nil {
			if i != len(bt)-1 {
				return fmt.Errorf("band %d has no upper bound but is not the top band", i)
			}
			continue
		}
		if band.Upper.LessThanOrEqual(band.Lower) {
			return fmt.Errorf("band %d upper bound %s is not above lower bound %s", i, band.Upper, band.Lower)
		}
		if i == len(bt)-1 {
			return fmt.Errorf("top band must have no upper bound")
		}
		if !bt[i+1].Lower.Equal(*band.Upper) {
			return fmt.Errorf("band %d upper bound %s does not meet band %d lower bound %s",
				i, band.Upper, i+1, bt[i+1].Lower)
		}
		width := band.Upper.Sub(band.Lower)
		cumulative = cumulative.Add(width.MulRate(band.Rate))
	}
	return nil
}

// MarginalRate returns the rate of the band the given taxable amount falls
// into. An amount exactly on a boundary belongs to the higher band, matching
// the band-walk convention that a band covers (lower, upper].
func (bt BandTable) MarginalRate(taxable moneypkg.Money) decimal.Decimal {
	for _, band := range bt {
		if band.Upper == nil || taxable.LessThanOrEqual(*band.Upper) {
			if taxable.GreaterThan(band.Lower) || band.Lower.IsZero() {
				return band.Rate
			}
		}
	}
	return bt[len(bt)-1].Rate
}

// RebateStep grants a fixed rebate to taxpayers at or above a minimum age.
// Steps are additive: a 75-year-old receives every step with MinAge <= 75.
type RebateStep struct {
	MinAge int
	Amount moneypkg.Money
}

// RebateRule is an age-indexed step function producing a rebate subtracted
// from gross tax, floored at zero by the calculator.
type RebateRule struct {
	Steps []RebateStep
}

// RebateFor returns the total rebate for a taxpayer of the given age. A nil
// age qualifies only for steps with MinAge zero.
func (r RebateRule) RebateFor(age *int) moneypkg.Money {
	total := moneypkg.Zero()
	for _, step := range r.Steps {
		if step.MinAge == 0 || (age != nil && *age >= step.MinAge) {
			total = total.Add(step.Amount)
		}
	}
	return total
}

// AllowanceRule is a base tax-free allowance with an optional taper that
// withdraws it at TaperRate per unit of income above TaperThreshold.
type AllowanceRule struct {
	Base           moneypkg.Money
	TaperThreshold *moneypkg.Money
	TaperRate      decimal.Decimal
}

// EffectiveFor computes the allowance available at a gross income level,
// floored at zero.
func (a AllowanceRule) EffectiveFor(grossIncome moneypkg.Money) moneypkg.Money {
	if a.TaperThreshold == nil || grossIncome.LessThanOrEqual(*a.TaperThreshold) {
		return a.Base
	}
	excess := grossIncome.Sub(*a.TaperThreshold)
	return a.Base.Sub(excess.MulRate(a.TaperRate)).FloorZero()
}

// DividendRules holds a jurisdiction's dividend taxation parameters. FlatRate
// applies under DividendFlatAfterExemption; StackedRates align index-for-index
// with the income band table under DividendStackedBands.
type DividendRules struct {
	Method       DividendMethod
	Exemption    moneypkg.Money
	FlatRate     decimal.Decimal
	StackedRates []decimal.Decimal
}

// CGTRules holds a jurisdiction's capital-gains parameters. The flat-rate
// matrix fields apply under FlatRateAfterExemption; the inclusion rates apply
// under InclusionRateAfterExemption.
type CGTRules struct {
	Method                  CGTMethod
	AnnualExclusion         moneypkg.Money
	BasicRateGeneral        decimal.Decimal
	HigherRateGeneral       decimal.Decimal
	BasicRateProperty       decimal.Decimal
	HigherRateProperty      decimal.Decimal
	InclusionRateIndividual decimal.Decimal
	InclusionRateCorporate  decimal.Decimal
}

// TreatyRules holds the withholding caps the source country may apply under
// the double-tax agreement.
type TreatyRules struct {
	DividendWithholdingCap decimal.Decimal
	InterestWithholdingCap decimal.Decimal
}

// TaxYearTables bundles every published rule table for one jurisdiction and
// tax year. Instances are immutable once constructed; the calculators only
// read them.
type TaxYearTables struct {
	Jurisdiction Jurisdiction
	TaxYear      string
	Bands        BandTable
	Rebates      RebateRule
	Allowance    AllowanceRule
	Dividends    DividendRules
	CapitalGains CGTRules
	Treaty       TreatyRules
}

// Validate checks the internal consistency of the full table set.
func (t *TaxYearTables) Validate() error {
	if t.Jurisdiction != UK && t.Jurisdiction != ZA {
		return fmt.Errorf("unknown jurisdiction %q", t.Jurisdiction)
	}
	if t.TaxYear == "" {
		return fmt.Errorf("tax year is required")
	}
	if err := t.Bands.Validate(); err != nil {
		return fmt.Errorf("band table: %w", err)
	}
	if t.Dividends.Method == DividendStackedBands && len(t.Dividends.StackedRates) != len(t.Bands) {
		return fmt.Errorf("stacked dividend rates count %d does not match band count %d",
			len(t.Dividends.StackedRates), len(t.Bands))
	}
	if t.CapitalGains.Method == InclusionRateAfterExemption && t.CapitalGains.InclusionRateIndividual.IsZero() {
		return fmt.Errorf("inclusion-rate method requires an individual inclusion rate")
	}
	return nil
}
