// Package calculation implements the pure tax calculators: progressive
// income tax, capital gains under both methodologies, dividend tax, and
// double-tax-agreement relief across the two jurisdictions. Every calculator
// is a stateless function over immutable rule tables and request values, safe
// for unsynchronized concurrent use.
package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dualtax/tax-engine/internal/domain"
	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

// IncomeTaxCalculator applies one jurisdiction/year's band table, allowance
// taper and age rebates to a gross income amount.
type IncomeTaxCalculator struct {
	tables *domain.TaxYearTables
}

// NewIncomeTaxCalculator creates an income-tax calculator over published
// tables for one (jurisdiction, tax year).
func NewIncomeTaxCalculator(tables *domain.TaxYearTables) *IncomeTaxCalculator {
	return &IncomeTaxCalculator{tables: tables}
}

// Compute calculates the income tax owed on a gross income. The age is
// optional; it only matters in jurisdictions with age-indexed rebates.
func (c *IncomeTaxCalculator) Compute(grossIncome moneypkg.Money, age *int) (*domain.IncomeTaxResult, error) {
	if grossIncome.IsNegative() {
		return nil, domain.NewValidationError("gross_income",
			fmt.Sprintf("must not be negative, got %s", grossIncome))
	}
	if age != nil && (*age < 0 || *age > 130) {
		return nil, domain.NewValidationError("age", fmt.Sprintf("must be between 0 and 130, got %d", *age))
	}

	allowance := c.tables.Allowance.EffectiveFor(grossIncome)
	allowance = moneypkg.Min(allowance, grossIncome)
	taxable := grossIncome.Sub(allowance).FloorZero()

	grossTax, bands := walkBands(c.tables.Bands, moneypkg.Zero(), taxable, nil)

	rebate := c.tables.Rebates.RebateFor(age)
	rebate = moneypkg.Min(rebate, grossTax)
	taxOwed := grossTax.Sub(rebate).FloorZero().Round()

	return &domain.IncomeTaxResult{
		Jurisdiction:     c.tables.Jurisdiction,
		TaxYear:          c.tables.TaxYear,
		GrossIncome:      grossIncome,
		AllowanceApplied: allowance,
		TaxableIncome:    taxable,
		RebateApplied:    rebate,
		TaxOwed:          taxOwed,
		EffectiveRate:    effectiveRate(taxOwed, grossIncome),
		MarginalRate:     c.tables.Bands.MarginalRate(taxable),
		Bands:            bands,
	}, nil
}

// walkBands allocates the interval (from, to] of taxable income across the
// band table in ascending order, charging each slice at the band's rate. A
// non-nil rate override replaces each band's own rate index-for-index, which
// is how the stacked dividend schedule reuses the walk. Returns the total tax
// and the per-band breakdown of slices actually charged.
func walkBands(table domain.BandTable, from, to moneypkg.Money, rateOverride []decimal.Decimal) (moneypkg.Money, []domain.BandBreakdown) {
	total := moneypkg.Zero()
	var breakdown []domain.BandBreakdown
	for i, band := range table {
		if to.LessThanOrEqual(band.Lower) {
			break
		}
		sliceLower := moneypkg.Max(from, band.Lower)
		sliceUpper := to
		if band.Upper != nil {
			sliceUpper = moneypkg.Min(to, *band.Upper)
		}
		overlap := sliceUpper.Sub(sliceLower)
		if !overlap.IsPositive() {
			continue
		}
		rate := band.Rate
		if rateOverride != nil {
			rate = rateOverride[i]
		}
		tax := overlap.MulRate(rate)
		total = total.Add(tax)
		breakdown = append(breakdown, domain.BandBreakdown{
			Lower:  band.Lower,
			Upper:  band.Upper,
			Rate:   rate,
			Amount: overlap,
			Tax:    tax.Round(),
		})
	}
	return total, breakdown
}

// effectiveRate divides tax by the base amount, returning zero for a zero
// base rather than dividing by zero.
func effectiveRate(tax, base moneypkg.Money) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return tax.Decimal.DivRound(base.Decimal, 6)
}
