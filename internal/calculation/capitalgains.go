package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dualtax/tax-engine/internal/domain"
	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

// CapitalGainsCalculator applies one jurisdiction/year's annual exclusion and
// capital-gains methodology to a realized-gain total. Under the inclusion
// methodology it leans on the income-tax calculator, taxing the gain at the
// marginal rate it pushes the taxpayer into rather than a flat rate.
type CapitalGainsCalculator struct {
	tables *domain.TaxYearTables
	income *IncomeTaxCalculator
}

// NewCapitalGainsCalculator creates a capital-gains calculator over published
// tables for one (jurisdiction, tax year).
func NewCapitalGainsCalculator(tables *domain.TaxYearTables) *CapitalGainsCalculator {
	return &CapitalGainsCalculator{
		tables: tables,
		income: NewIncomeTaxCalculator(tables),
	}
}

// Compute calculates the capital-gains tax owed on total gains for a tax
// year, given how much of the annual exclusion earlier disposals already
// consumed.
func (c *CapitalGainsCalculator) Compute(totalGains, exclusionUsed moneypkg.Money, taxpayer domain.TaxpayerContext) (*domain.CGTResult, error) {
	if totalGains.IsNegative() {
		return nil, domain.NewValidationError("total_gains",
			fmt.Sprintf("must not be negative, got %s", totalGains))
	}
	if exclusionUsed.IsNegative() {
		return nil, domain.NewValidationError("exclusion_already_used",
			fmt.Sprintf("must not be negative, got %s", exclusionUsed))
	}

	rules := c.tables.CapitalGains
	remainingExclusion := rules.AnnualExclusion.Sub(exclusionUsed).FloorZero()
	exclusionApplied := moneypkg.Min(totalGains, remainingExclusion)
	taxableGain := totalGains.Sub(exclusionApplied)

	result := &domain.CGTResult{
		Jurisdiction:  c.tables.Jurisdiction,
		TaxYear:       c.tables.TaxYear,
		TotalGains:    totalGains,
		ExclusionUsed: exclusionApplied,
		TaxableGain:   taxableGain,
	}

	// Fully absorbed by the exclusion: the zero path stays exact and never
	// invokes the income calculator.
	if taxableGain.IsZero() {
		return result, nil
	}

	switch rules.Method {
	case domain.FlatRateAfterExemption:
		result.CGTOwed = taxableGain.MulRate(c.flatRate(taxpayer)).Round()
	case domain.InclusionRateAfterExemption:
		inclusionRate := rules.InclusionRateIndividual
		if taxpayer.Corporate {
			inclusionRate = rules.InclusionRateCorporate
		}
		included := taxableGain.MulRate(inclusionRate)
		result.IncludedAmount = included

		withGain, err := c.income.Compute(taxpayer.OtherTaxableIncome.Add(included), taxpayer.Age)
		if err != nil {
			return nil, err
		}
		withoutGain, err := c.income.Compute(taxpayer.OtherTaxableIncome, taxpayer.Age)
		if err != nil {
			return nil, err
		}
		result.CGTOwed = withGain.TaxOwed.Sub(withoutGain.TaxOwed).FloorZero().Round()
	default:
		return nil, domain.NewValidationError("cgt_method", fmt.Sprintf("unknown methodology %q", rules.Method))
	}

	result.EffectiveRate = effectiveRate(result.CGTOwed, totalGains)
	return result, nil
}

// flatRate picks from the {basic,higher} x {general,property} rate matrix.
func (c *CapitalGainsCalculator) flatRate(taxpayer domain.TaxpayerContext) decimal.Decimal {
	rules := c.tables.CapitalGains
	if taxpayer.AssetClass == domain.AssetProperty {
		if taxpayer.HigherRate {
			return rules.HigherRateProperty
		}
		return rules.BasicRateProperty
	}
	if taxpayer.HigherRate {
		return rules.HigherRateGeneral
	}
	return rules.BasicRateGeneral
}
