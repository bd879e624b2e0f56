package domain

import "fmt"

// Jurisdiction identifies one of the two tax regimes the engine computes for.
// The set is closed: every switch over it handles both members explicitly so
// that adding a third jurisdiction forces each call site to be revisited.
type Jurisdiction string

const (
	// UK is the United Kingdom regime: tapered personal allowance,
	// flat-rate capital gains, stacked dividend bands.
	UK Jurisdiction = "UK"
	// ZA is the South African regime: age rebates instead of an allowance,
	// inclusion-rate capital gains, flat dividend rate after exemption.
	ZA Jurisdiction = "ZA"
)

// ParseJurisdiction converts a string code into a Jurisdiction.
func ParseJurisdiction(code string) (Jurisdiction, error) {
	switch Jurisdiction(code) {
	case UK:
		return UK, nil
	case ZA:
		return ZA, nil
	default:
		return "", NewValidationError("jurisdiction", fmt.Sprintf("unknown jurisdiction code %q, expected UK or ZA", code))
	}
}

// Other returns the opposite jurisdiction.
func (j Jurisdiction) Other() Jurisdiction {
	if j == UK {
		return ZA
	}
	return UK
}

// Currency identifies the settlement currency of a monetary amount.
type Currency string

const (
	// GBP is pound sterling, the UK home currency.
	GBP Currency = "GBP"
	// ZAR is the South African rand.
	ZAR Currency = "ZAR"
)

// ParseCurrency converts a string code into a Currency.
func ParseCurrency(code string) (Currency, error) {
	switch Currency(code) {
	case GBP:
		return GBP, nil
	case ZAR:
		return ZAR, nil
	default:
		return "", NewValidationError("currency", fmt.Sprintf("unknown currency code %q, expected GBP or ZAR", code))
	}
}

// Other returns the opposite settlement currency.
func (c Currency) Other() Currency {
	if c == GBP {
		return ZAR
	}
	return GBP
}

// HomeCurrency returns the jurisdiction's settlement currency.
func (j Jurisdiction) HomeCurrency() Currency {
	if j == UK {
		return GBP
	}
	return ZAR
}

// CGTMethod selects the capital-gains methodology a jurisdiction applies.
type CGTMethod string

const (
	// FlatRateAfterExemption subtracts the annual exempt amount then taxes
	// the remainder at a flat rate from the {basic,higher}x{general,property}
	// matrix (UK style).
	FlatRateAfterExemption CGTMethod = "flat_rate_after_exemption"
	// InclusionRateAfterExemption subtracts the annual exclusion, includes a
	// fraction of the remainder into ordinary income and taxes it at the
	// marginal rate it lands in (ZA style).
	InclusionRateAfterExemption CGTMethod = "inclusion_rate_after_exemption"
)

// DividendMethod selects how a jurisdiction taxes dividend income.
type DividendMethod string

const (
	// DividendFlatAfterExemption applies a fixed annual exemption then a
	// single flat rate (ZA style).
	DividendFlatAfterExemption DividendMethod = "flat_after_exemption"
	// DividendStackedBands consumes an allowance first, then stacks the
	// remainder on top of other taxable income and taxes each slice at the
	// dividend rate of the income band it falls into (UK style).
	DividendStackedBands DividendMethod = "stacked_bands"
)

// AssetClass categorizes a disposed asset for both the UK CGT rate matrix and
// the treaty's situs rule for capital gains.
type AssetClass string

const (
	// AssetGeneral covers shares and other movable assets.
	AssetGeneral AssetClass = "general"
	// AssetProperty covers immovable and business property.
	AssetProperty AssetClass = "property"
)

// IncomeType categorizes income for treaty relief allocation.
type IncomeType string

const (
	IncomeEmployment        IncomeType = "employment"
	IncomeDividends         IncomeType = "dividends"
	IncomeInterest          IncomeType = "interest"
	IncomeCapitalGains      IncomeType = "capital_gains"
	IncomePrivatePension    IncomeType = "private_pension"
	IncomeGovernmentPension IncomeType = "government_pension"
)

// ParseIncomeType converts a string code into an IncomeType.
func ParseIncomeType(code string) (IncomeType, error) {
	switch IncomeType(code) {
	case IncomeEmployment, IncomeDividends, IncomeInterest, IncomeCapitalGains,
		IncomePrivatePension, IncomeGovernmentPension:
		return IncomeType(code), nil
	default:
		return "", NewValidationError("income_type", fmt.Sprintf("unknown income type %q", code))
	}
}
