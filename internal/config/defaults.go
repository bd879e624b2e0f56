package config

import (
	"github.com/shopspring/decimal"

	"github.com/dualtax/tax-engine/internal/domain"
	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

func money(value string) moneypkg.Money {
	return moneypkg.RequireFromString(value)
}

func moneyPtr(value string) *moneypkg.Money {
	m := moneypkg.RequireFromString(value)
	return &m
}

func rate(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// DefaultUK2024 builds the published UK tables for the 2024-25 tax year.
// Bands apply to taxable income after the personal allowance, which tapers
// away at 50p per pound of income above 100,000.
func DefaultUK2024() *domain.TaxYearTables {
	return &domain.TaxYearTables{
		Jurisdiction: domain.UK,
		TaxYear:      "2024-25",
		Bands: domain.BandTable{
			{Lower: money("0"), Upper: moneyPtr("37700"), Rate: rate("0.20"), CumulativeAtLower: money("0")},
			{Lower: money("37700"), Upper: moneyPtr("125140"), Rate: rate("0.40"), CumulativeAtLower: money("7540")},
			{Lower: money("125140"), Upper: nil, Rate: rate("0.45"), CumulativeAtLower: money("42516")},
		},
		Allowance: domain.AllowanceRule{
			Base:           money("12570"),
			TaperThreshold: moneyPtr("100000"),
			TaperRate:      rate("0.5"),
		},
		Dividends: domain.DividendRules{
			Method:       domain.DividendStackedBands,
			Exemption:    money("500"),
			StackedRates: []decimal.Decimal{rate("0.0875"), rate("0.3375"), rate("0.3935")},
		},
		CapitalGains: domain.CGTRules{
			Method:             domain.FlatRateAfterExemption,
			AnnualExclusion:    money("3000"),
			BasicRateGeneral:   rate("0.10"),
			HigherRateGeneral:  rate("0.20"),
			BasicRateProperty:  rate("0.18"),
			HigherRateProperty: rate("0.24"),
		},
		Treaty: domain.TreatyRules{
			DividendWithholdingCap: rate("0.15"),
			InterestWithholdingCap: rate("0"),
		},
	}
}

// DefaultZA2024 builds the published ZA tables for the 2024-25 year of
// assessment. Bands apply to gross income; relief comes from the age rebates
// rather than an allowance.
func DefaultZA2024() *domain.TaxYearTables {
	return &domain.TaxYearTables{
		Jurisdiction: domain.ZA,
		TaxYear:      "2024-25",
		Bands: domain.BandTable{
			{Lower: money("0"), Upper: moneyPtr("237100"), Rate: rate("0.18"), CumulativeAtLower: money("0")},
			{Lower: money("237100"), Upper: moneyPtr("370500"), Rate: rate("0.26"), CumulativeAtLower: money("42678")},
			{Lower: money("370500"), Upper: moneyPtr("512800"), Rate: rate("0.31"), CumulativeAtLower: money("77362")},
			{Lower: money("512800"), Upper: moneyPtr("673000"), Rate: rate("0.36"), CumulativeAtLower: money("121475")},
			{Lower: money("673000"), Upper: moneyPtr("857900"), Rate: rate("0.39"), CumulativeAtLower: money("179147")},
			{Lower: money("857900"), Upper: moneyPtr("1817000"), Rate: rate("0.41"), CumulativeAtLower: money("251258")},
			{Lower: money("1817000"), Upper: nil, Rate: rate("0.45"), CumulativeAtLower: money("644489")},
		},
		Rebates: domain.RebateRule{
			Steps: []domain.RebateStep{
				{MinAge: 0, Amount: money("17235")},
				{MinAge: 65, Amount: money("9444")},
				{MinAge: 75, Amount: money("3145")},
			},
		},
		Dividends: domain.DividendRules{
			Method:    domain.DividendFlatAfterExemption,
			Exemption: money("23800"),
			FlatRate:  rate("0.20"),
		},
		CapitalGains: domain.CGTRules{
			Method:                  domain.InclusionRateAfterExemption,
			AnnualExclusion:         money("40000"),
			InclusionRateIndividual: rate("0.40"),
			InclusionRateCorporate:  rate("0.80"),
		},
		Treaty: domain.TreatyRules{
			DividendWithholdingCap: rate("0.15"),
			InterestWithholdingCap: rate("0"),
		},
	}
}

// DefaultRegistry returns a registry preloaded with the built-in 2024-25
// tables for both jurisdictions.
func DefaultRegistry() (*Registry, error) {
	registry := NewRegistry()
	for _, tables := range []*domain.TaxYearTables{DefaultUK2024(), DefaultZA2024()} {
		if err := registry.Register(tables); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
