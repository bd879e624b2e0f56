package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dualtax/tax-engine/internal/domain"
	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

// tablesFile is the YAML schema of an external table file. Monetary fields
// are strings so they decode through shopspring decimals, never floats.
type tablesFile struct {
	Tables []tableEntry `yaml:"tables" validate:"required,min=1,dive"`
}

type tableEntry struct {
	Jurisdiction string           `yaml:"jurisdiction" validate:"required,oneof=UK ZA"`
	TaxYear      string           `yaml:"tax_year" validate:"required"`
	Bands        []bandEntry      `yaml:"bands" validate:"required,min=1,dive"`
	Rebates      []rebateEntry    `yaml:"rebates" validate:"dive"`
	Allowance    *allowanceEntry  `yaml:"allowance"`
	Dividends    dividendEntry    `yaml:"dividends" validate:"required"`
	CapitalGains capitalGainEntry `yaml:"capital_gains" validate:"required"`
	Treaty       treatyEntry      `yaml:"treaty"`
}

type bandEntry struct {
	Lower             string  `yaml:"lower" validate:"required"`
	Upper             *string `yaml:"upper"`
	Rate              string  `yaml:"rate" validate:"required"`
	CumulativeAtLower string  `yaml:"cumulative_at_lower" validate:"required"`
}

type rebateEntry struct {
	MinAge int    `yaml:"min_age" validate:"gte=0,lte=130"`
	Amount string `yaml:"amount" validate:"required"`
}

type allowanceEntry struct {
	Base           string  `yaml:"base" validate:"required"`
	TaperThreshold *string `yaml:"taper_threshold"`
	TaperRate      string  `yaml:"taper_rate"`
}

type dividendEntry struct {
	Method       string   `yaml:"method" validate:"required,oneof=flat_after_exemption stacked_bands"`
	Exemption    string   `yaml:"exemption" validate:"required"`
	FlatRate     string   `yaml:"flat_rate"`
	StackedRates []string `yaml:"stacked_rates"`
}

type capitalGainEntry struct {
	Method                  string `yaml:"method" validate:"required,oneof=flat_rate_after_exemption inclusion_rate_after_exemption"`
	AnnualExclusion         string `yaml:"annual_exclusion" validate:"required"`
	BasicRateGeneral        string `yaml:"basic_rate_general"`
	HigherRateGeneral       string `yaml:"higher_rate_general"`
	BasicRateProperty       string `yaml:"basic_rate_property"`
	HigherRateProperty      string `yaml:"higher_rate_property"`
	InclusionRateIndividual string `yaml:"inclusion_rate_individual"`
	InclusionRateCorporate  string `yaml:"inclusion_rate_corporate"`
}

type treatyEntry struct {
	DividendWithholdingCap string `yaml:"dividend_withholding_cap"`
	InterestWithholdingCap string `yaml:"interest_withholding_cap"`
}

// Loader parses external table files into domain tables.
type Loader struct {
	validate *validator.Validate
}

// NewLoader creates a table file loader.
func NewLoader() *Loader {
	return &Loader{validate: validator.New()}
}

// LoadFile reads a YAML table file and returns a registry containing its
// tables. Structural validation (struct tags) runs before semantic
// validation (band contiguity, cumulative consistency) so error messages
// point at the narrowest failure first.
func (l *Loader) LoadFile(filename string) (*Registry, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read table file %s: %w", filename, err)
	}

	var file tablesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse table file %s: %w", filename, err)
	}
	if err := l.validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("table file %s failed validation: %w", filename, err)
	}

	registry := NewRegistry()
	for i, entry := range file.Tables {
		tables, err := convertEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("table entry %d (%s %s): %w", i, entry.Jurisdiction, entry.TaxYear, err)
		}
		if err := registry.Register(tables); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func convertEntry(entry tableEntry) (*domain.TaxYearTables, error) {
	jurisdiction, err := domain.ParseJurisdiction(entry.Jurisdiction)
	if err != nil {
		return nil, err
	}

	tables := &domain.TaxYearTables{
		Jurisdiction: jurisdiction,
		TaxYear:      entry.TaxYear,
	}

	for i, b := range entry.Bands {
		band := domain.TaxBand{}
		if band.Lower, err = moneypkg.NewFromString(b.Lower); err != nil {
			return nil, fmt.Errorf("band %d lower: %w", i, err)
		}
		if b.Upper != nil {
			upper, err := moneypkg.NewFromString(*b.Upper)
			if err != nil {
				return nil, fmt.Errorf("band %d upper: %w", i, err)
			}
			band.Upper = &upper
		}
		if band.Rate, err = decimal.NewFromString(b.Rate); err != nil {
			return nil, fmt.Errorf("band %d rate: %w", i, err)
		}
		if band.CumulativeAtLower, err = moneypkg.NewFromString(b.CumulativeAtLower); err != nil {
			return nil, fmt.Errorf("band %d cumulative_at_lower: %w", i, err)
		}
		tables.Bands = append(tables.Bands, band)
	}

	for i, r := range entry.Rebates {
		amount, err := moneypkg.NewFromString(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("rebate %d amount: %w", i, err)
		}
		tables.Rebates.Steps = append(tables.Rebates.Steps, domain.RebateStep{MinAge: r.MinAge, Amount: amount})
	}

	if entry.Allowance != nil {
		if tables.Allowance.Base, err = moneypkg.NewFromString(entry.Allowance.Base); err != nil {
			return nil, fmt.Errorf("allowance base: %w", err)
		}
		if entry.Allowance.TaperThreshold != nil {
			threshold, err := moneypkg.NewFromString(*entry.Allowance.TaperThreshold)
			if err != nil {
				return nil, fmt.Errorf("allowance taper_threshold: %w", err)
			}
			tables.Allowance.TaperThreshold = &threshold
			if tables.Allowance.TaperRate, err = decimal.NewFromString(entry.Allowance.TaperRate); err != nil {
				return nil, fmt.Errorf("allowance taper_rate: %w", err)
			}
		}
	}

	tables.Dividends.Method = domain.DividendMethod(entry.Dividends.Method)
	if tables.Dividends.Exemption, err = moneypkg.NewFromString(entry.Dividends.Exemption); err != nil {
		return nil, fmt.Errorf("dividend exemption: %w", err)
	}
	if entry.Dividends.FlatRate != "" {
		if tables.Dividends.FlatRate, err = decimal.NewFromString(entry.Dividends.FlatRate); err != nil {
			return nil, fmt.Errorf("dividend flat_rate: %w", err)
		}
	}
	for i, s := range entry.Dividends.StackedRates {
		stacked, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("dividend stacked_rates[%d]: %w", i, err)
		}
		tables.Dividends.StackedRates = append(tables.Dividends.StackedRates, stacked)
	}

	cg := &tables.CapitalGains
	cg.Method = domain.CGTMethod(entry.CapitalGains.Method)
	if cg.AnnualExclusion, err = moneypkg.NewFromString(entry.CapitalGains.AnnualExclusion); err != nil {
		return nil, fmt.Errorf("capital gains annual_exclusion: %w", err)
	}
	for _, field := range []struct {
		value  string
		target *decimal.Decimal
		name   string
	}{
		{entry.CapitalGains.BasicRateGeneral, &cg.BasicRateGeneral, "basic_rate_general"},
		{entry.CapitalGains.HigherRateGeneral, &cg.HigherRateGeneral, "higher_rate_general"},
		{entry.CapitalGains.BasicRateProperty, &cg.BasicRateProperty, "basic_rate_property"},
		{entry.CapitalGains.HigherRateProperty, &cg.HigherRateProperty, "higher_rate_property"},
		{entry.CapitalGains.InclusionRateIndividual, &cg.InclusionRateIndividual, "inclusion_rate_individual"},
		{entry.CapitalGains.InclusionRateCorporate, &cg.InclusionRateCorporate, "inclusion_rate_corporate"},
		{entry.Treaty.DividendWithholdingCap, &tables.Treaty.DividendWithholdingCap, "dividend_withholding_cap"},
		{entry.Treaty.InterestWithholdingCap, &tables.Treaty.InterestWithholdingCap, "interest_withholding_cap"},
	} {
		if field.value == "" {
			continue
		}
		if *field.target, err = decimal.NewFromString(field.value); err != nil {
			return nil, fmt.Errorf("%s: %w", field.name, err)
		}
	}

	return tables, nil
}
