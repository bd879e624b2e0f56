package calculation

import (
	"github.com/dualtax/tax-engine/internal/config"
	"github.com/dualtax/tax-engine/internal/domain"
	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

// Engine is the entry point collaborators invoke: it resolves the published
// tables for a requested (jurisdiction, tax year) and dispatches to the pure
// calculators. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	registry *config.Registry
	logger   Logger
}

// NewEngine creates an engine over a table registry. A nil logger defaults to
// the no-op logger.
func NewEngine(registry *config.Registry, logger Logger) *Engine {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Engine{registry: registry, logger: logger}
}

// ComputeIncomeTax computes progressive income tax for one jurisdiction and
// tax year.
func (e *Engine) ComputeIncomeTax(jurisdiction domain.Jurisdiction, taxYear string, grossIncome moneypkg.Money, age *int) (*domain.IncomeTaxResult, error) {
	tables, err := e.registry.Lookup(jurisdiction, taxYear)
	if err != nil {
		return nil, err
	}
	return NewIncomeTaxCalculator(tables).Compute(grossIncome, age)
}

// ComputeCapitalGains computes capital-gains tax on a realized-gain total.
func (e *Engine) ComputeCapitalGains(jurisdiction domain.Jurisdiction, taxYear string, totalGains, exclusionUsed moneypkg.Money, taxpayer domain.TaxpayerContext) (*domain.CGTResult, error) {
	tables, err := e.registry.Lookup(jurisdiction, taxYear)
	if err != nil {
		return nil, err
	}
	return NewCapitalGainsCalculator(tables).Compute(totalGains, exclusionUsed, taxpayer)
}

// ComputeDividendTax computes dividend tax; otherIncome is required by the
// stacked-band methodology and ignored by the flat one.
func (e *Engine) ComputeDividendTax(jurisdiction domain.Jurisdiction, taxYear string, dividends, exemptionUsed moneypkg.Money, otherIncome *moneypkg.Money) (*domain.DividendTaxResult, error) {
	tables, err := e.registry.Lookup(jurisdiction, taxYear)
	if err != nil {
		return nil, err
	}
	return NewDividendTaxCalculator(tables).Compute(dividends, exemptionUsed, otherIncome)
}

// ComputeTreatyRelief computes double-tax-agreement relief for one income
// item, using the same tax-year label for both jurisdictions' tables.
func (e *Engine) ComputeTreatyRelief(taxYear string, input TreatyInput) (*domain.DTAResult, error) {
	uk, err := e.registry.Lookup(domain.UK, taxYear)
	if err != nil {
		return nil, err
	}
	za, err := e.registry.Lookup(domain.ZA, taxYear)
	if err != nil {
		return nil, err
	}
	result, err := NewTreatyCalculator(uk, za).ComputeRelief(input)
	if err != nil {
		return nil, err
	}
	e.logger.Debugf("treaty relief %s: residence=%s source=%s credit=%s total=%s",
		input.IncomeType, result.Residence, result.SourceTax, result.ForeignTaxCredit, result.TotalNetTax)
	return result, nil
}
