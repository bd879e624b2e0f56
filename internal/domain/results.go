package domain

import (
	"github.com/shopspring/decimal"

	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

// BandBreakdown reports the income allocated to one band and the tax charged
// on it during a band walk.
type BandBreakdown struct {
	Lower  moneypkg.Money  `json:"lower"`
	Upper  *moneypkg.Money `json:"upper,omitempty"`
	Rate   decimal.Decimal `json:"rate"`
	Amount moneypkg.Money  `json:"amount"`
	Tax    moneypkg.Money  `json:"tax"`
}

// IncomeTaxResult is the outcome of a progressive income-tax computation.
type IncomeTaxResult struct {
	Jurisdiction     Jurisdiction    `json:"jurisdiction"`
	TaxYear          string          `json:"tax_year"`
	GrossIncome      moneypkg.Money  `json:"gross_income"`
	AllowanceApplied moneypkg.Money  `json:"allowance_applied"`
	TaxableIncome    moneypkg.Money  `json:"taxable_income"`
	RebateApplied    moneypkg.Money  `json:"rebate_applied"`
	TaxOwed          moneypkg.Money  `json:"tax_owed"`
	EffectiveRate    decimal.Decimal `json:"effective_rate"`
	MarginalRate     decimal.Decimal `json:"marginal_rate"`
	Bands            []BandBreakdown `json:"bands,omitempty"`
}

// CGTResult is the outcome of a capital-gains computation under either
// methodology.
type CGTResult struct {
	Jurisdiction   Jurisdiction    `json:"jurisdiction"`
	TaxYear        string          `json:"tax_year"`
	TotalGains     moneypkg.Money  `json:"total_gains"`
	ExclusionUsed  moneypkg.Money  `json:"exclusion_used"`
	TaxableGain    moneypkg.Money  `json:"taxable_gain"`
	IncludedAmount moneypkg.Money  `json:"included_amount"`
	CGTOwed        moneypkg.Money  `json:"cgt_owed"`
	EffectiveRate  decimal.Decimal `json:"effective_rate"`
}

// TaxpayerContext carries the caller-supplied taxpayer facts the capital
// gains methodologies need: the rate band and asset class select the flat
// rate, and other income anchors the marginal-rate difference under the
// inclusion method.
type TaxpayerContext struct {
	HigherRate         bool
	Corporate          bool
	AssetClass         AssetClass
	OtherTaxableIncome moneypkg.Money
	Age                *int
}

// DividendTaxResult is the outcome of a dividend-tax computation.
type DividendTaxResult struct {
	Jurisdiction     Jurisdiction    `json:"jurisdiction"`
	TaxYear          string          `json:"tax_year"`
	DividendIncome   moneypkg.Money  `json:"dividend_income"`
	AllowanceUsed    moneypkg.Money  `json:"allowance_used"`
	TaxableDividends moneypkg.Money  `json:"taxable_dividends"`
	TaxOwed          moneypkg.Money  `json:"tax_owed"`
	Bands            []BandBreakdown `json:"bands,omitempty"`
}

// Residence is the terminal outcome of the treaty tie-breaker cascade.
type Residence string

const (
	// ResidenceUK resolves sole treaty residence to the UK.
	ResidenceUK Residence = "UK"
	// ResidenceZA resolves sole treaty residence to South Africa.
	ResidenceZA Residence = "ZA"
	// ResidenceUndetermined means the cascade exhausted every test without a
	// unique answer; resolution requires competent-authority agreement. This
	// is a deliberate terminal non-answer, not an error.
	ResidenceUndetermined Residence = "UNDETERMINED"
)

// CountryFacts are the residence-relevant facts a taxpayer has in one
// country, consumed by the tie-breaker cascade in order.
type CountryFacts struct {
	PermanentHome          bool
	CentreOfVitalInterests bool
	HabitualAbode          bool
	National               bool
}

// ResidenceFlags describes a taxpayer's residence position in both
// jurisdictions for treaty relief.
type ResidenceFlags struct {
	ResidentUK bool
	ResidentZA bool
	FactsUK    CountryFacts
	FactsZA    CountryFacts
}

// DTAResult is the outcome of a double-tax-agreement relief computation.
// ForeignTaxCredit never exceeds min(SourceTax, ResidenceTaxGross): relief is
// capped at both sides' actual liability.
type DTAResult struct {
	IncomeType        IncomeType     `json:"income_type"`
	Residence         Residence      `json:"residence"`
	SourceTax         moneypkg.Money `json:"source_tax"`
	ResidenceTaxGross moneypkg.Money `json:"residence_tax_gross"`
	ForeignTaxCredit  moneypkg.Money `json:"foreign_tax_credit"`
	ResidenceTaxNet   moneypkg.Money `json:"residence_tax_net"`
	TotalNetTax       moneypkg.Money `json:"total_net_tax"`
	Explanation       string         `json:"explanation"`
}
