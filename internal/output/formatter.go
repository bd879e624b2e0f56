// Package output renders calculator results for the CLI: a human-readable
// console form and a machine-readable JSON form. Formatters are pure; the
// command layer decides where the bytes go.
package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dualtax/tax-engine/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

func percent(rate decimal.Decimal) string {
	return rate.Mul(oneHundred).StringFixed(2)
}

// FormatJSON renders any result value as indented JSON. Monetary fields
// marshal through their decimal string forms, never floats.
func FormatJSON(result any) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return append(data, '\n'), nil
}

// FormatIncomeTax renders an income-tax result for the console.
func FormatIncomeTax(r *domain.IncomeTaxResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Income tax (%s %s)\n", r.Jurisdiction, r.TaxYear)
	fmt.Fprintf(&b, "  Gross income:    %s\n", r.GrossIncome)
	fmt.Fprintf(&b, "  Allowance:       %s\n", r.AllowanceApplied)
	fmt.Fprintf(&b, "  Taxable income:  %s\n", r.TaxableIncome)
	writeBands(&b, r.Bands)
	fmt.Fprintf(&b, "  Rebate applied:  %s\n", r.RebateApplied)
	fmt.Fprintf(&b, "  Tax owed:        %s (effective %s%%, marginal %s%%)\n",
		r.TaxOwed, percent(r.EffectiveRate), percent(r.MarginalRate))
	return b.String()
}

// FormatCapitalGains renders a capital-gains result for the console.
func FormatCapitalGains(r *domain.CGTResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Capital gains tax (%s %s)\n", r.Jurisdiction, r.TaxYear)
	fmt.Fprintf(&b, "  Total gains:     %s\n", r.TotalGains)
	fmt.Fprintf(&b, "  Exclusion used:  %s\n", r.ExclusionUsed)
	fmt.Fprintf(&b, "  Taxable gain:    %s\n", r.TaxableGain)
	if !r.IncludedAmount.IsZero() {
		fmt.Fprintf(&b, "  Included amount: %s\n", r.IncludedAmount)
	}
	fmt.Fprintf(&b, "  CGT owed:        %s (effective %s%%)\n", r.CGTOwed, percent(r.EffectiveRate))
	return b.String()
}

// FormatDividendTax renders a dividend-tax result for the console.
func FormatDividendTax(r *domain.DividendTaxResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dividend tax (%s %s)\n", r.Jurisdiction, r.TaxYear)
	fmt.Fprintf(&b, "  Dividend income:   %s\n", r.DividendIncome)
	fmt.Fprintf(&b, "  Allowance used:    %s\n", r.AllowanceUsed)
	fmt.Fprintf(&b, "  Taxable dividends: %s\n", r.TaxableDividends)
	writeBands(&b, r.Bands)
	fmt.Fprintf(&b, "  Tax owed:          %s\n", r.TaxOwed)
	return b.String()
}

// FormatTreatyRelief renders a DTA relief result for the console.
func FormatTreatyRelief(r *domain.DTAResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Treaty relief (%s)\n", r.IncomeType)
	fmt.Fprintf(&b, "  Residence:           %s\n", r.Residence)
	fmt.Fprintf(&b, "  Source tax:          %s\n", r.SourceTax)
	fmt.Fprintf(&b, "  Residence tax gross: %s\n", r.ResidenceTaxGross)
	fmt.Fprintf(&b, "  Foreign tax credit:  %s\n", r.ForeignTaxCredit)
	fmt.Fprintf(&b, "  Residence tax net:   %s\n", r.ResidenceTaxNet)
	fmt.Fprintf(&b, "  Total net tax:       %s\n", r.TotalNetTax)
	fmt.Fprintf(&b, "  %s\n", r.Explanation)
	return b.String()
}

// FormatRealizedGains renders a disposal summary for the console.
func FormatRealizedGains(r *domain.RealizedGainSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Disposal: holding %s (%s)\n", r.HoldingID, r.Currency)
	fmt.Fprintf(&b, "  Quantity:   %s across %d lots\n", r.Quantity, len(r.Fragments))
	for _, f := range r.Fragments {
		fmt.Fprintf(&b, "    lot %s: %s units, proceeds %s, basis %s, gain %s\n",
			shortID(f.LotID), f.QuantityConsumed, f.ProceedsAllocated, f.CostBasisAllocated, f.GainOrLoss)
	}
	fmt.Fprintf(&b, "  Proceeds:   %s\n", r.TotalProceeds)
	fmt.Fprintf(&b, "  Cost basis: %s\n", r.TotalCostBasis)
	fmt.Fprintf(&b, "  Gain:       %s (GBP %s, ZAR %s)\n", r.TotalGain, r.TotalGainGBP, r.TotalGainZAR)
	fmt.Fprintf(&b, "  Tax years:  UK %s, ZA %s\n", r.TaxYearUK, r.TaxYearZA)
	return b.String()
}

func writeBands(b *strings.Builder, bands []domain.BandBreakdown) {
	for _, band := range bands {
		if band.Upper == nil {
			fmt.Fprintf(b, "    band %s and above @ %s%%: %s on %s\n",
				band.Lower, percent(band.Rate), band.Tax, band.Amount)
			continue
		}
		fmt.Fprintf(b, "    band %s to %s @ %s%%: %s on %s\n",
			band.Lower, band.Upper, percent(band.Rate), band.Tax, band.Amount)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
