package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dualtax/tax-engine/internal/domain"
	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

var hundred = decimal.NewFromInt(100)

// TreatyInput describes one item of cross-border income for relief
// computation: what kind of income, where it arises, how much, and the
// taxpayer's residence position in both countries. Amounts are expressed in
// a single currency; FX conversion happens upstream of this calculator.
type TreatyInput struct {
	IncomeType  domain.IncomeType
	Source      domain.Jurisdiction
	Amount      moneypkg.Money
	OtherIncome moneypkg.Money
	Age         *int
	AssetClass  domain.AssetClass
	Taxpayer    domain.TaxpayerContext
	Flags       domain.ResidenceFlags
}

// TreatyCalculator combines both jurisdictions' raw calculators to allocate
// taxing rights and foreign-tax credit under the double-tax agreement. It is
// pure: both table sets are immutable and every computation is a function of
// the input alone.
type TreatyCalculator struct {
	uk *domain.TaxYearTables
	za *domain.TaxYearTables
}

// NewTreatyCalculator creates a treaty calculator over one tax year's tables
// for each jurisdiction.
func NewTreatyCalculator(uk, za *domain.TaxYearTables) *TreatyCalculator {
	return &TreatyCalculator{uk: uk, za: za}
}

// ComputeRelief allocates source and residence tax for one income item and
// grants the foreign-tax credit, capped at min(source tax, residence gross
// liability) so relief never exceeds either side's actual claim.
func (tc *TreatyCalculator) ComputeRelief(input TreatyInput) (*domain.DTAResult, error) {
	if input.Amount.IsNegative() {
		return nil, domain.NewValidationError("amount",
			fmt.Sprintf("must not be negative, got %s", input.Amount))
	}
	if _, err := domain.ParseIncomeType(string(input.IncomeType)); err != nil {
		return nil, err
	}
	if input.Source != domain.UK && input.Source != domain.ZA {
		return nil, domain.NewValidationError("source", fmt.Sprintf("unknown source jurisdiction %q", input.Source))
	}
	if !input.Flags.ResidentUK && !input.Flags.ResidentZA {
		return nil, domain.NewValidationError("residence_flags",
			"taxpayer is resident in neither jurisdiction; the treaty does not apply")
	}

	switch {
	case input.Flags.ResidentUK && input.Flags.ResidentZA:
		residence, step := TieBreak(input.Flags)
		if residence == domain.ResidenceUndetermined {
			return tc.dualResident(input)
		}
		result, err := tc.singleResidence(input, jurisdictionOf(residence))
		if err != nil {
			return nil, err
		}
		result.Explanation = fmt.Sprintf("dual residence resolved to %s by %s; %s", residence, step, result.Explanation)
		return result, nil
	case input.Flags.ResidentUK:
		return tc.singleResidence(input, domain.UK)
	default:
		return tc.singleResidence(input, domain.ZA)
	}
}

// singleResidence computes the three-way allocation for a taxpayer resident
// only in the given jurisdiction: worldwide income taxed there, source-country
// tax on source income, and a credit capped at both liabilities.
func (tc *TreatyCalculator) singleResidence(input TreatyInput, residence domain.Jurisdiction) (*domain.DTAResult, error) {
	result := &domain.DTAResult{
		IncomeType: input.IncomeType,
		Residence:  residenceOf(residence),
	}

	crossBorder := input.Source != residence

	switch input.IncomeType {
	case domain.IncomeEmployment:
		residenceTax, err := tc.incrementalIncomeTax(residence, input)
		if err != nil {
			return nil, err
		}
		result.ResidenceTaxGross = residenceTax
		if crossBorder {
			sourceTax, err := tc.incrementalIncomeTax(input.Source, input)
			if err != nil {
				return nil, err
			}
			result.SourceTax = sourceTax
			result.Explanation = "employment income taxed in both states, residence credit for source tax"
		} else {
			result.Explanation = "employment income arising in the residence state, taxed there only"
		}

	case domain.IncomeDividends, domain.IncomeInterest:
		residenceTax, err := tc.investmentIncomeTax(residence, input)
		if err != nil {
			return nil, err
		}
		result.ResidenceTaxGross = residenceTax
		if crossBorder {
			cap := tc.tablesFor(input.Source).Treaty.DividendWithholdingCap
			if input.IncomeType == domain.IncomeInterest {
				cap = tc.tablesFor(input.Source).Treaty.InterestWithholdingCap
			}
			result.SourceTax = input.Amount.MulRate(cap).Round()
			result.Explanation = fmt.Sprintf("source withholding capped at %s%% by treaty, residence taxes the gross amount",
				cap.Mul(hundred).StringFixed(2))
		} else {
			result.Explanation = "investment income arising in the residence state, taxed there only"
		}

	case domain.IncomeCapitalGains:
		// Situs rule: immovable and business property is taxed where it
		// stands; shares and other assets are taxed in the residence state.
		if input.AssetClass == domain.AssetProperty {
			sourceTax, err := tc.capitalGainsTax(input.Source, input)
			if err != nil {
				return nil, err
			}
			result.SourceTax = sourceTax
			result.Explanation = "gain on immovable or business property taxed where situated"
		} else {
			residenceTax, err := tc.capitalGainsTax(residence, input)
			if err != nil {
				return nil, err
			}
			result.ResidenceTaxGross = residenceTax
			result.Explanation = "gain on shares or other assets taxed in the residence state"
		}

	case domain.IncomePrivatePension:
		residenceTax, err := tc.incrementalIncomeTax(residence, input)
		if err != nil {
			return nil, err
		}
		result.ResidenceTaxGross = residenceTax
		result.Explanation = "private pension taxed in the residence state"

	case domain.IncomeGovernmentPension:
		sourceTax, err := tc.incrementalIncomeTax(input.Source, input)
		if err != nil {
			return nil, err
		}
		result.SourceTax = sourceTax
		result.Explanation = "government pension taxed in the paying state"
	}

	result.ForeignTaxCredit = moneypkg.Min(result.SourceTax, result.ResidenceTaxGross)
	if !crossBorder {
		result.ForeignTaxCredit = moneypkg.Zero()
	}
	result.ResidenceTaxNet = result.ResidenceTaxGross.Sub(result.ForeignTaxCredit)
	result.TotalNetTax = result.SourceTax.Add(result.ResidenceTaxNet)
	return result, nil
}

// dualResident is the terminal path when the tie-breaker cascade cannot
// resolve residence: each jurisdiction taxes the income independently, the
// credit is the smaller liability and the net is the larger, so neither
// sovereign claim is escaped but nothing is paid twice in full. The
// authoritative per-article allocation would need a resolved residence.
func (tc *TreatyCalculator) dualResident(input TreatyInput) (*domain.DTAResult, error) {
	sourceTax, err := tc.domesticTax(input.Source, input)
	if err != nil {
		return nil, err
	}
	otherTax, err := tc.domesticTax(input.Source.Other(), input)
	if err != nil {
		return nil, err
	}

	credit := moneypkg.Min(sourceTax, otherTax)
	return &domain.DTAResult{
		IncomeType:        input.IncomeType,
		Residence:         domain.ResidenceUndetermined,
		SourceTax:         sourceTax,
		ResidenceTaxGross: otherTax,
		ForeignTaxCredit:  credit,
		ResidenceTaxNet:   otherTax.Sub(credit),
		TotalNetTax:       moneypkg.Max(sourceTax, otherTax),
		Explanation:       "dual residence undetermined after tie-breaker cascade; liability is the greater of the two independent computations pending competent-authority agreement",
	}, nil
}

// domesticTax computes one jurisdiction's own tax on the income item,
// ignoring the treaty.
func (tc *TreatyCalculator) domesticTax(j domain.Jurisdiction, input TreatyInput) (moneypkg.Money, error) {
	switch input.IncomeType {
	case domain.IncomeDividends:
		return tc.investmentIncomeTax(j, input)
	case domain.IncomeCapitalGains:
		return tc.capitalGainsTax(j, input)
	default:
		return tc.incrementalIncomeTax(j, input)
	}
}

// incrementalIncomeTax computes the extra income tax the item causes in a
// jurisdiction on top of the taxpayer's other income. Crediting against the
// incremental rather than average liability keeps the credit cap aligned
// with what the income actually costs the taxpayer there.
func (tc *TreatyCalculator) incrementalIncomeTax(j domain.Jurisdiction, input TreatyInput) (moneypkg.Money, error) {
	calc := NewIncomeTaxCalculator(tc.tablesFor(j))
	with, err := calc.Compute(input.OtherIncome.Add(input.Amount), input.Age)
	if err != nil {
		return moneypkg.Zero(), err
	}
	without, err := calc.Compute(input.OtherIncome, input.Age)
	if err != nil {
		return moneypkg.Zero(), err
	}
	return with.TaxOwed.Sub(without.TaxOwed).FloorZero(), nil
}

// investmentIncomeTax computes a jurisdiction's dividend tax on the gross
// amount. Interest is routed through the income-tax schedule instead.
func (tc *TreatyCalculator) investmentIncomeTax(j domain.Jurisdiction, input TreatyInput) (moneypkg.Money, error) {
	if input.IncomeType == domain.IncomeInterest {
		return tc.incrementalIncomeTax(j, input)
	}
	calc := NewDividendTaxCalculator(tc.tablesFor(j))
	other := input.OtherIncome
	result, err := calc.Compute(input.Amount, moneypkg.Zero(), &other)
	if err != nil {
		return moneypkg.Zero(), err
	}
	return result.TaxOwed, nil
}

// capitalGainsTax computes a jurisdiction's capital-gains tax on the amount.
func (tc *TreatyCalculator) capitalGainsTax(j domain.Jurisdiction, input TreatyInput) (moneypkg.Money, error) {
	taxpayer := input.Taxpayer
	taxpayer.AssetClass = input.AssetClass
	if taxpayer.OtherTaxableIncome.IsZero() {
		taxpayer.OtherTaxableIncome = input.OtherIncome
	}
	if taxpayer.Age == nil {
		taxpayer.Age = input.Age
	}
	calc := NewCapitalGainsCalculator(tc.tablesFor(j))
	result, err := calc.Compute(input.Amount, moneypkg.Zero(), taxpayer)
	if err != nil {
		return moneypkg.Zero(), err
	}
	return result.CGTOwed, nil
}

func (tc *TreatyCalculator) tablesFor(j domain.Jurisdiction) *domain.TaxYearTables {
	if j == domain.UK {
		return tc.uk
	}
	return tc.za
}

func jurisdictionOf(r domain.Residence) domain.Jurisdiction {
	if r == domain.ResidenceUK {
		return domain.UK
	}
	return domain.ZA
}

func residenceOf(j domain.Jurisdiction) domain.Residence {
	if j == domain.UK {
		return domain.ResidenceUK
	}
	return domain.ResidenceZA
}
