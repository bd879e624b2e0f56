package domain

import (
	"time"

	"github.com/shopspring/decimal"

	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

// TaxLot is one purchase batch of a holding. The cost basis is captured in
// both settlement currencies at purchase time using the FX rate of that day,
// so later disposals never need to re-source historical rates. Lots are
// created on purchase, have RemainingQuantity decremented only by the ledger
// on disposal, and are retained after closing for audit.
type TaxLot struct {
	LotID             string          `json:"lot_id"`
	HoldingID         string          `json:"holding_id"`
	PurchaseDate      time.Time       `json:"purchase_date"`
	Sequence          int             `json:"sequence"`
	OriginalQuantity  decimal.Decimal `json:"original_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	UnitCost          moneypkg.Money  `json:"unit_cost"`
	CostCurrency      Currency        `json:"cost_currency"`
	CostBasisGBP      moneypkg.Money  `json:"cost_basis_gbp"`
	CostBasisZAR      moneypkg.Money  `json:"cost_basis_zar"`
	FXRateAtPurchase  decimal.Decimal `json:"fx_rate_at_purchase"`
}

// CostBasisIn returns the lot's total cost basis converted into the given
// currency at the purchase-date rate.
func (l *TaxLot) CostBasisIn(currency Currency) moneypkg.Money {
	if currency == GBP {
		return l.CostBasisGBP
	}
	return l.CostBasisZAR
}

// Open reports whether the lot still has unconsumed quantity.
func (l *TaxLot) Open() bool {
	return l.RemainingQuantity.IsPositive()
}

// Disposal is a request to sell quantity units of a holding at SalePrice per
// unit on SaleDate. FXRateAtSale converts the sale currency into the other
// settlement currency for cross-border reporting.
type Disposal struct {
	HoldingID    string
	Quantity     decimal.Decimal
	SalePrice    moneypkg.Money
	SaleCurrency Currency
	SaleDate     time.Time
	FXRateAtSale decimal.Decimal
}

// TotalProceeds returns quantity times unit sale price.
func (d Disposal) TotalProceeds() moneypkg.Money {
	return d.SalePrice.Mul(d.Quantity)
}

// RealizedGainFragment records the consumption of part or all of one lot by
// one disposal. Proceeds are apportioned pro-rata by quantity from the
// disposal's total sale value. The gain is recorded in both settlement
// currencies: proceeds convert at the sale-date FX rate, the cost basis uses
// the dual basis captured on the lot at purchase. Fragments are write-once,
// append-only records.
type RealizedGainFragment struct {
	LotID              string          `json:"lot_id"`
	QuantityConsumed   decimal.Decimal `json:"quantity_consumed"`
	ProceedsAllocated  moneypkg.Money  `json:"proceeds_allocated"`
	CostBasisAllocated moneypkg.Money  `json:"cost_basis_allocated"`
	GainOrLoss         moneypkg.Money  `json:"gain_or_loss"`
	GainGBP            moneypkg.Money  `json:"gain_gbp"`
	GainZAR            moneypkg.Money  `json:"gain_zar"`
	Currency           Currency        `json:"currency"`
	TaxYearUK          string          `json:"tax_year_uk"`
	TaxYearZA          string          `json:"tax_year_za"`
}

// RealizedGainSummary aggregates the fragments of one disposal into the
// realized-gain total that feeds the capital-gains calculator. TotalGain is
// in the sale currency; the per-currency totals carry the same gain in each
// jurisdiction's settlement currency.
type RealizedGainSummary struct {
	HoldingID      string                 `json:"holding_id"`
	Quantity       decimal.Decimal        `json:"quantity"`
	TotalProceeds  moneypkg.Money         `json:"total_proceeds"`
	TotalCostBasis moneypkg.Money         `json:"total_cost_basis"`
	TotalGain      moneypkg.Money         `json:"total_gain"`
	TotalGainGBP   moneypkg.Money         `json:"total_gain_gbp"`
	TotalGainZAR   moneypkg.Money         `json:"total_gain_zar"`
	Currency       Currency               `json:"currency"`
	TaxYearUK      string                 `json:"tax_year_uk"`
	TaxYearZA      string                 `json:"tax_year_za"`
	Fragments      []RealizedGainFragment `json:"fragments"`
}
