// Package lots implements the FIFO tax-lot ledger: purchase lots per holding
// consumed oldest-first on disposal, producing the realized-gain records that
// feed the capital-gains calculator. It is the one stateful component of the
// engine; everything else is pure.
package lots

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dualtax/tax-engine/internal/calculation"
	"github.com/dualtax/tax-engine/internal/domain"
	"github.com/dualtax/tax-engine/pkg/dateutil"
	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

// holding is the arena for one holding's lots and disposal history. Its
// mutex serializes the read-modify-write of lot quantities: two disposals of
// the same holding must not interleave their selection and decrement steps,
// or a lot's remaining quantity gets double-counted.
type holding struct {
	mu        sync.Mutex
	lots      []*domain.TaxLot
	disposals []*domain.RealizedGainSummary
	nextSeq   int
}

// Ledger holds every holding's lots, keyed by holding ID. Disposals of
// different holdings proceed fully in parallel; no cross-holding lock exists.
type Ledger struct {
	mu       sync.RWMutex
	holdings map[string]*holding
	logger   calculation.Logger
}

// NewLedger creates an empty lot ledger. A nil logger defaults to the no-op
// logger.
func NewLedger(logger calculation.Logger) *Ledger {
	if logger == nil {
		logger = calculation.NopLogger{}
	}
	return &Ledger{holdings: make(map[string]*holding), logger: logger}
}

// AddPurchase opens a new lot for a holding: quantity units at unitCost each
// in costCurrency. The cost basis is captured in both settlement currencies
// immediately, using the purchase-date FX rate (units of the other currency
// per unit of costCurrency), so disposals never re-source historical rates.
func (l *Ledger) AddPurchase(holdingID string, purchaseDate time.Time, quantity decimal.Decimal, unitCost moneypkg.Money, costCurrency domain.Currency, fxRate decimal.Decimal) (*domain.TaxLot, error) {
	if holdingID == "" {
		return nil, domain.NewValidationError("holding_id", "must not be empty")
	}
	if !quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", fmt.Sprintf("must be positive, got %s", quantity))
	}
	if unitCost.IsNegative() {
		return nil, domain.NewValidationError("unit_cost", fmt.Sprintf("must not be negative, got %s", unitCost))
	}
	if _, err := domain.ParseCurrency(string(costCurrency)); err != nil {
		return nil, err
	}
	if !fxRate.IsPositive() {
		return nil, domain.NewValidationError("fx_rate", fmt.Sprintf("must be positive, got %s", fxRate))
	}

	h := l.holdingFor(holdingID, true)
	h.mu.Lock()
	defer h.mu.Unlock()

	basisNative := unitCost.Mul(quantity)
	basisConverted := basisNative.MulRate(fxRate)
	lot := &domain.TaxLot{
		LotID:             uuid.NewString(),
		HoldingID:         holdingID,
		PurchaseDate:      purchaseDate,
		Sequence:          h.nextSeq,
		OriginalQuantity:  quantity,
		RemainingQuantity: quantity,
		UnitCost:          unitCost,
		CostCurrency:      costCurrency,
		FXRateAtPurchase:  fxRate,
	}
	if costCurrency == domain.GBP {
		lot.CostBasisGBP = basisNative
		lot.CostBasisZAR = basisConverted
	} else {
		lot.CostBasisZAR = basisNative
		lot.CostBasisGBP = basisConverted
	}
	h.nextSeq++
	h.lots = append(h.lots, lot)
	// FIFO consumption order: purchase date ascending, insertion sequence as
	// the stable tie-breaker.
	sort.SliceStable(h.lots, func(i, j int) bool {
		if h.lots[i].PurchaseDate.Equal(h.lots[j].PurchaseDate) {
			return h.lots[i].Sequence < h.lots[j].Sequence
		}
		return h.lots[i].PurchaseDate.Before(h.lots[j].PurchaseDate)
	})

	l.logger.Debugf("opened lot %s for holding %s: %s units at %s %s",
		lot.LotID, holdingID, quantity, unitCost, costCurrency)
	return lot, nil
}

// RecordDisposal consumes the holding's open lots oldest-first to satisfy the
// disposal, producing one realized-gain fragment per lot consumed. The
// operation is atomic: fragments are planned against a snapshot of the lot
// state, validated, and only then committed; a plan that does not reconcile
// aborts with no mutation. Context cancellation is honored before the lock is
// acquired; once acquired the operation runs to completion, since stopping
// mid-mutation would corrupt lot state.
func (l *Ledger) RecordDisposal(ctx context.Context, disposal domain.Disposal) (*domain.RealizedGainSummary, error) {
	if err := validateDisposal(disposal); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := l.holdingFor(disposal.HoldingID, false)
	if h == nil {
		return nil, domain.NewValidationError("holding_id",
			fmt.Sprintf("unknown holding %q", disposal.HoldingID))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	available := decimal.Zero
	for _, lot := range h.lots {
		if lot.RemainingQuantity.IsNegative() {
			err := domain.NewConsistencyError(disposal.HoldingID,
				fmt.Sprintf("lot %s has negative remaining quantity %s", lot.LotID, lot.RemainingQuantity))
			l.logger.Errorf("%s", err.Internal())
			return nil, err
		}
		available = available.Add(lot.RemainingQuantity)
	}
	if disposal.Quantity.GreaterThan(available) {
		return nil, domain.NewValidationError("quantity",
			fmt.Sprintf("cannot sell %s, only %s available", disposal.Quantity, available))
	}

	// Plan phase: decide every lot consumption against snapshot quantities.
	type consumption struct {
		lot      *domain.TaxLot
		quantity decimal.Decimal
	}
	var plan []consumption
	toConsume := disposal.Quantity
	for _, lot := range h.lots {
		if !toConsume.IsPositive() {
			break
		}
		if !lot.Open() {
			continue
		}
		take := decimal.Min(lot.RemainingQuantity, toConsume)
		plan = append(plan, consumption{lot: lot, quantity: take})
		toConsume = toConsume.Sub(take)
	}
	if !toConsume.IsZero() {
		// The availability check above guarantees full consumption; reaching
		// here means the lot state changed out from under the lock.
		err := domain.NewConsistencyError(disposal.HoldingID,
			fmt.Sprintf("disposal plan left %s units unconsumed", toConsume))
		l.logger.Errorf("%s", err.Internal())
		return nil, err
	}

	// Commit phase: apply every decrement and build the fragments. Each
	// fragment's gain is recorded in both settlement currencies: proceeds
	// convert at the sale-date FX rate, the cost basis comes from the dual
	// basis captured on the lot at purchase.
	taxYearUK := dateutil.UKTaxYear(disposal.SaleDate)
	taxYearZA := dateutil.ZATaxYear(disposal.SaleDate)
	otherCurrency := disposal.SaleCurrency.Other()
	summary := &domain.RealizedGainSummary{
		HoldingID: disposal.HoldingID,
		Quantity:  disposal.Quantity,
		Currency:  disposal.SaleCurrency,
		TaxYearUK: taxYearUK,
		TaxYearZA: taxYearZA,
	}
	for _, step := range plan {
		step.lot.RemainingQuantity = step.lot.RemainingQuantity.Sub(step.quantity)

		proceeds := disposal.SalePrice.Mul(step.quantity)
		proceedsOther := proceeds.MulRate(disposal.FXRateAtSale)
		basis := step.lot.CostBasisIn(disposal.SaleCurrency).Div(step.lot.OriginalQuantity).Mul(step.quantity)
		basisOther := step.lot.CostBasisIn(otherCurrency).Div(step.lot.OriginalQuantity).Mul(step.quantity)
		fragment := domain.RealizedGainFragment{
			LotID:              step.lot.LotID,
			QuantityConsumed:   step.quantity,
			ProceedsAllocated:  proceeds.Round(),
			CostBasisAllocated: basis.Round(),
			GainOrLoss:         proceeds.Sub(basis).Round(),
			Currency:           disposal.SaleCurrency,
			TaxYearUK:          taxYearUK,
			TaxYearZA:          taxYearZA,
		}
		gainOther := proceedsOther.Sub(basisOther).Round()
		if disposal.SaleCurrency == domain.GBP {
			fragment.GainGBP = fragment.GainOrLoss
			fragment.GainZAR = gainOther
		} else {
			fragment.GainZAR = fragment.GainOrLoss
			fragment.GainGBP = gainOther
		}
		summary.Fragments = append(summary.Fragments, fragment)
		summary.TotalProceeds = summary.TotalProceeds.Add(fragment.ProceedsAllocated)
		summary.TotalCostBasis = summary.TotalCostBasis.Add(fragment.CostBasisAllocated)
		summary.TotalGain = summary.TotalGain.Add(fragment.GainOrLoss)
		summary.TotalGainGBP = summary.TotalGainGBP.Add(fragment.GainGBP)
		summary.TotalGainZAR = summary.TotalGainZAR.Add(fragment.GainZAR)
	}
	h.disposals = append(h.disposals, summary)

	l.logger.Infof("disposal on holding %s: %s units for %s %s across %d lots, gain %s %s",
		disposal.HoldingID, disposal.Quantity, disposal.TotalProceeds(), disposal.SaleCurrency,
		len(summary.Fragments), summary.TotalGain, summary.Currency)
	return summary, nil
}

// RemainingQuantity returns the total unconsumed quantity across a holding's
// lots. Unknown holdings report zero.
func (l *Ledger) RemainingQuantity(holdingID string) decimal.Decimal {
	h := l.holdingFor(holdingID, false)
	if h == nil {
		return decimal.Zero
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	total := decimal.Zero
	for _, lot := range h.lots {
		total = total.Add(lot.RemainingQuantity)
	}
	return total
}

// Lots returns copies of a holding's lots in FIFO order, closed lots
// included; closed lots are retained for audit.
func (l *Ledger) Lots(holdingID string) []domain.TaxLot {
	h := l.holdingFor(holdingID, false)
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.TaxLot, len(h.lots))
	for i, lot := range h.lots {
		out[i] = *lot
	}
	return out
}

// RealizedGain sums the realized gains of a jurisdiction's tax year across
// all holdings, in that jurisdiction's home currency: GBP for UK, ZAR for ZA.
// Mixed-currency disposals aggregate correctly because every fragment carries
// its gain in both settlement currencies. This is the aggregate that flows
// into the capital-gains calculator.
func (l *Ledger) RealizedGain(jurisdiction domain.Jurisdiction, taxYear string) moneypkg.Money {
	l.mu.RLock()
	holdings := make([]*holding, 0, len(l.holdings))
	for _, h := range l.holdings {
		holdings = append(holdings, h)
	}
	l.mu.RUnlock()

	total := moneypkg.Zero()
	for _, h := range holdings {
		h.mu.Lock()
		for _, summary := range h.disposals {
			year := summary.TaxYearUK
			gain := summary.TotalGainGBP
			if jurisdiction == domain.ZA {
				year = summary.TaxYearZA
				gain = summary.TotalGainZAR
			}
			if year == taxYear {
				total = total.Add(gain)
			}
		}
		h.mu.Unlock()
	}
	return total
}

func validateDisposal(d domain.Disposal) error {
	if d.HoldingID == "" {
		return domain.NewValidationError("holding_id", "must not be empty")
	}
	if !d.Quantity.IsPositive() {
		return domain.NewValidationError("quantity", fmt.Sprintf("must be positive, got %s", d.Quantity))
	}
	if d.SalePrice.IsNegative() {
		return domain.NewValidationError("sale_price", fmt.Sprintf("must not be negative, got %s", d.SalePrice))
	}
	if _, err := domain.ParseCurrency(string(d.SaleCurrency)); err != nil {
		return err
	}
	if d.SaleDate.IsZero() {
		return domain.NewValidationError("sale_date", "must be set")
	}
	if !d.FXRateAtSale.IsPositive() {
		return domain.NewValidationError("fx_rate", fmt.Sprintf("must be positive, got %s", d.FXRateAtSale))
	}
	return nil
}

// holdingFor returns the holding arena for an ID, creating it when create is
// set.
func (l *Ledger) holdingFor(holdingID string, create bool) *holding {
	l.mu.RLock()
	h, ok := l.holdings[holdingID]
	l.mu.RUnlock()
	if ok || !create {
		return h
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok = l.holdings[holdingID]; ok {
		return h
	}
	h = &holding{}
	l.holdings[holdingID] = h
	return h
}
