package lots

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dualtax/tax-engine/internal/domain"
	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// TestDisposalConservation works the full purchase-then-two-sales cycle and
// checks that proceeds, basis and gain reconcile per fragment and in total.
func TestDisposalConservation(t *testing.T) {
	ledger := NewLedger(nil)

	_, err := ledger.AddPurchase("VOD", date(2024, time.May, 1), qty("100"), moneypkg.NewFromInt(50), domain.GBP, qty("23.5"))
	require.NoError(t, err)

	first, err := ledger.RecordDisposal(context.Background(), domain.Disposal{
		HoldingID:    "VOD",
		Quantity:     qty("40"),
		SalePrice:    moneypkg.NewFromInt(65),
		SaleCurrency: domain.GBP,
		SaleDate:     date(2024, time.September, 1),
		FXRateAtSale: qty("23.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2600.00", first.TotalProceeds.String())
	assert.Equal(t, "2000.00", first.TotalCostBasis.String())
	assert.Equal(t, "600.00", first.TotalGain.String())
	require.Len(t, first.Fragments, 1)

	second, err := ledger.RecordDisposal(context.Background(), domain.Disposal{
		HoldingID:    "VOD",
		Quantity:     qty("60"),
		SalePrice:    moneypkg.NewFromInt(70),
		SaleCurrency: domain.GBP,
		SaleDate:     date(2024, time.October, 1),
		FXRateAtSale: qty("23.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "1200.00", second.TotalGain.String())

	assert.True(t, ledger.RemainingQuantity("VOD").IsZero())
	assert.Equal(t, "1800.00", ledger.RealizedGain(domain.UK, "2024-25").String())
}

// TestFIFOOrdering checks that consumption follows purchase date, not
// insertion order, with the insertion sequence breaking same-day ties.
func TestFIFOOrdering(t *testing.T) {
	ledger := NewLedger(nil)

	later, err := ledger.AddPurchase("AGL", date(2024, time.June, 1), qty("10"), moneypkg.NewFromInt(200), domain.ZAR, qty("0.042"))
	require.NoError(t, err)
	earlier, err := ledger.AddPurchase("AGL", date(2024, time.January, 1), qty("10"), moneypkg.NewFromInt(100), domain.ZAR, qty("0.042"))
	require.NoError(t, err)

	summary, err := ledger.RecordDisposal(context.Background(), domain.Disposal{
		HoldingID:    "AGL",
		Quantity:     qty("15"),
		SalePrice:    moneypkg.NewFromInt(250),
		SaleCurrency: domain.ZAR,
		SaleDate:     date(2024, time.July, 1),
		FXRateAtSale: qty("0.042"),
	})
	require.NoError(t, err)
	require.Len(t, summary.Fragments, 2)
	assert.Equal(t, earlier.LotID, summary.Fragments[0].LotID, "oldest purchase consumed first")
	assert.True(t, summary.Fragments[0].QuantityConsumed.Equal(qty("10")))
	assert.Equal(t, later.LotID, summary.Fragments[1].LotID)
	assert.True(t, summary.Fragments[1].QuantityConsumed.Equal(qty("5")))

	// Same-day purchases fall back to insertion sequence.
	lots := ledger.Lots("AGL")
	require.Len(t, lots, 2)
	assert.Equal(t, earlier.LotID, lots[0].LotID)
}

// TestOversellRejectedAtomically checks that a disposal exceeding the open
// quantity is rejected without consuming anything.
func TestOversellRejectedAtomically(t *testing.T) {
	ledger := NewLedger(nil)

	_, err := ledger.AddPurchase("BP", date(2024, time.March, 1), qty("50"), moneypkg.NewFromInt(10), domain.GBP, qty("23"))
	require.NoError(t, err)

	_, err = ledger.RecordDisposal(context.Background(), domain.Disposal{
		HoldingID:    "BP",
		Quantity:     qty("80"),
		SalePrice:    moneypkg.NewFromInt(12),
		SaleCurrency: domain.GBP,
		SaleDate:     date(2024, time.April, 1),
		FXRateAtSale: qty("23"),
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)
	assert.Contains(t, verr.Reason, "only 50 available")

	assert.True(t, ledger.RemainingQuantity("BP").Equal(qty("50")), "failed disposal must not consume lots")
}

// TestDualCurrencyBasis checks that a lot purchased in one currency can be
// disposed in the other, with the gain recorded in both settlement
// currencies: proceeds convert at the sale-date rate, the basis uses the dual
// basis captured at purchase.
func TestDualCurrencyBasis(t *testing.T) {
	ledger := NewLedger(nil)

	// 10 units at 1000 ZAR with 0.04 GBP per ZAR: basis 10000 ZAR / 400 GBP.
	lot, err := ledger.AddPurchase("SOL", date(2024, time.February, 1), qty("10"), moneypkg.NewFromInt(1000), domain.ZAR, qty("0.04"))
	require.NoError(t, err)
	assert.Equal(t, "10000.00", lot.CostBasisZAR.String())
	assert.Equal(t, "400.00", lot.CostBasisGBP.String())

	// Sale in GBP at 24.4 ZAR per GBP: proceeds 500 GBP / 12200 ZAR.
	summary, err := ledger.RecordDisposal(context.Background(), domain.Disposal{
		HoldingID:    "SOL",
		Quantity:     qty("10"),
		SalePrice:    moneypkg.NewFromInt(50),
		SaleCurrency: domain.GBP,
		SaleDate:     date(2024, time.August, 1),
		FXRateAtSale: qty("24.4"),
	})
	require.NoError(t, err)
	assert.Equal(t, "500.00", summary.TotalProceeds.String())
	assert.Equal(t, "400.00", summary.TotalCostBasis.String())
	assert.Equal(t, "100.00", summary.TotalGain.String())
	assert.Equal(t, "100.00", summary.TotalGainGBP.String())
	assert.Equal(t, "2200.00", summary.TotalGainZAR.String()) // 12200 - 10000
}

// TestTaxYearTagging checks that one disposal lands in different tax years in
// the two jurisdictions when the sale date falls between their year starts.
func TestTaxYearTagging(t *testing.T) {
	ledger := NewLedger(nil)

	_, err := ledger.AddPurchase("GRT", date(2024, time.January, 15), qty("5"), moneypkg.NewFromInt(80), domain.ZAR, qty("0.04"))
	require.NoError(t, err)

	// 10 March 2025: after ZA's 1 March year start, before UK's 6 April.
	summary, err := ledger.RecordDisposal(context.Background(), domain.Disposal{
		HoldingID:    "GRT",
		Quantity:     qty("5"),
		SalePrice:    moneypkg.NewFromInt(95),
		SaleCurrency: domain.ZAR,
		SaleDate:     date(2025, time.March, 10),
		FXRateAtSale: qty("0.04"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-25", summary.TaxYearUK)
	assert.Equal(t, "2025-26", summary.TaxYearZA)

	// The UK view converts the 75 ZAR gain at the sale-date rate.
	assert.Equal(t, "3.00", ledger.RealizedGain(domain.UK, "2024-25").String())
	assert.True(t, ledger.RealizedGain(domain.ZA, "2024-25").IsZero())
	assert.Equal(t, "75.00", ledger.RealizedGain(domain.ZA, "2025-26").String())
}

// TestMixedCurrencyAggregation checks that the per-jurisdiction aggregate
// sums every disposal in that jurisdiction's home currency rather than adding
// raw amounts across currencies.
func TestMixedCurrencyAggregation(t *testing.T) {
	ledger := NewLedger(nil)

	// GBP holding: basis 100 GBP / 2300 ZAR, sold for 200 GBP / 4600 ZAR.
	_, err := ledger.AddPurchase("UKX", date(2024, time.April, 10), qty("10"), moneypkg.NewFromInt(10), domain.GBP, qty("23"))
	require.NoError(t, err)
	_, err = ledger.RecordDisposal(context.Background(), domain.Disposal{
		HoldingID:    "UKX",
		Quantity:     qty("10"),
		SalePrice:    moneypkg.NewFromInt(20),
		SaleCurrency: domain.GBP,
		SaleDate:     date(2024, time.June, 1),
		FXRateAtSale: qty("23"),
	})
	require.NoError(t, err)

	// ZAR holding: basis 1000 ZAR / 50 GBP, sold for 2000 ZAR / 100 GBP.
	_, err = ledger.AddPurchase("ZAX", date(2024, time.April, 10), qty("100"), moneypkg.NewFromInt(10), domain.ZAR, qty("0.05"))
	require.NoError(t, err)
	_, err = ledger.RecordDisposal(context.Background(), domain.Disposal{
		HoldingID:    "ZAX",
		Quantity:     qty("100"),
		SalePrice:    moneypkg.NewFromInt(20),
		SaleCurrency: domain.ZAR,
		SaleDate:     date(2024, time.June, 1),
		FXRateAtSale: qty("0.05"),
	})
	require.NoError(t, err)

	// UK view: 100 GBP + 50 GBP; ZA view: 2300 ZAR + 1000 ZAR.
	assert.Equal(t, "150.00", ledger.RealizedGain(domain.UK, "2024-25").String())
	assert.Equal(t, "3300.00", ledger.RealizedGain(domain.ZA, "2024-25").String())
}

// TestConcurrentDisposals hammers one holding from many goroutines and checks
// that quantities conserve exactly: every unit is sold once and only once.
func TestConcurrentDisposals(t *testing.T) {
	ledger := NewLedger(nil)

	_, err := ledger.AddPurchase("NED", date(2024, time.April, 1), qty("100"), moneypkg.NewFromInt(20), domain.ZAR, qty("0.04"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.RecordDisposal(context.Background(), domain.Disposal{
				HoldingID:    "NED",
				Quantity:     qty("10"),
				SalePrice:    moneypkg.NewFromInt(25),
				SaleCurrency: domain.ZAR,
				SaleDate:     date(2024, time.May, 1),
				FXRateAtSale: qty("0.04"),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, ledger.RemainingQuantity("NED").IsZero())
	// 10 disposals of 10 units each at a 5/unit gain.
	assert.Equal(t, "500.00", ledger.RealizedGain(domain.ZA, "2024-25").String())
}

func TestDisposalHonorsCancelledContext(t *testing.T) {
	ledger := NewLedger(nil)

	_, err := ledger.AddPurchase("OMU", date(2024, time.April, 1), qty("10"), moneypkg.NewFromInt(5), domain.ZAR, qty("0.04"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ledger.RecordDisposal(ctx, domain.Disposal{
		HoldingID:    "OMU",
		Quantity:     qty("5"),
		SalePrice:    moneypkg.NewFromInt(6),
		SaleCurrency: domain.ZAR,
		SaleDate:     date(2024, time.May, 1),
		FXRateAtSale: qty("0.04"),
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, ledger.RemainingQuantity("OMU").Equal(qty("10")))
}

func TestLedgerRejectsBadInput(t *testing.T) {
	ledger := NewLedger(nil)
	var verr *domain.ValidationError

	_, err := ledger.AddPurchase("", date(2024, time.April, 1), qty("1"), moneypkg.NewFromInt(1), domain.GBP, qty("1"))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "holding_id", verr.Field)

	_, err = ledger.AddPurchase("X", date(2024, time.April, 1), qty("0"), moneypkg.NewFromInt(1), domain.GBP, qty("1"))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)

	_, err = ledger.AddPurchase("X", date(2024, time.April, 1), qty("1"), moneypkg.NewFromInt(1), domain.Currency("USD"), qty("1"))
	require.ErrorAs(t, err, &verr)

	_, err = ledger.RecordDisposal(context.Background(), domain.Disposal{
		HoldingID:    "nowhere",
		Quantity:     qty("1"),
		SalePrice:    moneypkg.NewFromInt(1),
		SaleCurrency: domain.GBP,
		SaleDate:     date(2024, time.May, 1),
		FXRateAtSale: qty("1"),
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "holding_id", verr.Field)

	_, err = ledger.RecordDisposal(context.Background(), domain.Disposal{
		HoldingID:    "X",
		Quantity:     qty("1"),
		SalePrice:    moneypkg.NewFromInt(1),
		SaleCurrency: domain.GBP,
		SaleDate:     date(2024, time.May, 1),
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fx_rate", verr.Field)
}

// TestClosedLotsRetained checks that fully consumed lots stay visible for
// audit instead of being removed.
func TestClosedLotsRetained(t *testing.T) {
	ledger := NewLedger(nil)

	_, err := ledger.AddPurchase("SHP", date(2024, time.April, 1), qty("10"), moneypkg.NewFromInt(5), domain.ZAR, qty("0.04"))
	require.NoError(t, err)
	_, err = ledger.RecordDisposal(context.Background(), domain.Disposal{
		HoldingID:    "SHP",
		Quantity:     qty("10"),
		SalePrice:    moneypkg.NewFromInt(6),
		SaleCurrency: domain.ZAR,
		SaleDate:     date(2024, time.June, 1),
		FXRateAtSale: qty("0.04"),
	})
	require.NoError(t, err)

	lots := ledger.Lots("SHP")
	require.Len(t, lots, 1)
	assert.True(t, lots[0].RemainingQuantity.IsZero())
	assert.False(t, lots[0].Open())
}
