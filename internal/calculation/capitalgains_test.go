package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dualtax/tax-engine/internal/config"
	"github.com/dualtax/tax-engine/internal/domain"
	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

// TestZAInclusionRateCGT exercises the inclusion methodology: the gain is
// taxed at the marginal rate it pushes the taxpayer into, computed as the
// difference of two income-tax results.
func TestZAInclusionRateCGT(t *testing.T) {
	calc := NewCapitalGainsCalculator(config.DefaultZA2024())

	tests := []struct {
		name             string
		gains            string
		exclusionUsed    string
		taxpayer         domain.TaxpayerContext
		expectedIncluded string
		expectedCGT      string
	}{
		{
			name:          "individual gain at 31 percent marginal",
			gains:         "100000",
			exclusionUsed: "0",
			taxpayer: domain.TaxpayerContext{
				OtherTaxableIncome: moneypkg.NewFromInt(400_000),
				Age:                intPtr(45),
			},
			expectedIncluded: "24000", // (100000-40000) * 0.40
			expectedCGT:      "7440.00",
		},
		{
			name:          "corporate inclusion rate",
			gains:         "100000",
			exclusionUsed: "0",
			taxpayer: domain.TaxpayerContext{
				Corporate:          true,
				OtherTaxableIncome: moneypkg.NewFromInt(400_000),
				Age:                intPtr(45),
			},
			expectedIncluded: "48000", // (100000-40000) * 0.80
			expectedCGT:      "14880.00",
		},
		{
			name:          "exclusion already consumed by earlier disposals",
			gains:         "50000",
			exclusionUsed: "40000",
			taxpayer: domain.TaxpayerContext{
				OtherTaxableIncome: moneypkg.NewFromInt(400_000),
				Age:                intPtr(45),
			},
			expectedIncluded: "20000", // full 50000 taxable, * 0.40
			expectedCGT:      "6200.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := calc.Compute(moneypkg.RequireFromString(tt.gains), moneypkg.RequireFromString(tt.exclusionUsed), tt.taxpayer)
			require.NoError(t, err)
			assert.True(t, result.IncludedAmount.Equal(moneypkg.RequireFromString(tt.expectedIncluded)),
				"included: expected %s, got %s", tt.expectedIncluded, result.IncludedAmount)
			assert.Equal(t, tt.expectedCGT, result.CGTOwed.String())
		})
	}
}

// TestZACGTZeroPath checks that gains fully absorbed by the exclusion produce
// an all-zero result without invoking the income calculator.
func TestZACGTZeroPath(t *testing.T) {
	calc := NewCapitalGainsCalculator(config.DefaultZA2024())

	result, err := calc.Compute(moneypkg.NewFromInt(30_000), moneypkg.Zero(), domain.TaxpayerContext{
		OtherTaxableIncome: moneypkg.NewFromInt(400_000),
	})
	require.NoError(t, err)
	assert.True(t, result.ExclusionUsed.Equal(moneypkg.NewFromInt(30_000)))
	assert.True(t, result.TaxableGain.IsZero())
	assert.True(t, result.IncludedAmount.IsZero())
	assert.True(t, result.CGTOwed.IsZero())
	assert.True(t, result.EffectiveRate.IsZero())
}

// TestUKFlatRateCGT exercises the flat-rate matrix after the annual exempt
// amount.
func TestUKFlatRateCGT(t *testing.T) {
	calc := NewCapitalGainsCalculator(config.DefaultUK2024())

	tests := []struct {
		name        string
		gains       string
		taxpayer    domain.TaxpayerContext
		expectedCGT string
	}{
		{
			name:        "basic rate general asset",
			gains:       "10000",
			taxpayer:    domain.TaxpayerContext{AssetClass: domain.AssetGeneral},
			expectedCGT: "700.00", // 7000 * 0.10
		},
		{
			name:        "higher rate general asset",
			gains:       "10000",
			taxpayer:    domain.TaxpayerContext{HigherRate: true, AssetClass: domain.AssetGeneral},
			expectedCGT: "1400.00", // 7000 * 0.20
		},
		{
			name:        "basic rate property",
			gains:       "10000",
			taxpayer:    domain.TaxpayerContext{AssetClass: domain.AssetProperty},
			expectedCGT: "1260.00", // 7000 * 0.18
		},
		{
			name:        "higher rate property",
			gains:       "10000",
			taxpayer:    domain.TaxpayerContext{HigherRate: true, AssetClass: domain.AssetProperty},
			expectedCGT: "1680.00", // 7000 * 0.24
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := calc.Compute(moneypkg.RequireFromString(tt.gains), moneypkg.Zero(), tt.taxpayer)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCGT, result.CGTOwed.String())
			assert.True(t, result.ExclusionUsed.Equal(moneypkg.NewFromInt(3000)))
		})
	}
}

func TestCGTRejectsBadInput(t *testing.T) {
	calc := NewCapitalGainsCalculator(config.DefaultUK2024())
	var verr *domain.ValidationError

	_, err := calc.Compute(moneypkg.RequireFromString("-10"), moneypkg.Zero(), domain.TaxpayerContext{})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "total_gains", verr.Field)

	_, err = calc.Compute(moneypkg.NewFromInt(10), moneypkg.RequireFromString("-1"), domain.TaxpayerContext{})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "exclusion_already_used", verr.Field)
}
