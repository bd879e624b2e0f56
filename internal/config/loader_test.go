package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dualtax/tax-engine/internal/domain"
)

const sampleTables = `
tables:
  - jurisdiction: UK
    tax_year: 2024-25
    bands:
      - lower: "0"
        upper: "37700"
        rate: "0.20"
        cumulative_at_lower: "0"
      - lower: "37700"
        upper: "125140"
        rate: "0.40"
        cumulative_at_lower: "7540"
      - lower: "125140"
        rate: "0.45"
        cumulative_at_lower: "42516"
    allowance:
      base: "12570"
      taper_threshold: "100000"
      taper_rate: "0.5"
    dividends:
      method: stacked_bands
      exemption: "500"
      stacked_rates: ["0.0875", "0.3375", "0.3935"]
    capital_gains:
      method: flat_rate_after_exemption
      annual_exclusion: "3000"
      basic_rate_general: "0.10"
      higher_rate_general: "0.20"
      basic_rate_property: "0.18"
      higher_rate_property: "0.24"
    treaty:
      dividend_withholding_cap: "0.15"
      interest_withholding_cap: "0"
`

func writeTempTables(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFileRoundTrip(t *testing.T) {
	path := writeTempTables(t, sampleTables)

	registry, err := NewLoader().LoadFile(path)
	require.NoError(t, err)

	tables, err := registry.Lookup(domain.UK, "2024-25")
	require.NoError(t, err)

	reference := DefaultUK2024()
	require.Len(t, tables.Bands, len(reference.Bands))
	for i, band := range tables.Bands {
		assert.True(t, band.Lower.Equal(reference.Bands[i].Lower), "band %d lower", i)
		assert.True(t, band.Rate.Equal(reference.Bands[i].Rate), "band %d rate", i)
		assert.True(t, band.CumulativeAtLower.Equal(reference.Bands[i].CumulativeAtLower), "band %d cumulative", i)
	}
	assert.True(t, tables.Allowance.Base.Equal(reference.Allowance.Base))
	require.NotNil(t, tables.Allowance.TaperThreshold)
	assert.Equal(t, domain.DividendStackedBands, tables.Dividends.Method)
	require.Len(t, tables.Dividends.StackedRates, 3)
	assert.Equal(t, domain.FlatRateAfterExemption, tables.CapitalGains.Method)
	assert.True(t, tables.Treaty.DividendWithholdingCap.Equal(reference.Treaty.DividendWithholdingCap))
}

func TestLoadFileMissingFile(t *testing.T) {
	_, err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read table file")
}

func TestLoadFileRejectsBadYAML(t *testing.T) {
	path := writeTempTables(t, "tables: [不")
	_, err := NewLoader().LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse table file")
}

func TestLoadFileRejectsUnknownJurisdiction(t *testing.T) {
	path := writeTempTables(t, `
tables:
  - jurisdiction: FR
    tax_year: 2024-25
    bands:
      - lower: "0"
        rate: "0.10"
        cumulative_at_lower: "0"
    dividends:
      method: flat_after_exemption
      exemption: "0"
      flat_rate: "0.10"
    capital_gains:
      method: flat_rate_after_exemption
      annual_exclusion: "0"
`)
	_, err := NewLoader().LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed validation")
}

// TestLoadFileRejectsBrokenBands checks that semantic band validation runs
// after structural validation: the file parses but the cumulative figure at
// the second band's lower bound does not match the walk.
func TestLoadFileRejectsBrokenBands(t *testing.T) {
	path := writeTempTables(t, `
tables:
  - jurisdiction: ZA
    tax_year: 2024-25
    bands:
      - lower: "0"
        upper: "100000"
        rate: "0.20"
        cumulative_at_lower: "0"
      - lower: "100000"
        rate: "0.40"
        cumulative_at_lower: "99999"
    dividends:
      method: flat_after_exemption
      exemption: "23800"
      flat_rate: "0.20"
    capital_gains:
      method: inclusion_rate_after_exemption
      annual_exclusion: "40000"
      inclusion_rate_individual: "0.40"
      inclusion_rate_corporate: "0.80"
`)
	_, err := NewLoader().LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cumulative")
}

func TestLoadFileRejectsDuplicateEntries(t *testing.T) {
	path := writeTempTables(t, sampleTables+`
  - jurisdiction: UK
    tax_year: 2024-25
    bands:
      - lower: "0"
        rate: "0.20"
        cumulative_at_lower: "0"
    dividends:
      method: stacked_bands
      exemption: "500"
      stacked_rates: ["0.0875"]
    capital_gains:
      method: flat_rate_after_exemption
      annual_exclusion: "3000"
`)
	_, err := NewLoader().LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}
