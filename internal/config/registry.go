// Package config loads and serves the versioned rule tables the calculators
// read. Tables are keyed by (jurisdiction, tax year) and immutable once
// registered; a request for an unconfigured year is a hard failure, never a
// silent fallback to a neighbouring year.
package config

import (
	"fmt"

	"github.com/dualtax/tax-engine/internal/domain"
)

type tableKey struct {
	jurisdiction domain.Jurisdiction
	taxYear      string
}

// Registry holds the published TaxYearTables for every configured
// (jurisdiction, tax year) pair. It is populated once at startup and
// read-only afterwards, so concurrent lookups need no synchronization.
type Registry struct {
	tables map[tableKey]*domain.TaxYearTables
}

// NewRegistry creates an empty table registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[tableKey]*domain.TaxYearTables)}
}

// Register validates and adds a table set. Re-registering a pair that is
// already present is rejected: published tables are immutable.
func (r *Registry) Register(t *domain.TaxYearTables) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("tables for %s %s: %w", t.Jurisdiction, t.TaxYear, err)
	}
	key := tableKey{t.Jurisdiction, t.TaxYear}
	if _, exists := r.tables[key]; exists {
		return fmt.Errorf("tables for %s %s are already registered", t.Jurisdiction, t.TaxYear)
	}
	r.tables[key] = t
	return nil
}

// Lookup returns the tables for a jurisdiction and tax year, or a
// ConfigurationError if that year has not been published.
func (r *Registry) Lookup(jurisdiction domain.Jurisdiction, taxYear string) (*domain.TaxYearTables, error) {
	t, ok := r.tables[tableKey{jurisdiction, taxYear}]
	if !ok {
		return nil, domain.NewConfigurationError(jurisdiction, taxYear,
			fmt.Sprintf("no tables registered for %s %s", jurisdiction, taxYear))
	}
	return t, nil
}

// TaxYears returns the configured tax years for a jurisdiction.
func (r *Registry) TaxYears(jurisdiction domain.Jurisdiction) []string {
	var years []string
	for key := range r.tables {
		if key.jurisdiction == jurisdiction {
			years = append(years, key.taxYear)
		}
	}
	return years
}
