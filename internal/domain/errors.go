package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError reports rejected caller input: negative amounts, unknown
// codes, overselling a holding. It is surfaced synchronously with a specific,
// actionable reason and is never retried or partially applied.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError for the named input field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConfigurationError reports a missing or malformed rule table for a
// requested (jurisdiction, tax year). The engine never falls back to another
// year's table. Callers see a generic message with a reference ID; the detail
// is for support escalation.
type ConfigurationError struct {
	Jurisdiction Jurisdiction
	TaxYear      string
	Detail       string
	ReferenceID  string
}

// NewConfigurationError creates a ConfigurationError with a fresh reference ID.
func NewConfigurationError(jurisdiction Jurisdiction, taxYear, detail string) *ConfigurationError {
	return &ConfigurationError{
		Jurisdiction: jurisdiction,
		TaxYear:      taxYear,
		Detail:       detail,
		ReferenceID:  uuid.NewString(),
	}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unable to compute: tax tables unavailable (ref %s)", e.ReferenceID)
}

// Internal returns the full diagnostic detail for support escalation.
func (e *ConfigurationError) Internal() string {
	return fmt.Sprintf("configuration error for %s %s: %s (ref %s)", e.Jurisdiction, e.TaxYear, e.Detail, e.ReferenceID)
}

// ConsistencyError reports lot state that does not reconcile, e.g. a negative
// remaining quantity. It is fatal for the enclosing operation: the ledger
// aborts the disposal rather than silently repairing state, since a silent
// fix-up could mask a lost update.
type ConsistencyError struct {
	HoldingID   string
	Detail      string
	ReferenceID string
}

// NewConsistencyError creates a ConsistencyError with a fresh reference ID.
func NewConsistencyError(holdingID, detail string) *ConsistencyError {
	return &ConsistencyError{
		HoldingID:   holdingID,
		Detail:      detail,
		ReferenceID: uuid.NewString(),
	}
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("unable to compute: internal state error (ref %s)", e.ReferenceID)
}

// Internal returns the full diagnostic detail for support escalation.
func (e *ConsistencyError) Internal() string {
	return fmt.Sprintf("consistency error on holding %s: %s (ref %s)", e.HoldingID, e.Detail, e.ReferenceID)
}
