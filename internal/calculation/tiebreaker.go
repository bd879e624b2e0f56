package calculation

import (
	"github.com/dualtax/tax-engine/internal/domain"
)

// tieBreakerTest is one step of the treaty's residence cascade: a label for
// the explanation trail and an accessor for the fact it examines.
type tieBreakerTest struct {
	name string
	fact func(domain.CountryFacts) bool
}

// The cascade order is fixed by the treaty article: permanent home, centre of
// vital interests, habitual abode, nationality.
var tieBreakerCascade = []tieBreakerTest{
	{"permanent home", func(f domain.CountryFacts) bool { return f.PermanentHome }},
	{"centre of vital interests", func(f domain.CountryFacts) bool { return f.CentreOfVitalInterests }},
	{"habitual abode", func(f domain.CountryFacts) bool { return f.HabitualAbode }},
	{"nationality", func(f domain.CountryFacts) bool { return f.National }},
}

// TieBreak resolves dual residence through the treaty cascade, terminating on
// the first test satisfied in exactly one country. If every test is satisfied
// in both countries or neither, the result is ResidenceUndetermined, which
// requires competent-authority agreement; that outcome is a deliberate
// terminal non-answer, not an error. The cascade is a pure function of the
// flags: identical inputs always produce the identical terminal.
func TieBreak(flags domain.ResidenceFlags) (domain.Residence, string) {
	for _, test := range tieBreakerCascade {
		inUK := test.fact(flags.FactsUK)
		inZA := test.fact(flags.FactsZA)
		switch {
		case inUK && !inZA:
			return domain.ResidenceUK, test.name
		case inZA && !inUK:
			return domain.ResidenceZA, test.name
		}
	}
	return domain.ResidenceUndetermined, "cascade exhausted"
}
