// Package dateutil derives tax-year identifiers from calendar dates. The two
// jurisdictions draw their year boundaries differently: the UK year runs
// 6 April to 5 April, the ZA year of assessment runs 1 March to end February.
// Both are labelled by the calendar year they start in, e.g. "2024-25".
package dateutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UKTaxYear returns the UK tax-year label containing the given date.
// The UK tax year starts on 6 April.
func UKTaxYear(date time.Time) string {
	start := date.Year()
	boundary := time.Date(date.Year(), time.April, 6, 0, 0, 0, 0, date.Location())
	if date.Before(boundary) {
		start--
	}
	return FormatTaxYear(start)
}

// ZATaxYear returns the ZA tax-year label containing the given date.
// The ZA year of assessment starts on 1 March.
func ZATaxYear(date time.Time) string {
	start := date.Year()
	boundary := time.Date(date.Year(), time.March, 1, 0, 0, 0, 0, date.Location())
	if date.Before(boundary) {
		start--
	}
	return FormatTaxYear(start)
}

// FormatTaxYear renders a start year as a "2024-25" style label.
func FormatTaxYear(startYear int) string {
	return fmt.Sprintf("%d-%02d", startYear, (startYear+1)%100)
}

// ParseTaxYear extracts the starting calendar year from a "2024-25" style
// label. The second component must be the start year plus one, modulo 100.
func ParseTaxYear(label string) (int, error) {
	parts := strings.Split(label, "-")
	if len(parts) != 2 {
		return 0, fmt.Errorf("tax year %q is not in YYYY-YY form", label)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return 0, fmt.Errorf("tax year %q has an invalid start year", label)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 {
		return 0, fmt.Errorf("tax year %q has an invalid end year", label)
	}
	if (start+1)%100 != end {
		return 0, fmt.Errorf("tax year %q does not span consecutive years", label)
	}
	return start, nil
}

// UKTaxYearBounds returns the first and last day of the UK tax year with the
// given start year.
func UKTaxYearBounds(startYear int) (time.Time, time.Time) {
	first := time.Date(startYear, time.April, 6, 0, 0, 0, 0, time.UTC)
	last := time.Date(startYear+1, time.April, 5, 0, 0, 0, 0, time.UTC)
	return first, last
}

// ZATaxYearBounds returns the first and last day of the ZA year of assessment
// with the given start year.
func ZATaxYearBounds(startYear int) (time.Time, time.Time) {
	first := time.Date(startYear, time.March, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(startYear+1, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return first, last
}

// Age calculates the age in whole years at a given date.
func Age(birthDate, atDate time.Time) int {
	age := atDate.Year() - birthDate.Year()
	if atDate.Month() < birthDate.Month() ||
		(atDate.Month() == birthDate.Month() && atDate.Day() < birthDate.Day()) {
		age--
	}
	return age
}
