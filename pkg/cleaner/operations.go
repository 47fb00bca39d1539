// pkg/cleaner/operations.go
package cleaner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/David-Botos/pathprep/pkg/converter"
	"github.com/David-Botos/pathprep/pkg/model"
)

// YearSentinel is stored when no year can be parsed
const YearSentinel int64 = 0

var disallowedText = regexp.MustCompile(`[^a-zA-Z0-9 .\-]`)

// ParseYear reads a year from the last four characters of v's string form.
// The four characters must all be ASCII digits forming a value of at least
// 1000, so "A.2015" and "02015" give 2015 while "N/A", "" and "20X5" give
// the sentinel. A plain integer parse would accept "0999" as 999; it is
// rejected here so every stored year has four significant digits.
// ok reports whether a year was found.
func ParseYear(v interface{}) (year int64, ok bool) {
	if v == nil {
		return YearSentinel, false
	}

	runes := []rune(converter.ToString(v))
	if len(runes) < 4 {
		return YearSentinel, false
	}

	for _, r := range runes[len(runes)-4:] {
		if r < '0' || r > '9' {
			return YearSentinel, false
		}
		year = year*10 + int64(r-'0')
	}
	if year < 1000 {
		return YearSentinel, false
	}
	return year, true
}

// NormalizeText lower-cases and trims s, then replaces every character
// outside [a-zA-Z0-9 .-] with one space. Replacement happens after trimming,
// so " Ciclabile! " becomes "ciclabile ".
func NormalizeText(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	return disallowedText.ReplaceAllString(s, " ")
}

// concatType joins the two classification values. Either one null gives null.
func concatType(primary, secondary interface{}) interface{} {
	if primary == nil || secondary == nil {
		return nil
	}
	return converter.ToString(primary) + typeSeparator + converter.ToString(secondary)
}

// discardReason explains why a row fails reconciliation, or "" if it passes
func discardReason(row model.Row) string {
	nullType := row[ColType] == nil
	nullYear := row[ColYearOfData] == nil
	switch {
	case nullType && nullYear:
		return model.ReasonNullTypeAndYear
	case nullType:
		return model.ReasonNullType
	case nullYear:
		return model.ReasonNullYear
	default:
		return ""
	}
}

// rowIdentifier names a row for audit records: its code when present,
// otherwise its position in the loaded table
func rowIdentifier(row model.Row, index int) string {
	for _, key := range []string{ColCode, "codice"} {
		if v, ok := row[key]; ok && v != nil {
			return converter.ToString(v)
		}
	}
	return fmt.Sprintf("row:%d", index)
}
