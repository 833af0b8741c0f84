package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalTerm normalizes raw search input into the identity used for
// search-count records: surrounding whitespace trimmed, inner runs of
// whitespace collapsed to single spaces, Unicode composed to NFC so that
// visually identical terms share one record.
func CanonicalTerm(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return norm.NFC.String(strings.Join(fields, " "))
}
