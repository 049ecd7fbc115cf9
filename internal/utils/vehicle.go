package utils

import (
	"strings"
	"unicode"
)

// NormalizeVehicleNumber canonicalizes a vehicle registration number for
// storage and lookup: trimmed, upper-cased, separators removed.
// "tn-01-ab-1234" and "TN 01 AB 1234" both normalize to "TN01AB1234".
func NormalizeVehicleNumber(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
