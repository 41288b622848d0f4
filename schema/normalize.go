package schema

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText produces the comparison key used by the highlight store:
// NFKC, case folded, surrounding space trimmed and inner whitespace runs
// collapsed to one space.
func NormalizeText(value string) string {
	folded := cases.Fold().String(norm.NFKC.String(value))
	return strings.Join(strings.Fields(folded), " ")
}

// NormalizeColor trims and lowercases a literal color name.
func NormalizeColor(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
