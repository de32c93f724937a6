// Package normalize provides the single case-folding rule used to turn a
// binding token into its registry lookup key. Bindings are free-form
// user-installed strings, not ASCII by guarantee, so folding goes through
// golang.org/x/text/cases rather than strings.ToLower's byte-wise ASCII
// folding.
package normalize

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// Binding returns the registry lookup key for a raw binding token.
func Binding(s string) string {
	return lower.String(s)
}
