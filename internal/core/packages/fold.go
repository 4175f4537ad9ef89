package packages

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// fold normalizes package names and types for comparison. A Caser keeps
// state between calls, so each call gets its own.
func fold(s string) string {
	return cases.Lower(language.Und).String(s)
}
