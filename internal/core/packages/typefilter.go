package packages

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Flag is a bit in a type category mask.
type Flag int

const (
	Plugin Flag = 1
	Module Flag = 2
	Theme  Flag = 4
	// Other covers every type that is not listed in RecognizedTypes,
	// including native Composer types such as "library".
	Other Flag = 64
	All   Flag = 255
)

// RecognizedTypes maps each category flag to the package type strings it
// stands for.
var RecognizedTypes = map[Flag][]string{
	Plugin: {"cotonti-siena-plugin"},
	Module: {"cotonti-siena-module"},
	Theme:  {"cotonti-siena-theme"},
}

var flagNames = map[string]Flag{
	"plugin": Plugin,
	"module": Module,
	"theme":  Theme,
	"other":  Other,
	"all":    All,
}

// categoryOrder fixes the iteration order over RecognizedTypes.
var categoryOrder = []Flag{Plugin, Module, Theme}

type filterKind uint8

const (
	kindNone filterKind = iota
	kindExact
	kindFlags
)

// TypeFilter restricts matches to a package type. The zero value matches
// everything.
type TypeFilter struct {
	kind  filterKind
	exact string
	flags Flag
}

// NoFilter returns the filter that matches every type.
func NoFilter() TypeFilter {
	return TypeFilter{}
}

// Exact matches one type string, ignoring case. An empty string yields
// NoFilter.
func Exact(pkgType string) TypeFilter {
	if pkgType == "" {
		return TypeFilter{}
	}
	return TypeFilter{kind: kindExact, exact: fold(pkgType)}
}

// Flags matches the categories set in mask. A zero or negative mask yields
// NoFilter.
func Flags(mask Flag) TypeFilter {
	if mask <= 0 {
		return TypeFilter{}
	}
	return TypeFilter{kind: kindFlags, flags: mask}
}

// ParseTypeFilter reads the textual form used on the command line: "" for
// no filter, an integer mask ("5"), "@" followed by comma separated flag
// names ("@plugin,theme"), or an exact type string. Unknown flag names are
// rejected rather than dropped, so a typo never widens the filter.
func ParseTypeFilter(s string) (TypeFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoFilter(), nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Flags(Flag(n)), nil
	}
	if names, ok := strings.CutPrefix(s, "@"); ok {
		var mask Flag
		for _, name := range strings.Split(names, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			flag, ok := flagNames[name]
			if !ok {
				return NoFilter(), fmt.Errorf("unknown type flag %q in %q", name, s)
			}
			mask |= flag
		}
		return Flags(mask), nil
	}
	return Exact(s), nil
}

// IsNone reports whether f matches every type.
func (f TypeFilter) IsNone() bool {
	return f.kind == kindNone
}

func (f TypeFilter) String() string {
	switch f.kind {
	case kindExact:
		return `"` + f.exact + `"`
	case kindFlags:
		return strconv.Itoa(int(f.flags))
	default:
		return "any"
	}
}

// Match reports whether pkgType passes the filter.
func (f TypeFilter) Match(pkgType string) bool {
	switch f.kind {
	case kindExact:
		return fold(pkgType) == f.exact
	case kindFlags:
		return matchFlags(fold(pkgType), f.flags)
	default:
		return true
	}
}

// IsType reports whether pkgType passes filter.
func IsType(pkgType string, filter TypeFilter) bool {
	return filter.Match(pkgType)
}

func matchFlags(pkgType string, mask Flag) bool {
	if mask > Other {
		return true
	}
	recognized := false
	for _, flag := range categoryOrder {
		if !slices.Contains(RecognizedTypes[flag], pkgType) {
			continue
		}
		recognized = true
		if mask&flag != 0 {
			return true
		}
	}
	return !recognized && mask&Other != 0
}
