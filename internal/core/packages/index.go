// Package packages indexes the installed packages of a lock file by short
// name and answers lookup and selection queries over them.
package packages

import (
	"slices"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/nightconcept/pkgconn/internal/core/lasterror"
	"github.com/nightconcept/pkgconn/internal/core/project"
)

// Index answers queries over one loaded package list. It is not safe for
// concurrent use.
type Index struct {
	packages []project.PackageRecord
	// byName maps a folded short name to positions in packages, oldest
	// install first.
	byName map[string][]int
	names  []string

	sel  selection
	errs *lasterror.Stack
}

// New returns an index over records. Failures are reported to errs; a nil
// errs gets a private stack.
func New(records []project.PackageRecord, errs *lasterror.Stack) *Index {
	if errs == nil {
		errs = lasterror.NewStack(nil)
	}
	ix := &Index{errs: errs, byName: make(map[string][]int)}
	ix.ResetSelection()
	ix.Init(records)
	return ix
}

// Init replaces the package list and rebuilds the short-name index. A nil
// slice leaves the index untouched; an empty one clears it. The selection
// is always reset when the list is replaced.
func (ix *Index) Init(records []project.PackageRecord) {
	if records == nil {
		return
	}
	ix.packages = slices.Clone(records)
	ix.buildNames()
	ix.ResetSelection()
}

func (ix *Index) buildNames() {
	ix.byName = make(map[string][]int)
	for i, rec := range ix.packages {
		_, short, ok := project.SplitName(rec.Name)
		if !ok || short == "" {
			continue
		}
		key := fold(short)
		ix.byName[key] = append(ix.byName[key], i)
	}

	ix.names = make([]string, 0, len(ix.byName))
	for name, group := range ix.byName {
		ix.names = append(ix.names, name)
		sort.SliceStable(group, func(a, b int) bool {
			return ix.packages[group[a]].InstalledAt.Before(ix.packages[group[b]].InstalledAt)
		})
	}
	sort.Strings(ix.names)
}

// Packages returns a copy of the package list in lock file order.
func (ix *Index) Packages() []project.PackageRecord {
	return slices.Clone(ix.packages)
}

// Len returns the number of loaded packages.
func (ix *Index) Len() int {
	return len(ix.packages)
}

// ShortNames returns the indexed short names in ascending order.
func (ix *Index) ShortNames() []string {
	return slices.Clone(ix.names)
}

// Group returns the packages sharing shortName, oldest install first.
func (ix *Index) Group(shortName string) []project.PackageRecord {
	group := ix.byName[fold(shortName)]
	list := make([]project.PackageRecord, 0, len(group))
	for _, i := range group {
		list = append(list, ix.packages[i])
	}
	return list
}

// IsInstalled reports whether a package named fullName passes filter.
func (ix *Index) IsInstalled(fullName string, filter TypeFilter) bool {
	_, ok := ix.find(fullName, filter)
	return ok
}

// Info returns the first package in list order named fullName that passes
// filter.
func (ix *Index) Info(fullName string, filter TypeFilter) (project.PackageRecord, bool) {
	i, ok := ix.find(fullName, filter)
	if !ok {
		return project.PackageRecord{}, false
	}
	return ix.packages[i], true
}

func (ix *Index) find(fullName string, filter TypeFilter) (int, bool) {
	name := fold(fullName)
	for i, rec := range ix.packages {
		if fold(rec.Name) == name && filter.Match(rec.Type) {
			return i, true
		}
	}
	return -1, false
}

// ExpandName resolves a short name to the full name of an installed
// package. When several packages share the short name the oldest install
// that passes filter wins.
func (ix *Index) ExpandName(shortName string, filter TypeFilter) (string, bool) {
	group := ix.byName[fold(shortName)]
	if len(group) == 0 {
		return "", false
	}
	if len(group) == 1 && filter.IsNone() {
		return ix.packages[group[0]].Name, true
	}
	for _, i := range group {
		if filter.Match(ix.packages[i].Type) {
			return ix.packages[i].Name, true
		}
	}
	return "", false
}

// Suggest returns up to limit full names that fuzzily resemble name, best
// match first.
func (ix *Index) Suggest(name string, limit int) []string {
	if limit <= 0 || len(ix.packages) == 0 {
		return nil
	}
	candidates := make([]string, len(ix.packages))
	for i, rec := range ix.packages {
		candidates[i] = fold(rec.Name)
	}
	matches := fuzzy.Find(fold(name), candidates)
	var list []string
	for _, m := range matches {
		full := ix.packages[m.Index].Name
		if slices.Contains(list, full) {
			continue
		}
		list = append(list, full)
		if len(list) == limit {
			break
		}
	}
	return list
}

func (ix *Index) hint(name string) string {
	suggestions := ix.Suggest(name, 3)
	if len(suggestions) == 0 {
		return ""
	}
	return ` (did you mean "` + strings.Join(suggestions, `", "`) + `"?)`
}

// LastError pops the most recent failure message, or "" if there is none.
func (ix *Index) LastError() string {
	return ix.errs.Last()
}
