package packages

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/nightconcept/pkgconn/internal/core/lasterror"
	"github.com/nightconcept/pkgconn/internal/core/project"
)

// ErrNoSelection is returned by accessors that need a selected package.
var ErrNoSelection = errors.New("no package selected")

// Selection describes the currently selected package.
type Selection struct {
	Vendor   string
	Name     string // short name
	FullName string
	Type     string
	Version  string
	Record   project.PackageRecord
}

type selection struct {
	ok    bool
	key   string
	index int
	info  Selection
}

// Select makes the package called name the current selection. name may be
// a full "vendor/package" name or a short name. Selecting the same name and
// filter again is free.
func (ix *Index) Select(name string, filter TypeFilter) bool {
	return ix.selectPackage(name, filter, false)
}

// Reselect is Select without the shortcut for a repeated query.
func (ix *Index) Reselect(name string, filter TypeFilter) bool {
	return ix.selectPackage(name, filter, true)
}

func (ix *Index) selectPackage(name string, filter TypeFilter, force bool) bool {
	key := fold(name) + "|" + filter.String()
	if ix.sel.ok && !force && ix.sel.key == key {
		return true
	}

	fullName, found := "", false
	if _, _, isFull := project.SplitName(name); isFull {
		if ix.IsInstalled(name, filter) {
			fullName, found = name, true
		}
	} else {
		fullName, found = ix.ExpandName(name, filter)
	}

	if found {
		if i, ok := ix.find(fullName, filter); ok {
			rec := ix.packages[i]
			vendor, short, _ := project.SplitName(rec.Name)
			ix.sel = selection{
				ok:    true,
				key:   key,
				index: i,
				info: Selection{
					Vendor:   vendor,
					Name:     short,
					FullName: rec.Name,
					Type:     rec.Type,
					Version:  rec.Version,
					Record:   rec,
				},
			}
			return true
		}
	}

	ix.ResetSelection()
	ix.errs.Push(lasterror.New(lasterror.CodePackageNotFound, map[string]string{
		"name": name,
		"type": filter.String(),
		"hint": ix.hint(name),
	}))
	return false
}

// ResetSelection clears the current selection.
func (ix *Index) ResetSelection() {
	ix.sel = selection{index: -1}
}

// Selected reports whether a package is selected.
func (ix *Index) Selected() bool {
	return ix.sel.ok
}

// Selection returns the selected package.
func (ix *Index) Selection() (Selection, bool) {
	return ix.sel.info, ix.sel.ok
}

// Name returns the short name of the selected package.
func (ix *Index) Name() string { return ix.sel.info.Name }

// FullName returns the "vendor/package" name of the selected package.
func (ix *Index) FullName() string { return ix.sel.info.FullName }

// Vendor returns the vendor of the selected package.
func (ix *Index) Vendor() string { return ix.sel.info.Vendor }

// Version returns the version of the selected package.
func (ix *Index) Version() string { return ix.sel.info.Version }

// Type returns the type of the selected package.
func (ix *Index) Type() string { return ix.sel.info.Type }

// Field returns a field of the selected package. name may be given in
// camelCase ("notificationUrl") or as the on-disk key
// ("notification-url"). It returns nil when nothing is selected or the
// field is absent.
func (ix *Index) Field(name string) any {
	if !ix.sel.ok {
		return nil
	}
	v, _ := ix.sel.info.Record.Field(PropertyName(name))
	return v
}

// Get is the getter-style form of Field: Get("getNotificationUrl") reads
// "notification-url". Names without the "get" prefix return nil.
func (ix *Index) Get(method string) any {
	prop, ok := strings.CutPrefix(method, "get")
	if !ok || prop == "" {
		return nil
	}
	return ix.Field(prop)
}

// SemVer parses the version of the selected package.
func (ix *Index) SemVer() (*semver.Version, error) {
	if !ix.sel.ok {
		return nil, ErrNoSelection
	}
	v, err := semver.NewVersion(ix.sel.info.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to parse version %q of %s: %w", ix.sel.info.Version, ix.sel.info.FullName, err)
	}
	return v, nil
}

var camelRe = regexp.MustCompile(`([a-z])([A-Z])`)

// PropertyName converts a camelCase name to the hyphenated lowercase form
// used in composer files: "notificationUrl" becomes "notification-url".
func PropertyName(camel string) string {
	return strings.ToLower(camelRe.ReplaceAllString(camel, "${1}-${2}"))
}
