package project

import (
	"strings"
	"time"
)

// Manifest holds the parts of composer.json the connector keeps.
type Manifest struct {
	Require      map[string]string `json:"require,omitempty"`
	Repositories []any             `json:"repositories,omitempty"`
	Config       map[string]any    `json:"config,omitempty"`
	Extra        map[string]any    `json:"extra,omitempty"`
}

// LockData holds the parts of composer.lock the connector keeps.
type LockData struct {
	Hash        string
	Packages    []PackageRecord
	HasPackages bool // a "packages" array was present
}

// PackageRecord is one installed package from the lock file.
type PackageRecord struct {
	Name        string    // "vendor/short-name"
	Version     string    // as written in the lock file, e.g. "v3.3.5"
	Type        string    // e.g. "library" or "cotonti-siena-plugin"
	Time        string    // raw install time
	InstalledAt time.Time // parsed Time, zero when missing or unparseable
	Fields      map[string]any
}

// timeLayouts lists the accepted install time formats, first match wins.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02",
}

// ParseTime parses a lock file time string. It returns the zero time when
// no layout matches.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// NewPackageRecord builds a record from a decoded lock file entry. Every key
// of data is kept verbatim in Fields.
func NewPackageRecord(data map[string]any) PackageRecord {
	rec := PackageRecord{
		Name:    stringField(data, "name"),
		Version: stringField(data, "version"),
		Type:    stringField(data, "type"),
		Time:    stringField(data, "time"),
		Fields:  data,
	}
	if rec.Fields == nil {
		rec.Fields = make(map[string]any)
	}
	rec.InstalledAt = ParseTime(rec.Time)
	return rec
}

// Field returns the raw value stored under the on-disk key.
func (r PackageRecord) Field(key string) (any, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// SplitName splits a full name on its first "/". ok is false when there is
// no vendor part, e.g. "monolog" or "/monolog".
func SplitName(fullName string) (vendor, short string, ok bool) {
	i := strings.Index(fullName, "/")
	if i <= 0 {
		return "", fullName, false
	}
	return fullName[:i], fullName[i+1:], true
}

func stringField(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}
