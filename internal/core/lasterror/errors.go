package lasterror

import (
	"errors"
	"regexp"
)

// Error kinds. Every *Error unwraps to one of these so callers can test
// with errors.Is.
var (
	ErrFormat              = errors.New("format error")
	ErrNotFound            = errors.New("file not found")
	ErrEncoding            = errors.New("invalid encoding")
	ErrSyntax              = errors.New("invalid json")
	ErrNoLockData          = errors.New("no lock data")
	ErrNoInstalledPackages = errors.New("no installed packages")
	ErrNoPackage           = errors.New("no package")
	ErrNotInitialized      = errors.New("not initialized")
	ErrNoAutoload          = errors.New("no autoload file")
)

// Message codes. A code selects the message template; several codes may
// share one kind.
const (
	CodeFormat          = "format_error"
	CodeNotInitialized  = "not_initialized"
	CodeNoAutoload      = "no_autoload"
	CodeNoPackage       = "no_package"
	CodePackageNotFound = "package_not_found"
	CodeNoLock          = "no_lock"
	CodeNoInstalled     = "no_installed"
	CodeNotFound        = "not_found"
	CodeNotUTF8         = "not_utf8"
	CodeNotJSON         = "not_json"
)

// DefaultMessages holds the built-in message templates. Placeholders look
// like {name} and are filled from Error.Params.
var DefaultMessages = map[string]string{
	CodeFormat:          `Can not get data from "{file}". Check its format.`,
	CodeNotInitialized:  `Connector not set up yet. Call Setup first.`,
	CodeNoAutoload:      `Can not locate autoload file "{file}".`,
	CodeNoPackage:       `No composer.json found for package "{name}".`,
	CodePackageNotFound: `No package found for given name "{name}" and type {type}{hint}`,
	CodeNoLock:          `No composer.lock data found.`,
	CodeNoInstalled:     `No installed packages found.`,
	CodeNotFound:        `File not found "{file}" or empty.`,
	CodeNotUTF8:         `"{file}" is not UTF-8, could not parse as JSON.`,
	CodeNotJSON:         `"{file}" does not contain valid JSON: {msg}`,
}

var kindByCode = map[string]error{
	CodeFormat:          ErrFormat,
	CodeNotInitialized:  ErrNotInitialized,
	CodeNoAutoload:      ErrNoAutoload,
	CodeNoPackage:       ErrNoPackage,
	CodePackageNotFound: ErrNoPackage,
	CodeNoLock:          ErrNoLockData,
	CodeNoInstalled:     ErrNoInstalledPackages,
	CodeNotFound:        ErrNotFound,
	CodeNotUTF8:         ErrEncoding,
	CodeNotJSON:         ErrSyntax,
}

// Error is a recoverable failure with a templated message.
type Error struct {
	Kind   error
	Code   string
	Params map[string]string
}

// New builds an Error for code. Params are optional template values.
func New(code string, params map[string]string) *Error {
	kind, ok := kindByCode[code]
	if !ok {
		kind = errors.New(code)
	}
	return &Error{Kind: kind, Code: code, Params: params}
}

// File is shorthand for errors whose only parameter is a file path.
func File(code, path string) *Error {
	return New(code, map[string]string{"file": path})
}

func (e *Error) Error() string {
	return Render(e.Code, DefaultMessages, e.Params)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// Render fills the template registered for code in messages. Unknown
// placeholders are left in place; unknown codes get a generic message.
func Render(code string, messages map[string]string, params map[string]string) string {
	tmpl, ok := messages[code]
	if !ok {
		return "Error: code `" + code + "`"
	}
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := params[key]; ok {
			return v
		}
		return m
	})
}
