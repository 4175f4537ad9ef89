// Package connector exposes the packages a Composer install left in a
// project directory: it reads composer.json and composer.lock, answers
// lookups over the installed packages and notices when those files change.
//
// A Connector belongs to one request. It is not safe for concurrent use.
package connector

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Masterminds/semver/v3"

	"github.com/nightconcept/pkgconn/internal/core/hasher"
	"github.com/nightconcept/pkgconn/internal/core/lasterror"
	"github.com/nightconcept/pkgconn/internal/core/lockfile"
	"github.com/nightconcept/pkgconn/internal/core/manifest"
	"github.com/nightconcept/pkgconn/internal/core/packages"
	"github.com/nightconcept/pkgconn/internal/core/project"
)

// Connector holds the loaded project state and the package index built
// from it.
type Connector struct {
	state  State
	index  *packages.Index
	errs   *lasterror.Stack
	logger *slog.Logger
	ready  bool
}

// Includer loads the autoload entry point into the host application.
type Includer interface {
	Include(path string) error
}

// IncluderFunc adapts a function to Includer.
type IncluderFunc func(path string) error

func (f IncluderFunc) Include(path string) error { return f(path) }

// New returns an unloaded connector. Call Setup before querying it.
func New(opts ...Option) *Connector {
	c := &Connector{
		errs:   lasterror.NewStack(nil),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()
	return c
}

// Setup loads the project in basePath ("." when empty). Earlier errors are
// discarded first. On failure the connector is left unloaded and the error
// is also recorded for LastError.
func (c *Connector) Setup(basePath string) error {
	c.Flush()
	if basePath == "" {
		basePath = "."
	}
	basePath = filepath.Clean(basePath)

	st, records, err := load(basePath, func(err error) {
		c.errs.Push(err)
		c.logger.Warn("ignoring unreadable lock file", "base", basePath, "error", err)
	})
	if err != nil {
		c.errs.Push(err)
		c.logger.Debug("setup failed", "base", basePath, "error", err)
		return fmt.Errorf("failed to set up connector in %s: %w", basePath, err)
	}

	c.state = st
	c.index = packages.New(records, c.errs)
	c.ready = true
	c.logger.Debug("connector set up",
		"base", st.BasePath,
		"vendor", st.VendorDir,
		"locked", st.Locked,
		"packages", c.index.Len(),
	)
	return nil
}

// Flush drops all loaded state, the selection and the error history.
func (c *Connector) Flush() {
	c.reset()
	c.errs.Reset()
}

func (c *Connector) reset() {
	c.state = State{}
	c.index = packages.New(nil, c.errs)
	c.ready = false
}

// IsSetup reports whether the last Setup or Restore succeeded.
func (c *Connector) IsSetup() bool {
	return c.ready
}

// State returns a copy of the loaded project state.
func (c *Connector) State() State {
	return c.state
}

// Locked reports whether the project has a lock file with installed
// packages.
func (c *Connector) Locked() bool {
	return c.state.Locked
}

// VendorDir returns the vendor directory derived from the manifest.
func (c *Connector) VendorDir() string {
	return c.state.VendorDir
}

// Manifest returns the kept blocks of composer.json.
func (c *Connector) Manifest() project.Manifest {
	return c.state.Manifest
}

// StateChanged reports whether composer.json or composer.lock changed since
// the last Setup. It never reloads anything. An unloaded connector always
// reports a change.
func (c *Connector) StateChanged() bool {
	if !c.ready {
		return true
	}
	current, _ := hasher.Fingerprint(c.state.authoritativePath())
	if current != c.state.Fingerprint {
		c.logger.Debug("project state changed", "file", c.state.authoritativePath())
		return true
	}
	if !c.state.Locked {
		lockFP, _ := hasher.Fingerprint(lockfile.Path(c.state.BasePath))
		if lockFP != c.state.LockFingerprint {
			c.logger.Debug("lock file appeared or changed", "base", c.state.BasePath)
			return true
		}
	}
	return false
}

// IsExists reports whether the package directory holds a composer.json.
// A non-empty vendorDir replaces the vendor directory from the manifest.
func (c *Connector) IsExists(name string, vendorDir ...string) bool {
	dir := c.state.VendorDir
	if len(vendorDir) > 0 && vendorDir[0] != "" {
		dir = vendorDir[0]
	}
	rel := filepath.FromSlash(name)
	if dir == "" || name == "" || !filepath.IsLocal(rel) {
		return false
	}
	return fileExists(filepath.Join(dir, rel, manifest.FileName))
}

// IsInstalled returns the installed version of the package with the given
// full name. The package must be present in the vendor directory and listed
// in the lock file.
func (c *Connector) IsInstalled(name string) (string, bool) {
	switch {
	case !c.ready:
		c.errs.Push(lasterror.New(lasterror.CodeNotInitialized, nil))
	case !c.IsExists(name):
		c.errs.Push(lasterror.New(lasterror.CodeNoPackage, map[string]string{"name": name}))
	case c.state.AutoloadPath != "" && !fileExists(c.state.AutoloadPath):
		c.errs.Push(lasterror.File(lasterror.CodeNoAutoload, c.state.AutoloadPath))
	case c.state.LockPath == "":
		c.errs.Push(lasterror.New(lasterror.CodeNoLock, nil))
	case c.index.Len() == 0:
		c.errs.Push(lasterror.New(lasterror.CodeNoInstalled, nil))
	default:
		if rec, ok := c.index.Info(name, packages.NoFilter()); ok {
			return rec.Version, true
		}
		c.errs.Push(lasterror.New(lasterror.CodePackageNotFound, map[string]string{
			"name": name,
			"type": packages.NoFilter().String(),
			"hint": "",
		}))
	}
	return "", false
}

// AutoloadFile returns the path of the Composer autoload entry point. A
// file that was missing at setup is looked up again.
func (c *Connector) AutoloadFile() (string, error) {
	if !c.ready {
		err := lasterror.New(lasterror.CodeNotInitialized, nil)
		c.errs.Push(err)
		return "", err
	}
	path := c.state.AutoloadPath
	if path == "" {
		path = filepath.Join(c.state.VendorDir, AutoloadFileName)
	}
	if !fileExists(path) {
		err := lasterror.File(lasterror.CodeNoAutoload, path)
		c.errs.Push(err)
		return "", err
	}
	return path, nil
}

// ConnectAutoloader hands the autoload entry point to inc.
func (c *Connector) ConnectAutoloader(inc Includer) error {
	path, err := c.AutoloadFile()
	if err != nil {
		return err
	}
	if err := inc.Include(path); err != nil {
		c.errs.Push(err)
		return fmt.Errorf("failed to include autoload file %s: %w", path, err)
	}
	c.logger.Debug("autoloader connected", "file", path)
	return nil
}

// Packages returns the package index.
func (c *Connector) Packages() *packages.Index {
	return c.index
}

// Package selects name on the package index and returns the index.
func (c *Connector) Package(name string, filter packages.TypeFilter) (*packages.Index, bool) {
	if !c.ready {
		c.errs.Push(lasterror.New(lasterror.CodeNotInitialized, nil))
		return c.index, false
	}
	ok := c.index.Select(name, filter)
	return c.index, ok
}

// ListInstalled returns the installed packages in lock file order.
func (c *Connector) ListInstalled() []project.PackageRecord {
	return c.index.Packages()
}

// Satisfies reports whether the installed version of the package called
// name meets constraint, e.g. "^3.3" or ">=1.0, <2.0".
func (c *Connector) Satisfies(name, constraint string) (bool, error) {
	if !c.ready {
		err := lasterror.New(lasterror.CodeNotInitialized, nil)
		c.errs.Push(err)
		return false, err
	}
	rec, ok := c.index.Info(name, packages.NoFilter())
	if !ok {
		err := lasterror.New(lasterror.CodePackageNotFound, map[string]string{
			"name": name,
			"type": packages.NoFilter().String(),
			"hint": "",
		})
		c.errs.Push(err)
		return false, err
	}
	cons, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("failed to parse constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(rec.Version)
	if err != nil {
		return false, fmt.Errorf("failed to parse version %q of %s: %w", rec.Version, rec.Name, err)
	}
	return cons.Check(v), nil
}

// LastError pops the most recent error message, or "" if there is none.
func (c *Connector) LastError() string {
	return c.errs.Last()
}

// Errors drains all recorded error messages, most recent first.
func (c *Connector) Errors() []string {
	return c.errs.All()
}

// HasErrors reports whether error messages are waiting.
func (c *Connector) HasErrors() bool {
	return c.errs.HasErrors()
}

// SetMessages overrides error templates by code; nil restores the
// defaults.
func (c *Connector) SetMessages(messages map[string]string) {
	c.errs.SetMessages(messages)
}
