package connector_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/pkgconn/internal/core/connector"
	"github.com/nightconcept/pkgconn/internal/core/lasterror"
	"github.com/nightconcept/pkgconn/internal/core/packages"
)

const (
	fixtureManifest = `{
  "name": "acme/site",
  "require": {"components/bootstrap": "^3.3"},
  "config": {"vendor-dir": "lib"},
  "scripts": {"test": "phpunit"}
}`
	fixtureLock = `{
  "hash": "a1b2c3",
  "packages": [
    {
      "name": "components/bootstrap",
      "version": "3.3.5",
      "type": "component",
      "time": "2015-06-16 13:55:37",
      "notification-url": "https://packagist.org/downloads/",
      "dist": null
    }
  ]
}`
)

// writeFile writes content to dir/rel, creating parent directories.
func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// setupProject lays out an installed project with one package under the
// custom vendor directory "lib".
func setupProject(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	writeFile(t, base, "composer.json", fixtureManifest)
	writeFile(t, base, "composer.lock", fixtureLock)
	writeFile(t, base, "lib/autoload.php", "<?php\n")
	writeFile(t, base, "lib/components/bootstrap/composer.json", `{"name": "components/bootstrap"}`)
	return base
}

func newConnector(opts ...connector.Option) *connector.Connector {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return connector.New(append([]connector.Option{connector.WithLogger(quiet)}, opts...)...)
}

func TestSetup(t *testing.T) {
	t.Parallel()
	base := setupProject(t)
	c := newConnector()

	require.NoError(t, c.Setup(base))
	assert.True(t, c.IsSetup())
	assert.True(t, c.Locked())
	assert.Equal(t, filepath.Join(base, "lib"), c.VendorDir())
	assert.Equal(t, map[string]string{"components/bootstrap": "^3.3"}, c.Manifest().Require)
	assert.Equal(t, "lib", c.Manifest().Config["vendor-dir"])

	st := c.State()
	assert.Equal(t, filepath.Join(base, "composer.json"), st.ManifestPath)
	assert.Equal(t, filepath.Join(base, "composer.lock"), st.LockPath)
	assert.Equal(t, filepath.Join(base, "lib", "autoload.php"), st.AutoloadPath)
	assert.Equal(t, "a1b2c3", st.Lock.Hash)
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, st.Fingerprint)
	assert.Empty(t, st.LockFingerprint)

	assert.Equal(t, 1, c.Packages().Len())
	assert.False(t, c.HasErrors())
}

func TestSetup_MissingManifest(t *testing.T) {
	t.Parallel()
	c := newConnector()

	err := c.Setup(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, lasterror.ErrNotFound)
	assert.False(t, c.IsSetup())
	assert.Equal(t, connector.State{}, c.State())
	assert.Contains(t, c.LastError(), "File not found")
}

func TestSetup_FailureResetsPreviousState(t *testing.T) {
	t.Parallel()
	base := setupProject(t)
	c := newConnector()
	require.NoError(t, c.Setup(base))

	broken := t.TempDir()
	writeFile(t, broken, "composer.json", `[]`)
	err := c.Setup(broken)
	require.Error(t, err)
	assert.ErrorIs(t, err, lasterror.ErrFormat)

	assert.False(t, c.IsSetup())
	assert.Equal(t, connector.State{}, c.State())
	assert.Empty(t, c.ListInstalled())
	_, ok := c.Package("bootstrap", packages.NoFilter())
	assert.False(t, ok)
}

func TestSetup_DiscardsEarlierErrors(t *testing.T) {
	t.Parallel()
	base := setupProject(t)
	c := newConnector()
	require.NoError(t, c.Setup(base))

	_, ok := c.Package("nope", packages.NoFilter())
	require.False(t, ok)
	require.True(t, c.HasErrors())

	require.NoError(t, c.Setup(base))
	assert.False(t, c.HasErrors(), "A fresh setup starts with an empty error history")

	_, ok = c.Package("nope", packages.NoFilter())
	require.False(t, ok)
	require.Error(t, c.Setup(t.TempDir()))
	errs := c.Errors()
	require.Len(t, errs, 1, "A failed setup keeps only its own message")
	assert.Contains(t, errs[0], "File not found")
}

func TestSetup_UnreadableLockIsNotFatal(t *testing.T) {
	t.Parallel()
	base := setupProject(t)
	writeFile(t, base, "composer.lock", "{\n  \"packages\": [\n")
	c := newConnector()

	require.NoError(t, c.Setup(base))
	assert.False(t, c.Locked())
	assert.Equal(t, filepath.Join(base, "composer.lock"), c.State().LockPath)
	assert.NotEmpty(t, c.State().LockFingerprint)
	assert.Equal(t, 0, c.Packages().Len())
	require.True(t, c.HasErrors())
	assert.Contains(t, c.LastError(), "does not contain valid JSON")
}

func TestSetup_DefaultVendorDir(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	writeFile(t, base, "composer.json", `{"require": {"php": ">=7.4"}}`)
	c := newConnector()

	require.NoError(t, c.Setup(base))
	assert.Equal(t, filepath.Join(base, "vendor"), c.VendorDir())
	assert.False(t, c.Locked())
	assert.Empty(t, c.State().AutoloadPath)
	assert.Empty(t, c.State().LockPath)
}

func TestIsExists(t *testing.T) {
	t.Parallel()
	base := setupProject(t)
	c := newConnector()
	require.NoError(t, c.Setup(base))

	assert.True(t, c.IsExists("components/bootstrap"))
	assert.False(t, c.IsExists("components/missing"))
	assert.False(t, c.IsExists("../lib/components/bootstrap"), "Names must stay inside the vendor directory")
	assert.False(t, c.IsExists(""))

	assert.True(t, c.IsExists("components/bootstrap", filepath.Join(base, "lib")))
	assert.False(t, c.IsExists("components/bootstrap", t.TempDir()))
}

func TestIsInstalled(t *testing.T) {
	t.Parallel()
	base := setupProject(t)
	writeFile(t, base, "lib/acme/extra/composer.json", `{"name": "acme/extra"}`)
	c := newConnector()
	require.NoError(t, c.Setup(base))

	version, ok := c.IsInstalled("components/bootstrap")
	assert.True(t, ok)
	assert.Equal(t, "3.3.5", version)

	version, ok = c.IsInstalled("components/missing")
	assert.False(t, ok)
	assert.Empty(t, version)
	assert.Equal(t, `No composer.json found for package "components/missing".`, c.LastError())

	_, ok = c.IsInstalled("acme/extra")
	assert.False(t, ok, "A package on disk but missing from the lock file is not installed")
	assert.Equal(t, `No package found for given name "acme/extra" and type any`, c.LastError())
}

func TestIsInstalled_Preconditions(t *testing.T) {
	t.Parallel()

	t.Run("not set up", func(t *testing.T) {
		c := newConnector()
		_, ok := c.IsInstalled("components/bootstrap")
		assert.False(t, ok)
		assert.Contains(t, c.LastError(), "Call Setup first")
	})

	t.Run("autoload removed", func(t *testing.T) {
		base := setupProject(t)
		c := newConnector()
		require.NoError(t, c.Setup(base))
		require.NoError(t, os.Remove(filepath.Join(base, "lib", "autoload.php")))

		_, ok := c.IsInstalled("components/bootstrap")
		assert.False(t, ok)
		assert.Contains(t, c.LastError(), "Can not locate autoload file")
	})

	t.Run("no lock file", func(t *testing.T) {
		base := setupProject(t)
		require.NoError(t, os.Remove(filepath.Join(base, "composer.lock")))
		c := newConnector()
		require.NoError(t, c.Setup(base))

		_, ok := c.IsInstalled("components/bootstrap")
		assert.False(t, ok)
		assert.Equal(t, "No composer.lock data found.", c.LastError())
	})

	t.Run("empty lock", func(t *testing.T) {
		base := setupProject(t)
		writeFile(t, base, "composer.lock", `{"hash": "x", "packages": []}`)
		c := newConnector()
		require.NoError(t, c.Setup(base))
		assert.True(t, c.Locked())

		_, ok := c.IsInstalled("components/bootstrap")
		assert.False(t, ok)
		assert.Equal(t, "No installed packages found.", c.LastError())
	})
}

func TestPackage_NotSetUp(t *testing.T) {
	t.Parallel()
	c := newConnector()

	ix, ok := c.Package("bootstrap", packages.NoFilter())
	assert.False(t, ok)
	assert.False(t, ix.Selected())
	assert.Equal(t, []string{"Connector not set up yet. Call Setup first."}, c.Errors())
}

func TestStateChanged(t *testing.T) {
	t.Parallel()
	assert.True(t, newConnector().StateChanged(), "An unloaded connector always reports a change")

	base := setupProject(t)
	c := newConnector()
	require.NoError(t, c.Setup(base))
	assert.False(t, c.StateChanged())

	// Only the lock file is authoritative once the project is locked.
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(base, "composer.json"), later, later))
	assert.False(t, c.StateChanged())

	require.NoError(t, os.Chtimes(filepath.Join(base, "composer.lock"), later, later))
	assert.True(t, c.StateChanged())

	require.NoError(t, c.Setup(base))
	assert.False(t, c.StateChanged())
}

func TestStateChanged_Unlocked(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	manifestPath := writeFile(t, base, "composer.json", `{"require": {"php": ">=7.4"}}`)
	c := newConnector()
	require.NoError(t, c.Setup(base))
	assert.False(t, c.StateChanged())

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(manifestPath, later, later))
	assert.True(t, c.StateChanged())

	require.NoError(t, c.Setup(base))
	require.False(t, c.StateChanged())
	writeFile(t, base, "composer.lock", fixtureLock)
	assert.True(t, c.StateChanged(), "A lock file appearing after setup is a change")
}

func TestSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()
	base := setupProject(t)
	c := newConnector()
	require.NoError(t, c.Setup(base))

	data, err := c.MarshalSnapshot()
	require.NoError(t, err)
	assert.Contains(t, string(data), `base_path = `)

	restored := newConnector()
	require.NoError(t, restored.UnmarshalSnapshot(data))
	assert.True(t, restored.IsSetup())
	assert.Equal(t, c.Snapshot(), restored.Snapshot())
	assert.Equal(t, c.State(), restored.State())
	assert.False(t, restored.StateChanged())

	version, ok := restored.IsInstalled("components/bootstrap")
	assert.True(t, ok)
	assert.Equal(t, "3.3.5", version)

	ix, ok := restored.Package("bootstrap", packages.Exact("component"))
	require.True(t, ok)
	assert.Equal(t, "https://packagist.org/downloads/", ix.Field("notificationUrl"))
	assert.Nil(t, ix.Field("dist"))
}

func TestSnapshot_Unloaded(t *testing.T) {
	t.Parallel()
	c := newConnector()
	assert.Equal(t, connector.Snapshot{}, c.Snapshot())

	require.NoError(t, c.Restore(connector.Snapshot{}))
	assert.False(t, c.IsSetup())

	err := c.Restore(connector.Snapshot{ManifestPath: "composer.json", Packages: []string{"{oops"}})
	assert.Error(t, err)
	assert.False(t, c.IsSetup())

	assert.Error(t, c.UnmarshalSnapshot([]byte("locked = [")))
}

func TestFlush(t *testing.T) {
	t.Parallel()
	base := setupProject(t)
	c := newConnector()
	require.NoError(t, c.Setup(base))
	_, ok := c.Package("bootstrap", packages.NoFilter())
	require.True(t, ok)
	_, _ = c.IsInstalled("components/missing")
	require.True(t, c.HasErrors())

	c.Flush()
	assert.False(t, c.IsSetup())
	assert.False(t, c.HasErrors())
	assert.Equal(t, newConnector().Snapshot(), c.Snapshot())
	assert.Equal(t, connector.State{}, c.State())
	assert.False(t, c.Packages().Selected())
	assert.True(t, c.StateChanged())
}

func TestAutoload(t *testing.T) {
	t.Parallel()

	_, err := newConnector().AutoloadFile()
	assert.ErrorIs(t, err, lasterror.ErrNotInitialized)

	base := setupProject(t)
	c := newConnector()
	require.NoError(t, c.Setup(base))

	path, err := c.AutoloadFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "lib", "autoload.php"), path)

	var included []string
	require.NoError(t, c.ConnectAutoloader(connector.IncluderFunc(func(p string) error {
		included = append(included, p)
		return nil
	})))
	assert.Equal(t, []string{path}, included)

	errBoom := errors.New("boom")
	err = c.ConnectAutoloader(connector.IncluderFunc(func(string) error { return errBoom }))
	assert.ErrorIs(t, err, errBoom)

	require.NoError(t, os.Remove(path))
	err = c.ConnectAutoloader(connector.IncluderFunc(func(string) error { return nil }))
	assert.ErrorIs(t, err, lasterror.ErrNoAutoload)
}

func TestAutoload_CreatedAfterSetup(t *testing.T) {
	t.Parallel()
	base := setupProject(t)
	require.NoError(t, os.Remove(filepath.Join(base, "lib", "autoload.php")))
	c := newConnector()
	require.NoError(t, c.Setup(base))
	assert.Empty(t, c.State().AutoloadPath)

	_, err := c.AutoloadFile()
	assert.ErrorIs(t, err, lasterror.ErrNoAutoload)

	writeFile(t, base, "lib/autoload.php", "<?php\n")
	path, err := c.AutoloadFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "lib", "autoload.php"), path)
}

func TestSatisfies(t *testing.T) {
	t.Parallel()
	base := setupProject(t)
	c := newConnector()
	require.NoError(t, c.Setup(base))

	ok, err := c.Satisfies("components/bootstrap", "^3.3")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Satisfies("components/bootstrap", ">=4.0")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Satisfies("components/missing", "*")
	assert.ErrorIs(t, err, lasterror.ErrNoPackage)

	_, err = c.Satisfies("components/bootstrap", "not a constraint")
	assert.Error(t, err)
}

func TestErrorHistory(t *testing.T) {
	t.Parallel()
	c := newConnector(
		connector.WithStackSize(2),
		connector.WithMessages(map[string]string{
			lasterror.CodeNotInitialized: "Setup has not run.",
		}),
	)

	_, _ = c.IsInstalled("a/b")
	_, _ = c.AutoloadFile()
	_, _ = c.Satisfies("a/b", "*")

	assert.Equal(t, []string{"Setup has not run.", "Setup has not run."}, c.Errors())
	assert.False(t, c.HasErrors())
	assert.Empty(t, c.LastError())

	c.SetMessages(nil)
	_, _ = c.IsInstalled("a/b")
	assert.Contains(t, c.LastError(), "Call Setup first")
}
