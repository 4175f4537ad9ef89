package connector

import (
	"os"
	"path/filepath"

	"github.com/nightconcept/pkgconn/internal/core/hasher"
	"github.com/nightconcept/pkgconn/internal/core/lockfile"
	"github.com/nightconcept/pkgconn/internal/core/manifest"
	"github.com/nightconcept/pkgconn/internal/core/project"
)

// AutoloadFileName is the entry point Composer generates in the vendor
// directory.
const AutoloadFileName = "autoload.php"

// State is what a successful Setup learned about a project. The zero value
// is the unloaded state.
type State struct {
	BasePath     string
	VendorDir    string
	ManifestPath string
	LockPath     string // set whenever a lock file existed at setup
	AutoloadPath string // empty when the autoload file did not exist at setup
	Locked       bool   // the lock file had a packages array

	// Fingerprint covers the lock file when Locked, else the manifest.
	Fingerprint string
	// LockFingerprint covers the lock file of an unlocked project, empty
	// when there was none.
	LockFingerprint string

	Manifest project.Manifest
	Lock     project.LockData
}

func (s State) authoritativePath() string {
	if s.Locked {
		return s.LockPath
	}
	return s.ManifestPath
}

// load reads the project in basePath without touching the connector. Lock
// file problems are reported through warn and leave the project unlocked.
func load(basePath string, warn func(error)) (State, []project.PackageRecord, error) {
	mf, err := manifest.Load(basePath)
	if err != nil {
		return State{}, nil, err
	}

	st := State{
		BasePath:     basePath,
		ManifestPath: mf.Path,
		VendorDir:    vendorDir(basePath, mf.VendorDir),
		Manifest:     mf.Manifest,
	}
	if autoload := filepath.Join(st.VendorDir, AutoloadFileName); fileExists(autoload) {
		st.AutoloadPath = autoload
	}

	var records []project.PackageRecord
	if lockfile.Exists(basePath) {
		st.LockPath = lockfile.Path(basePath)
		lock, err := lockfile.Load(basePath)
		if err != nil {
			warn(err)
		} else {
			st.Lock = *lock
			if lock.HasPackages {
				st.Locked = true
				records = lock.Packages
			}
		}
	}

	st.Fingerprint, _ = hasher.Fingerprint(st.authoritativePath())
	if !st.Locked && st.LockPath != "" {
		st.LockFingerprint, _ = hasher.Fingerprint(st.LockPath)
	}
	return st, records, nil
}

func vendorDir(basePath, dir string) string {
	dir = filepath.FromSlash(dir)
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(basePath, dir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
