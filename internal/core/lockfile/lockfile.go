package lockfile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nightconcept/pkgconn/internal/core/jsonfile"
	"github.com/nightconcept/pkgconn/internal/core/lasterror"
	"github.com/nightconcept/pkgconn/internal/core/project"
)

const LockfileName = "composer.lock"

// Path returns the lock file location for projectRoot.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, LockfileName)
}

// Exists reports whether projectRoot has a lock file.
func Exists(projectRoot string) bool {
	info, err := os.Stat(Path(projectRoot))
	return err == nil && !info.IsDir()
}

// Load reads composer.lock from projectRoot.
func Load(projectRoot string) (*project.LockData, error) {
	return LoadFile(Path(projectRoot))
}

// LoadFile reads the lock file at path. A document that is not a JSON
// object yields lasterror.ErrFormat.
func LoadFile(path string) (*project.LockData, error) {
	doc, err := jsonfile.Load(path)
	if err != nil {
		return nil, err
	}
	obj, ok := doc.Object()
	if !ok {
		return nil, lasterror.File(lasterror.CodeFormat, path)
	}
	lock := Decode(obj)
	return &lock, nil
}

// Decode keeps the hash and packages of a decoded lock file. Entries of the
// packages array that are not objects are skipped.
func Decode(obj map[string]any) project.LockData {
	var lock project.LockData
	for key, value := range obj {
		switch strings.ToLower(key) {
		case "hash":
			lock.Hash, _ = value.(string)
		case "packages":
			list, ok := value.([]any)
			if !ok {
				continue
			}
			lock.HasPackages = true
			lock.Packages = make([]project.PackageRecord, 0, len(list))
			for _, item := range list {
				if data, ok := item.(map[string]any); ok {
					lock.Packages = append(lock.Packages, project.NewPackageRecord(data))
				}
			}
		}
	}
	return lock
}
