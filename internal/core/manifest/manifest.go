// Package manifest loads composer.json and keeps only the blocks the
// connector needs.
package manifest

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/nightconcept/pkgconn/internal/core/jsonfile"
	"github.com/nightconcept/pkgconn/internal/core/lasterror"
	"github.com/nightconcept/pkgconn/internal/core/project"
)

const FileName = "composer.json"
const DefaultVendorDir = "vendor"

// File is a loaded manifest.
type File struct {
	Path      string
	Manifest  project.Manifest
	VendorDir string // config.vendor-dir as written, or DefaultVendorDir
}

// Load reads composer.json from dir.
func Load(dir string) (*File, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile reads the manifest at path. Loader failures are returned as is;
// a document that is not a non-empty object yields lasterror.ErrFormat.
func LoadFile(path string) (*File, error) {
	doc, err := jsonfile.Load(path)
	if err != nil {
		return nil, err
	}
	obj, ok := doc.Object()
	if !ok || len(obj) == 0 {
		return nil, lasterror.File(lasterror.CodeFormat, path)
	}

	m := Filter(obj)
	vendorDir := DefaultVendorDir
	if v, ok := m.Config["vendor-dir"].(string); ok && v != "" {
		vendorDir = v
	}
	return &File{
		Path:      path,
		Manifest:  m,
		VendorDir: vendorDir,
	}, nil
}

// Filter keeps the require, repositories, config and extra blocks of a
// decoded manifest. Keys match case-insensitively; everything else is
// dropped. When a block appears under several spellings the lower-case key
// wins, then the lexically last of the others.
func Filter(obj map[string]any) project.Manifest {
	var m project.Manifest
	for _, key := range precedenceOrder(obj) {
		value := obj[key]
		switch strings.ToLower(key) {
		case "require":
			if req, ok := value.(map[string]any); ok {
				m.Require = make(map[string]string, len(req))
				for name, constraint := range req {
					if s, ok := constraint.(string); ok {
						m.Require[name] = s
					}
				}
			}
		case "repositories":
			if repos, ok := value.([]any); ok {
				m.Repositories = repos
			}
		case "config":
			if cfg, ok := value.(map[string]any); ok {
				m.Config = cfg
			}
		case "extra":
			if extra, ok := value.(map[string]any); ok {
				m.Extra = extra
			}
		}
	}
	return m
}

// precedenceOrder sorts keys so that later ones override earlier ones:
// exact lower-case keys come last.
func precedenceOrder(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		iExact, jExact := keys[i] == strings.ToLower(keys[i]), keys[j] == strings.ToLower(keys[j])
		if iExact != jExact {
			return jExact
		}
		return keys[i] < keys[j]
	})
	return keys
}
