package connector

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/gjson"

	"github.com/nightconcept/pkgconn/internal/core/packages"
	"github.com/nightconcept/pkgconn/internal/core/project"
)

// Snapshot is the persistable form of a connector's loaded state. The
// manifest and each package are kept as JSON documents since lock file
// values may be null, which TOML cannot express.
type Snapshot struct {
	BasePath        string   `toml:"base_path"`
	VendorDir       string   `toml:"vendor_dir"`
	ManifestPath    string   `toml:"manifest_path"`
	LockPath        string   `toml:"lock_path,omitempty"`
	AutoloadPath    string   `toml:"autoload_path,omitempty"`
	Locked          bool     `toml:"locked"`
	Fingerprint     string   `toml:"fingerprint,omitempty"`
	LockFingerprint string   `toml:"lock_fingerprint,omitempty"`
	LockHash        string   `toml:"lock_hash,omitempty"`
	Manifest        string   `toml:"manifest,omitempty"`
	Packages        []string `toml:"packages,omitempty"`
}

// Snapshot captures the loaded state. An unloaded connector yields the
// zero Snapshot.
func (c *Connector) Snapshot() Snapshot {
	if !c.ready {
		return Snapshot{}
	}
	st := c.state
	s := Snapshot{
		BasePath:        st.BasePath,
		VendorDir:       st.VendorDir,
		ManifestPath:    st.ManifestPath,
		LockPath:        st.LockPath,
		AutoloadPath:    st.AutoloadPath,
		Locked:          st.Locked,
		Fingerprint:     st.Fingerprint,
		LockFingerprint: st.LockFingerprint,
		LockHash:        st.Lock.Hash,
	}
	if data, err := json.Marshal(st.Manifest); err == nil {
		s.Manifest = string(data)
	}
	for _, rec := range c.index.Packages() {
		data, err := json.Marshal(rec.Fields)
		if err != nil {
			c.logger.Warn("skipping package in snapshot", "package", rec.Name, "error", err)
			continue
		}
		s.Packages = append(s.Packages, string(data))
	}
	return s
}

// Restore replaces the connector state with s and rebuilds the package
// index. Restoring the zero Snapshot leaves the connector unloaded. Call
// StateChanged afterwards to learn whether the files moved on since s was
// taken.
func (c *Connector) Restore(s Snapshot) error {
	c.reset()
	if s.ManifestPath == "" {
		return nil
	}

	var mf project.Manifest
	if s.Manifest != "" {
		if err := json.Unmarshal([]byte(s.Manifest), &mf); err != nil {
			return fmt.Errorf("failed to restore manifest: %w", err)
		}
	}

	var records []project.PackageRecord
	if s.Locked {
		records = make([]project.PackageRecord, 0, len(s.Packages))
	}
	for i, raw := range s.Packages {
		if !gjson.Valid(raw) {
			return fmt.Errorf("failed to restore package %d: invalid JSON", i)
		}
		obj, ok := gjson.Parse(raw).Value().(map[string]any)
		if !ok {
			return fmt.Errorf("failed to restore package %d: not an object", i)
		}
		records = append(records, project.NewPackageRecord(obj))
	}

	c.state = State{
		BasePath:        s.BasePath,
		VendorDir:       s.VendorDir,
		ManifestPath:    s.ManifestPath,
		LockPath:        s.LockPath,
		AutoloadPath:    s.AutoloadPath,
		Locked:          s.Locked,
		Fingerprint:     s.Fingerprint,
		LockFingerprint: s.LockFingerprint,
		Manifest:        mf,
		Lock: project.LockData{
			Hash:        s.LockHash,
			Packages:    records,
			HasPackages: s.Locked,
		},
	}
	c.index = packages.New(records, c.errs)
	c.ready = true
	c.logger.Debug("connector restored", "base", s.BasePath, "packages", c.index.Len())
	return nil
}

// MarshalSnapshot encodes the current Snapshot as TOML.
func (c *Connector) MarshalSnapshot() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c.Snapshot()); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalSnapshot decodes a TOML snapshot and restores it.
func (c *Connector) UnmarshalSnapshot(data []byte) error {
	var s Snapshot
	if err := toml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return c.Restore(s)
}
