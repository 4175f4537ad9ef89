package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/nightconcept/pkgconn/internal/core/lasterror"
	"github.com/nightconcept/pkgconn/internal/core/packages"
)

const SettingsFileName = "pkgconn.toml"

// Output formats understood by the show command.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Settings are the per-project defaults of the pkgconn tool.
type Settings struct {
	// StackSize is how many error messages the connector keeps.
	StackSize int `toml:"stack_size,omitempty"`
	// TypeFilter is the default --type of show, e.g. "@plugin,theme" or "7".
	TypeFilter string `toml:"type_filter,omitempty"`
	// Format is the default --format of show.
	Format string `toml:"format,omitempty"`
	// Messages overrides error message templates by code.
	Messages map[string]string `toml:"messages,omitempty"`
}

// Defaults returns the settings used when no pkgconn.toml exists.
func Defaults() Settings {
	return Settings{
		StackSize: lasterror.DefaultStackSize,
		Format:    FormatText,
	}
}

// LoadSettings reads pkgconn.toml from dirPath. Values the file leaves out
// keep their defaults. A missing file is returned as an fs.ErrNotExist error.
func LoadSettings(dirPath string) (*Settings, error) {
	fullPath := filepath.Join(dirPath, SettingsFileName)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, err
	}

	settings := Defaults()
	if _, err := toml.Decode(string(data), &settings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fullPath, err)
	}
	if err := settings.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", fullPath, err)
	}
	return &settings, nil
}

// LoadSettingsOrDefault is LoadSettings with a missing file treated as the
// defaults.
func LoadSettingsOrDefault(dirPath string) (*Settings, error) {
	settings, err := LoadSettings(dirPath)
	if errors.Is(err, fs.ErrNotExist) {
		d := Defaults()
		return &d, nil
	}
	return settings, err
}

func (s Settings) validate() error {
	if s.StackSize < 0 {
		return fmt.Errorf("stack_size must not be negative, got %d", s.StackSize)
	}
	switch s.Format {
	case FormatText, FormatYAML, FormatJSON:
	default:
		return fmt.Errorf("unknown format %q", s.Format)
	}
	if _, err := packages.ParseTypeFilter(s.TypeFilter); err != nil {
		return fmt.Errorf("type_filter: %w", err)
	}
	return nil
}

// WriteSettings encodes settings into dirPath, replacing any existing file.
func WriteSettings(dirPath string, settings *Settings) error {
	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(settings); err != nil {
		return err
	}

	fullPath := filepath.Join(dirPath, SettingsFileName)
	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, err = file.Write(buf.Bytes())
	return err
}
