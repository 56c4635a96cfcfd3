// Package config reads and writes the user settings: the data-entry unit,
// the default direction offset, the adjustment tolerance and the feature
// database location. Settings are read once at startup and passed to the
// code that needs them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/chazu/cadpath/pkg/construct"
	"github.com/chazu/cadpath/pkg/observation"
	"github.com/chazu/cadpath/pkg/traverse"
)

// Environment variables that override the settings file.
const (
	EnvConfig = "CADPATH_CONFIG"
	EnvUnits  = "CADPATH_UNITS"
	EnvOffset = "CADPATH_OFFSET"
	EnvDB     = "CADPATH_DB"
)

// Settings are the persisted user preferences.
type Settings struct {
	EntryUnit observation.Unit `toml:"entry_unit"`
	// DefaultOffset is a signed distance in meters; negative means left.
	DefaultOffset float64 `toml:"default_offset"`
	Tolerance     float64 `toml:"tolerance"`
	Database      string  `toml:"database,omitempty"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		EntryUnit: observation.Meters,
		Tolerance: traverse.DefaultTolerance,
	}
}

// DefaultPath returns $CADPATH_CONFIG, or settings.toml under the user's
// config directory.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cadpath", "settings.toml"), nil
}

// Load reads settings from path and applies environment overrides. A
// missing file yields the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return s, fmt.Errorf("reading settings: %w", err)
	default:
		if err := toml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parsing settings %s: %w", path, err)
		}
	}
	if err := s.applyEnv(); err != nil {
		return s, err
	}
	return s, s.Validate()
}

// Save writes settings to path, creating its directory.
func Save(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func (s *Settings) applyEnv() error {
	if v := os.Getenv(EnvUnits); v != "" {
		u, err := observation.ParseUnit(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvUnits, err)
		}
		s.EntryUnit = u
	}
	if v := os.Getenv(EnvOffset); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvOffset, err)
		}
		s.DefaultOffset = f
	}
	s.Database = getEnv(EnvDB, s.Database)
	return nil
}

// Validate rejects settings no operation can use.
func (s Settings) Validate() error {
	if _, err := s.EntryUnit.MarshalText(); err != nil {
		return fmt.Errorf("entry unit: %w", err)
	}
	if s.Tolerance < 0 {
		return fmt.Errorf("tolerance must not be negative, got %g", s.Tolerance)
	}
	return nil
}

// Defaults returns the builder defaults these settings describe.
func (s Settings) Defaults() construct.Defaults {
	return construct.Defaults{Offset: s.DefaultOffset, EntryUnit: s.EntryUnit}
}

// AdjustOptions returns the traverse options these settings describe.
func (s Settings) AdjustOptions() traverse.Options {
	return traverse.Options{Tolerance: s.Tolerance}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}
