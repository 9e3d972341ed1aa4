// Package config loads and saves the engine's configuration file: a flat
// JSON object at $HOME/.logtrackerapp (spec.md §6).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const fileName = ".logtrackerapp"

// defaultZoneID is the current-tier raid zone id the original hardcoded
// (SPEC_FULL.md "Zone ID"), used when a config file predates the field or
// omits it.
const defaultZoneID = 1017

// Config is the original UpdaterConfig's field set, generalized with a
// configurable ZoneID (SPEC_FULL.md "Config-file round trip matching the
// original field set" / "Zone ID").
type Config struct {
	GameDir   string `json:"game_dir"`
	APIID     string `json:"api_id"`
	APISecret string `json:"api_secret"`
	ZoneID    int    `json:"zone_id,omitempty"`
}

// Path returns the configuration file path under the user's home directory.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, fileName), nil
}

// Load reads the configuration file. A missing file yields empty defaults,
// not an error. A malformed file yields a *LoadError.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{ZoneID: defaultZoneID}, nil
		}
		return Config{}, NewLoadError(path, err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, NewLoadError(path, err)
	}
	if cfg.ZoneID == 0 {
		cfg.ZoneID = defaultZoneID
	}
	return cfg, nil
}

// Save persists cfg to the configuration file. ViewBridge setters call this
// immediately on every mutation (SPEC_FULL.md "Config-file round trip").
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return NewLoadError(path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return NewLoadError(path, err)
	}
	return nil
}
