// Package config handles loading and saving fraudppr configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/fraudppr/config.yaml
//   - Data:   ~/.local/share/fraudppr/ (exported reports, cached fixtures)
//   - State:  ~/.local/state/fraudppr/ (last-run bookkeeping)
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SolverConfig holds the default tunables for both PPR solvers. These are
// the EngineConfig values named in SPEC_FULL.md §3, persisted so a CLI
// invocation without explicit flags still behaves consistently run to run.
type SolverConfig struct {
	Alpha    float64 `yaml:"alpha,omitempty"`
	Tol      float64 `yaml:"tol,omitempty"`
	MaxIter  int     `yaml:"max_iter,omitempty"`
	NumWalks int     `yaml:"num_walks,omitempty"`
	MaxSteps int     `yaml:"max_steps,omitempty"`
	Weighted *bool   `yaml:"weighted,omitempty"`
}

// CLIConfig holds CLI presentation preferences.
type CLIConfig struct {
	DefaultAlgorithm string `yaml:"default_algorithm,omitempty"` // power, monte_carlo
	DefaultK         int    `yaml:"default_k,omitempty"`
	OutputFormat     string `yaml:"output_format,omitempty"` // csv, json
}

// Config is the top-level configuration for fraudppr.
type Config struct {
	Solver SolverConfig `yaml:"solver,omitempty"`
	CLI    CLIConfig    `yaml:"cli,omitempty"`
}

// DefaultConfig returns a Config with the engine's documented defaults:
// alpha = 0.85 (the teleport probability used verbatim in spec.md's
// testable-property scenarios), tol = 1e-8, max_iter = 100,
// num_walks = 10000, max_steps = 20, weighted = true.
func DefaultConfig() Config {
	weighted := true
	return Config{
		Solver: SolverConfig{
			Alpha:    0.85,
			Tol:      1e-8,
			MaxIter:  100,
			NumWalks: 10000,
			MaxSteps: 20,
			Weighted: &weighted,
		},
		CLI: CLIConfig{
			DefaultAlgorithm: "power",
			DefaultK:         20,
			OutputFormat:     "csv",
		},
	}
}

// ConfigDir returns the XDG config directory for fraudppr.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "fraudppr")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "fraudppr")
}

// DataDir returns the XDG data directory for fraudppr.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "fraudppr")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "fraudppr")
}

// StateDir returns the XDG state directory for fraudppr.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "fraudppr")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "fraudppr")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path, filling any unset field with
// the matching DefaultConfig value. Returns DefaultConfig if the file
// doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// IsWeighted returns the solver's weighted-vs-unweighted default, defaulting
// to true if unset.
func (c Config) IsWeighted() bool {
	if c.Solver.Weighted == nil {
		return true
	}
	return *c.Solver.Weighted
}
