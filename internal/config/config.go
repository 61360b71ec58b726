/*
Package config handles YAML configuration loading, validation, and
CLI flag merging for relver.

Configuration is resolved in this order (highest priority first):
  1. CLI flags (explicitly passed)
  2. Config file values
  3. Built-in defaults
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for relver.
type Config struct {
	GitCmd    string   `yaml:"git_cmd"`
	Dir       string   `yaml:"dir"`
	CacheFile string   `yaml:"cache_file"`
	LogDir    string   `yaml:"log_dir"`
	Verbose   bool     `yaml:"verbose"`
	Timeouts  Timeouts `yaml:"timeouts"`
	History   History  `yaml:"history"`
}

// Timeouts holds subprocess timeout configuration.
type Timeouts struct {
	Git Duration `yaml:"git"`
}

// History holds version-history logging configuration.
type History struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		GitCmd:    "git",
		Dir:       ".",
		CacheFile: "RELEASE-VERSION",
		LogDir:    "",
		Verbose:   false,
		Timeouts: Timeouts{
			Git: Duration{10 * time.Second},
		},
		History: History{
			Enabled: false,
			Path:    "relver-history.db",
		},
	}
}

// Load reads a config file from disk and parses it. If path is empty,
// it searches for relver.yml or relver.yaml in the working directory.
// Returns the parsed config and the path that was loaded (empty if none found).
func Load(path string) (Config, string, error) {
	cfg := Default()

	if path == "" {
		path = discover()
		if path == "" {
			return cfg, "", nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, path, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, path, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, path, nil
}

// discover searches for a config file in the working directory.
func discover() string {
	for _, name := range []string{"relver.yml", "relver.yaml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// CLIOverrides holds values from CLI flags that should override config file values.
// A nil value means the flag was not explicitly set.
type CLIOverrides struct {
	GitCmd    *string
	Dir       *string
	CacheFile *string
	LogDir    *string
	Verbose   *bool
}

// Merge applies CLI flag overrides to a loaded config. Only explicitly-set
// flags override config file values.
func (c *Config) Merge(o CLIOverrides) {
	if o.GitCmd != nil {
		c.GitCmd = *o.GitCmd
	}
	if o.Dir != nil {
		c.Dir = *o.Dir
	}
	if o.CacheFile != nil {
		c.CacheFile = *o.CacheFile
	}
	if o.LogDir != nil {
		c.LogDir = *o.LogDir
	}
	if o.Verbose != nil {
		c.Verbose = *o.Verbose
	}
}

// Validate checks the config for invalid values and returns an error
// describing all problems found.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.GitCmd) == "" {
		errs = append(errs, "git_cmd: must not be empty")
	}
	if strings.TrimSpace(c.Dir) == "" {
		errs = append(errs, "dir: must not be empty")
	}
	if strings.TrimSpace(c.CacheFile) == "" {
		errs = append(errs, "cache_file: must not be empty")
	}

	if c.Timeouts.Git.Duration <= 0 {
		errs = append(errs, fmt.Sprintf("timeouts.git: must be positive, got %s", c.Timeouts.Git))
	}

	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		errs = append(errs, "history.path: must not be empty when history is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}

	return nil
}

// Dump renders the resolved configuration as YAML.
func (c Config) Dump() ([]byte, error) {
	return yaml.Marshal(c)
}

// CachePath returns the cache file location, resolved against Dir when
// relative.
func (c Config) CachePath() string {
	return c.resolve(c.CacheFile)
}

// HistoryPath returns the history database location, resolved against
// Dir when relative.
func (c Config) HistoryPath() string {
	return c.resolve(c.History.Path)
}

func (c Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir, path)
}
