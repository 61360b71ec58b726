package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "git", cfg.GitCmd)
	assert.Equal(t, ".", cfg.Dir)
	assert.Equal(t, "RELEASE-VERSION", cfg.CacheFile)
	assert.Empty(t, cfg.LogDir)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Git.Duration)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "relver-history.db", cfg.History.Path)
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "seconds", input: `"10s"`, want: 10 * time.Second},
		{name: "minutes", input: `"1m"`, want: time.Minute},
		{name: "compound", input: `"2m30s"`, want: 2*time.Minute + 30*time.Second},
		{name: "milliseconds", input: `"500ms"`, want: 500 * time.Millisecond},
		{name: "invalid", input: `"bogus"`, wantErr: true},
		{name: "number", input: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := yaml.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "test.yml")
	content := `
git_cmd: /opt/git/bin/git
dir: /src/pkg
cache_file: VERSION
verbose: true
timeouts:
  git: "30s"
history:
  enabled: true
  path: versions.db
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	cfg, loaded, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, cfgPath, loaded)
	assert.Equal(t, "/opt/git/bin/git", cfg.GitCmd)
	assert.Equal(t, "/src/pkg", cfg.Dir)
	assert.Equal(t, "VERSION", cfg.CacheFile)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Git.Duration)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "versions.db", cfg.History.Path)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "test.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("verbose: true\n"), 0o644))

	cfg, _, err := Load(cfgPath)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "git", cfg.GitCmd)
	assert.Equal(t, "RELEASE-VERSION", cfg.CacheFile)
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "test.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("git_cmd: [unclosed\n"), 0o644))

	_, _, err := Load(cfgPath)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	cfg := Default()

	gitCmd := "git2"
	dir := "/elsewhere"
	verbose := true
	cfg.Merge(CLIOverrides{
		GitCmd:  &gitCmd,
		Dir:     &dir,
		Verbose: &verbose,
	})

	assert.Equal(t, "git2", cfg.GitCmd)
	assert.Equal(t, "/elsewhere", cfg.Dir)
	assert.True(t, cfg.Verbose)
	// Untouched fields keep their values.
	assert.Equal(t, "RELEASE-VERSION", cfg.CacheFile)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty git_cmd",
			mutate:  func(c *Config) { c.GitCmd = "" },
			wantErr: "git_cmd",
		},
		{
			name:    "empty dir",
			mutate:  func(c *Config) { c.Dir = " " },
			wantErr: "dir",
		},
		{
			name:    "empty cache_file",
			mutate:  func(c *Config) { c.CacheFile = "" },
			wantErr: "cache_file",
		},
		{
			name:    "non-positive timeout",
			mutate:  func(c *Config) { c.Timeouts.Git = Duration{0} },
			wantErr: "timeouts.git",
		},
		{
			name: "history enabled without path",
			mutate: func(c *Config) {
				c.History.Enabled = true
				c.History.Path = ""
			},
			wantErr: "history.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCachePath(t *testing.T) {
	cfg := Default()
	cfg.Dir = "/src/pkg"

	assert.Equal(t, filepath.Join("/src/pkg", "RELEASE-VERSION"), cfg.CachePath())

	cfg.CacheFile = "/abs/RELEASE-VERSION"
	assert.Equal(t, "/abs/RELEASE-VERSION", cfg.CachePath())
}

func TestHistoryPath(t *testing.T) {
	cfg := Default()
	cfg.Dir = "/src/pkg"

	assert.Equal(t, filepath.Join("/src/pkg", "relver-history.db"), cfg.HistoryPath())
}

func TestDump_RoundTrips(t *testing.T) {
	cfg := Default()
	cfg.Verbose = true

	out, err := cfg.Dump()
	require.NoError(t, err)

	var back Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, cfg, back)
}
