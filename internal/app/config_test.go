package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "empty root", mutate: func(c *Config) { c.Root = "" }, wantErr: "root is a required"},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: "workers must be at least 1"},
		{name: "negative cache", mutate: func(c *Config) { c.CacheSize = -1 }, wantErr: "cache size"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "invalid log level"},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "invalid log format"},
		{name: "no goals", mutate: func(c *Config) { c.Goals = nil }, wantErr: "at least one goal"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			got, err := NewConfig(cfg)

			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, cfg, *got)
		})
	}
}

func TestLoadFile(t *testing.T) {
	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "buildgrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
root: ./repo
goals: [compile]
targets:
  - src:app
workers: 8
fail_fast: true
`), 0o644))
	cfg := DefaultConfig()

	// --- Act ---
	err := LoadFile(path, &cfg)

	// --- Assert ---
	require.NoError(t, err)
	want := DefaultConfig()
	want.Root = "./repo"
	want.Goals = []string{"compile"}
	want.Targets = []string{"src:app"}
	want.Workers = 8
	want.FailFast = true
	want.ConfigFile = path
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("grid_path: x\n"), 0o644))

	cfg := DefaultConfig()
	assert.ErrorContains(t, LoadFile(unknown, &cfg), "field grid_path not found")
	assert.ErrorContains(t, LoadFile(filepath.Join(dir, "missing.yaml"), &cfg), "failed to read config file")
}

func TestLoadFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg := DefaultConfig()
	require.NoError(t, LoadFile(path, &cfg))
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadEnv(t *testing.T) {
	// --- Arrange ---
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"BUILDGRID_ROOT=/from/dotenv\nBUILDGRID_WORKERS=2\nBUILDGRID_LOG_FORMAT=JSON\n",
	), 0o644))
	t.Setenv(EnvWorkers, "16")
	t.Setenv(EnvFailFast, "true")
	cfg := DefaultConfig()

	// --- Act ---
	err := LoadEnv(&cfg, envFile)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.Root)
	assert.Equal(t, 16, cfg.Workers, "the process environment wins over the env file")
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.FailFast)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnv_Errors(t *testing.T) {
	testCases := []struct {
		key, value, wantErr string
	}{
		{key: EnvWorkers, value: "many", wantErr: EnvWorkers},
		{key: EnvFailFast, value: "sometimes", wantErr: EnvFailFast},
	}
	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			cfg := DefaultConfig()
			assert.ErrorContains(t, LoadEnv(&cfg, filepath.Join(t.TempDir(), ".env")), tc.wantErr)
		})
	}
}
