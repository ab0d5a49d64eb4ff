package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadEnv.
const (
	EnvRoot      = "BUILDGRID_ROOT"
	EnvWorkers   = "BUILDGRID_WORKERS"
	EnvLogLevel  = "BUILDGRID_LOG_LEVEL"
	EnvLogFormat = "BUILDGRID_LOG_FORMAT"
	EnvFailFast  = "BUILDGRID_FAIL_FAST"
)

// DefaultEnvFile is the dotenv file LoadEnv reads when it exists.
const DefaultEnvFile = ".env"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Root is the directory declaration namespaces are resolved against.
	Root string `yaml:"root"`
	// Goals are goal names or product kinds to build.
	Goals []string `yaml:"goals"`
	// Targets are the root addresses, relative to Root.
	Targets []string `yaml:"targets"`

	Workers   int    `yaml:"workers"`
	FailFast  bool   `yaml:"fail_fast"`
	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`
	// CacheSize bounds the number of parsed declaration files kept in memory.
	CacheSize int `yaml:"cache_size"`

	ConfigFile string `yaml:"-"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Root:      ".",
		Goals:     []string{"identity"},
		Workers:   4,
		LogFormat: "text",
		LogLevel:  "info",
		CacheSize: 1024,
	}
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Root == "" {
		return nil, errors.New("root is a required configuration field and cannot be empty")
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.CacheSize < 0 {
		return nil, fmt.Errorf("cache size cannot be negative, got %d", cfg.CacheSize)
	}
	if _, ok := logLevels[cfg.LogLevel]; !ok {
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if len(cfg.Goals) == 0 {
		return nil, errors.New("at least one goal is required")
	}
	return &cfg, nil
}

// LoadFile overlays the YAML file at path onto cfg. Fields absent from the
// file keep their current values; unknown fields are an error.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.ConfigFile = path
	return nil
}

// LoadEnv overlays BUILDGRID_* variables onto cfg. Values from envFile, if
// it exists, are used where the process environment does not set them.
func LoadEnv(cfg *Config, envFile string) error {
	fileEnv := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileEnv = vals
		case !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}
	return applyEnv(cfg, lookup)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvRoot); ok && v != "" {
		cfg.Root = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		cfg.Workers = n
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v, ok := lookup(EnvFailFast); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFailFast, err)
		}
		cfg.FailFast = b
	}
	return nil
}
