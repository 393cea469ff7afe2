// Package config handles loading and resolving workwatch configuration.
// Resolution order (first non-empty value wins):
//  1. CLI flag --db
//  2. Environment variables WORKWATCH_DB_PATH and WORKWATCH_LOG_LEVEL
//  3. config.json in the current working directory
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultConfigFile         = "config.json"
	DefaultFormat             = "table"
	DefaultTimeout            = 30 * time.Second
	DefaultRate               = 20.0
	DefaultLatency            = 0 * time.Millisecond
	DefaultViolationThreshold = 50
	DefaultLogLevel           = "warn"
	DefaultAuthor             = "Администратор"
	EnvDBPath                 = "WORKWATCH_DB_PATH"
	EnvLogLevel               = "WORKWATCH_LOG_LEVEL"
)

// Formats lists the output formats default_format accepts.
var Formats = []string{"table", "json", "jsonl", "csv", "tsv", "md"}

// Keys lists the settable config.json keys in display order.
var Keys = []string{"default_format", "timeout", "rate", "latency", "db_path", "seed_path", "violation_threshold", "log_level", "author"}

// ErrUnknownKey is returned by Set for a key not in Keys.
var ErrUnknownKey = errors.New("unknown config key")

// File is the on-disk representation of config.json.
type File struct {
	DefaultFormat      string  `json:"default_format"`
	Timeout            string  `json:"timeout"`
	Rate               float64 `json:"rate"`
	Latency            string  `json:"latency,omitempty"`
	DBPath             string  `json:"db_path,omitempty"`
	SeedPath           string  `json:"seed_path,omitempty"`
	ViolationThreshold *int    `json:"violation_threshold,omitempty"`
	LogLevel           string  `json:"log_level,omitempty"`
	Author             string  `json:"author,omitempty"`
}

// Config is the fully-resolved runtime configuration.
// All callers use this struct; the File is only read during loading.
type Config struct {
	Format             string
	Timeout            time.Duration
	Rate               float64
	Latency            time.Duration
	DBPath             string
	SeedPath           string
	ViolationThreshold int
	LogLevel           string
	Author             string
	ConfigPath         string // path of the config.json that was loaded (empty if none found)

	// Runtime overrides set from CLI flags after Load()
	Quiet   bool
	Verbose bool
	Debug   bool
}

// Load resolves configuration from all sources.
// flagDB is the value of --db (empty string if not set).
func Load(flagDB string) (*Config, error) {
	cfg := &Config{
		Format:             DefaultFormat,
		Timeout:            DefaultTimeout,
		Rate:               DefaultRate,
		Latency:            DefaultLatency,
		ViolationThreshold: DefaultViolationThreshold,
		LogLevel:           DefaultLogLevel,
		Author:             DefaultAuthor,
	}

	// Layer 1: config.json (lowest priority)
	f, path, err := loadFile()
	switch {
	case err == nil:
		applyFile(cfg, f, path)
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	// Layer 2: environment variables
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	// Layer 3: CLI flag (highest priority)
	if flagDB != "" {
		cfg.DBPath = flagDB
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DBPath = filepath.Join(home, ".workwatch", "workwatch.db")
		}
	}

	return cfg, nil
}

// Validate returns an error if a resolved value is out of range.
func (c *Config) Validate() error {
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("default_format %q is not one of %s", c.Format, strings.Join(Formats, ", "))
	}
	if c.ViolationThreshold < 0 || c.ViolationThreshold > 100 {
		return fmt.Errorf("violation_threshold %d is outside 0-100", c.ViolationThreshold)
	}
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %g", c.Rate)
	}
	if c.Latency < 0 {
		return fmt.Errorf("latency must not be negative, got %s", c.Latency)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	if c.DBPath == "" {
		return errors.New("db_path is not set and no home directory is available; pass --db or set " + EnvDBPath)
	}
	return nil
}

// loadFile attempts to read config.json from the current working directory.
func loadFile() (*File, string, error) {
	path, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return nil, "", err
	}
	f, err := ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}

// ReadFile parses a config.json at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config.json not found at %s: %w", path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("reading config.json: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, nil
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	if f.DefaultFormat != "" {
		cfg.Format = f.DefaultFormat
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			cfg.Timeout = d
		}
	}
	if f.Rate > 0 {
		cfg.Rate = f.Rate
	}
	if f.Latency != "" {
		if d, err := time.ParseDuration(f.Latency); err == nil {
			cfg.Latency = d
		}
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.SeedPath != "" {
		cfg.SeedPath = f.SeedPath
	}
	if f.ViolationThreshold != nil {
		cfg.ViolationThreshold = *f.ViolationThreshold
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.Author != "" {
		cfg.Author = f.Author
	}
}

// Set assigns one config.json key from its string form.
func Set(f *File, key, val string) error {
	switch strings.ToLower(key) {
	case "default_format", "format":
		if !slices.Contains(Formats, val) {
			return fmt.Errorf("default_format must be one of %s", strings.Join(Formats, ", "))
		}
		f.DefaultFormat = val
	case "timeout":
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("timeout must be a duration such as 30s: %w", err)
		}
		f.Timeout = val
	case "rate":
		r, err := strconv.ParseFloat(val, 64)
		if err != nil || r <= 0 {
			return fmt.Errorf("rate must be a positive number")
		}
		f.Rate = r
	case "latency":
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("latency must be a duration such as 200ms: %w", err)
		}
		f.Latency = val
	case "db_path":
		f.DBPath = val
	case "seed_path":
		f.SeedPath = val
	case "violation_threshold", "threshold":
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 || n > 100 {
			return fmt.Errorf("violation_threshold must be an integer from 0 to 100")
		}
		f.ViolationThreshold = &n
	case "log_level":
		if _, err := zerolog.ParseLevel(val); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
		f.LogLevel = val
	case "author":
		f.Author = val
	default:
		return fmt.Errorf("%w: %q\n\nValid keys: %s", ErrUnknownKey, key, strings.Join(Keys, ", "))
	}
	return nil
}

// Rows returns the resolved configuration as key/value pairs for display.
func (c *Config) Rows() [][]string {
	src := "(not found)"
	if c.ConfigPath != "" {
		src = c.ConfigPath
	}
	seed := c.SeedPath
	if seed == "" {
		seed = "(built-in)"
	}
	return [][]string{
		{"default_format", c.Format},
		{"timeout", c.Timeout.String()},
		{"rate", fmt.Sprintf("%.1f req/s", c.Rate)},
		{"latency", c.Latency.String()},
		{"db_path", c.DBPath},
		{"seed_path", seed},
		{"violation_threshold", strconv.Itoa(c.ViolationThreshold)},
		{"log_level", c.LogLevel},
		{"author", c.Author},
		{"config_file", src},
	}
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config.json via `workwatch config init`.
func Template() File {
	threshold := DefaultViolationThreshold
	return File{
		DefaultFormat:      DefaultFormat,
		Timeout:            "30s",
		Rate:               DefaultRate,
		Latency:            "0s",
		ViolationThreshold: &threshold,
		LogLevel:           DefaultLogLevel,
		Author:             DefaultAuthor,
	}
}

// WriteFile serialises a File to the given path.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
