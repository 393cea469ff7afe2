package config_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/derickschaefer/workwatch/internal/config"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// writeConfig writes a config.json into dir and changes the working directory
// to dir for the duration of the test.
func writeConfig(t *testing.T, dir string, f config.File) {
	t.Helper()
	if err := config.WriteFile(filepath.Join(dir, "config.json"), f); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)
}

func intp(n int) *int { return &n }

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

// clearEnv unsets WORKWATCH_DB_PATH and WORKWATCH_LOG_LEVEL for the test.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvDBPath, "")
	t.Setenv(config.EnvLogLevel, "")
}

// ─── Defaults ─────────────────────────────────────────────────────────────────

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Format != config.DefaultFormat {
		t.Errorf("Format: expected %q, got %q", config.DefaultFormat, cfg.Format)
	}
	if cfg.Timeout != config.DefaultTimeout {
		t.Errorf("Timeout: expected %v, got %v", config.DefaultTimeout, cfg.Timeout)
	}
	if cfg.Rate != config.DefaultRate {
		t.Errorf("Rate: expected %g, got %g", config.DefaultRate, cfg.Rate)
	}
	if cfg.ViolationThreshold != 50 {
		t.Errorf("ViolationThreshold: expected 50, got %d", cfg.ViolationThreshold)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel: expected warn, got %q", cfg.LogLevel)
	}
	if !strings.HasSuffix(cfg.DBPath, filepath.Join(".workwatch", "workwatch.db")) {
		t.Errorf("DBPath should default under the home directory, got %q", cfg.DBPath)
	}
	if cfg.ConfigPath != "" {
		t.Errorf("ConfigPath should be empty when no file found, got %q", cfg.ConfigPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

// ─── Config file loading ──────────────────────────────────────────────────────

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{
		DefaultFormat:      "json",
		Timeout:            "60s",
		Rate:               2.5,
		Latency:            "150ms",
		DBPath:             "/tmp/test.db",
		SeedPath:           "/tmp/seed.yaml",
		ViolationThreshold: intp(60),
		LogLevel:           "debug",
		Author:             "Менеджер",
	})

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Format != "json" {
		t.Errorf("Format: expected json, got %q", cfg.Format)
	}
	if cfg.Timeout != time.Minute {
		t.Errorf("Timeout: expected 1m0s, got %s", cfg.Timeout)
	}
	if cfg.Rate != 2.5 {
		t.Errorf("Rate: expected 2.5, got %g", cfg.Rate)
	}
	if cfg.Latency != 150*time.Millisecond {
		t.Errorf("Latency: expected 150ms, got %s", cfg.Latency)
	}
	if cfg.DBPath != "/tmp/test.db" || cfg.SeedPath != "/tmp/seed.yaml" {
		t.Errorf("paths: got db=%q seed=%q", cfg.DBPath, cfg.SeedPath)
	}
	if cfg.ViolationThreshold != 60 {
		t.Errorf("ViolationThreshold: expected 60, got %d", cfg.ViolationThreshold)
	}
	if cfg.LogLevel != "debug" || cfg.Author != "Менеджер" {
		t.Errorf("log_level/author: got %q/%q", cfg.LogLevel, cfg.Author)
	}
	if !strings.Contains(cfg.ConfigPath, "config.json") {
		t.Errorf("ConfigPath should contain config.json, got %q", cfg.ConfigPath)
	}
}

func TestLoadZeroThresholdFromFile(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{ViolationThreshold: intp(0)})

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ViolationThreshold != 0 {
		t.Errorf("ViolationThreshold: expected 0 from file, got %d", cfg.ViolationThreshold)
	}
}

func TestLoadInvalidDurationsIgnored(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{Timeout: "not-a-duration", Latency: "soon"})

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeout != config.DefaultTimeout || cfg.Latency != config.DefaultLatency {
		t.Errorf("invalid durations should use defaults, got %s/%s", cfg.Timeout, cfg.Latency)
	}
}

func TestLoadMalformedFileErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	if _, err := config.Load(""); err == nil {
		t.Error("malformed config.json should be reported")
	}
}

// ─── Environment and flag priority ────────────────────────────────────────────

func TestLoadEnvOverridesFile(t *testing.T) {
	writeConfig(t, t.TempDir(), config.File{DBPath: "/file.db", LogLevel: "info"})
	t.Setenv(config.EnvDBPath, "/env.db")
	t.Setenv(config.EnvLogLevel, "error")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/env.db" {
		t.Errorf("WORKWATCH_DB_PATH should override file: got %q", cfg.DBPath)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("WORKWATCH_LOG_LEVEL should override file: got %q", cfg.LogLevel)
	}
}

func TestLoadFlagOverridesEnvAndFile(t *testing.T) {
	writeConfig(t, t.TempDir(), config.File{DBPath: "/file.db"})
	t.Setenv(config.EnvDBPath, "/env.db")

	cfg, err := config.Load("/flag.db")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/flag.db" {
		t.Errorf("--db should override env and file: got %q", cfg.DBPath)
	}
}

// ─── Validate ─────────────────────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{Format: "table", Rate: 1, ViolationThreshold: 50, LogLevel: "warn", DBPath: "/x.db"}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	cases := map[string]func(*config.Config){
		"format":    func(c *config.Config) { c.Format = "xml" },
		"threshold": func(c *config.Config) { c.ViolationThreshold = 101 },
		"rate":      func(c *config.Config) { c.Rate = 0 },
		"latency":   func(c *config.Config) { c.Latency = -time.Second },
		"log level": func(c *config.Config) { c.LogLevel = "loud" },
		"db path":   func(c *config.Config) { c.DBPath = "" },
	}
	for name, mutate := range cases {
		c := valid()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

// ─── Set ──────────────────────────────────────────────────────────────────────

func TestSet(t *testing.T) {
	f := config.Template()
	for _, kv := range [][2]string{
		{"format", "csv"}, {"timeout", "45s"}, {"rate", "3"}, {"latency", "250ms"},
		{"db_path", "/data/w.db"}, {"threshold", "70"}, {"log_level", "debug"}, {"author", "Менеджер"},
	} {
		if err := config.Set(&f, kv[0], kv[1]); err != nil {
			t.Fatalf("Set(%s, %s): %v", kv[0], kv[1], err)
		}
	}
	if f.DefaultFormat != "csv" || f.Timeout != "45s" || f.Rate != 3 || f.Latency != "250ms" ||
		f.DBPath != "/data/w.db" || f.ViolationThreshold == nil || *f.ViolationThreshold != 70 || f.LogLevel != "debug" || f.Author != "Менеджер" {
		t.Errorf("unexpected file after Set: %+v", f)
	}
}

func TestSetRejectsBadValues(t *testing.T) {
	f := config.Template()
	for _, kv := range [][2]string{
		{"format", "xml"}, {"timeout", "soon"}, {"rate", "-1"}, {"threshold", "150"}, {"log_level", "loud"},
	} {
		if err := config.Set(&f, kv[0], kv[1]); err == nil {
			t.Errorf("Set(%s, %s): expected error", kv[0], kv[1])
		}
	}
	if err := config.Set(&f, "api_key", "x"); !errors.Is(err, config.ErrUnknownKey) {
		t.Errorf("unknown key: expected ErrUnknownKey, got %v", err)
	}
}

// ─── WriteFile / Template ─────────────────────────────────────────────────────

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	f := config.File{DefaultFormat: "md", Timeout: "45s", Rate: 3, ViolationThreshold: intp(40), Author: "Менеджер"}
	if err := config.WriteFile(path, f); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := config.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !reflect.DeepEqual(*got, f) {
		t.Errorf("round trip: expected %+v, got %+v", f, *got)
	}
}

func TestWriteFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := config.WriteFile(path, config.Template()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file permissions: expected 0600, got %04o", info.Mode().Perm())
	}
}

func TestTemplateIsValidJSONWithDefaults(t *testing.T) {
	data, err := json.Marshal(config.Template())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var f config.File
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if f.DefaultFormat != "table" || f.Timeout != "30s" || f.ViolationThreshold == nil || *f.ViolationThreshold != 50 {
		t.Errorf("unexpected template: %+v", f)
	}
}

func TestRowsIncludeEveryKey(t *testing.T) {
	cfg := &config.Config{Format: "table"}
	rows := cfg.Rows()
	seen := map[string]bool{}
	for _, r := range rows {
		seen[r[0]] = true
	}
	for _, k := range config.Keys {
		if !seen[k] {
			t.Errorf("Rows missing %s", k)
		}
	}
}
