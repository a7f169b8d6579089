package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected defaults to load, got error: %v", err)
	}

	if cfg.Storage.Backend != BackendDir {
		t.Fatalf("expected dir backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.Root != "tests/fixtures" {
		t.Fatalf("unexpected fixture root: %s", cfg.Storage.Root)
	}
	if cfg.NowTolerance != 5*time.Second {
		t.Fatalf("unexpected now tolerance: %v", cfg.NowTolerance)
	}
}

func TestLoadFromEnvSuccess(t *testing.T) {
	t.Setenv("GOLDEN_FIXTURE_ROOT", "/srv/fixtures")
	t.Setenv("GOLDEN_STORAGE", "Redis")
	t.Setenv("GOLDEN_REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("GOLDEN_REDIS_DB", "3")
	t.Setenv("GOLDEN_REDIS_PREFIX", "ci:")
	t.Setenv("GOLDEN_NOW_TOLERANCE_MS", "1500")
	t.Setenv("GOLDEN_LOG_LEVEL", "debug")
	t.Setenv("GOLDEN_EXTRA_BLIND_FIELDS", "publishedAt, uuid")
	t.Setenv("GOLDEN_METRICS_FILE", "/var/lib/node_exporter/goldenapi.prom")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected successful load, got error: %v", err)
	}

	if cfg.Storage.Root != "/srv/fixtures" {
		t.Fatalf("unexpected root: %s", cfg.Storage.Root)
	}
	if cfg.Storage.Backend != BackendRedis {
		t.Fatalf("expected redis backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.Redis.Addr != "127.0.0.1:6379" || cfg.Storage.Redis.DB != 3 || cfg.Storage.Redis.Prefix != "ci:" {
		t.Fatalf("unexpected redis config: %+v", cfg.Storage.Redis)
	}
	if cfg.NowTolerance != 1500*time.Millisecond {
		t.Fatalf("unexpected tolerance: %v", cfg.NowTolerance)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
	if len(cfg.ExtraBlindFields) != 2 || cfg.ExtraBlindFields[0] != "publishedAt" || cfg.ExtraBlindFields[1] != "uuid" {
		t.Fatalf("unexpected blind fields: %#v", cfg.ExtraBlindFields)
	}
	if cfg.MetricsFile != "/var/lib/node_exporter/goldenapi.prom" {
		t.Fatalf("unexpected metrics file: %s", cfg.MetricsFile)
	}
}

func TestLoadTrimsPaddedTolerance(t *testing.T) {
	t.Setenv("GOLDEN_NOW_TOLERANCE_MS", " 250 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected padded tolerance to load, got error: %v", err)
	}
	if cfg.NowTolerance != 250*time.Millisecond {
		t.Fatalf("unexpected now tolerance: %v", cfg.NowTolerance)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"tolerance":     {"GOLDEN_NOW_TOLERANCE_MS": "-5"},
		"redis db":      {"GOLDEN_REDIS_DB": "one"},
		"backend":       {"GOLDEN_STORAGE": "badger"},
		"redis address": {"GOLDEN_STORAGE": "redis"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestLoadFileAppliesYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goldenapi.yaml")
	data := `storage:
  backend: sqlite
  root: fixtures
  sqlitePath: fixtures/suite.sqlite
nowTolerance: 3s
logLevel: warn
extraBlindFields: [publishedAt]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GOLDEN_LOG_LEVEL", "error")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}

	if cfg.Storage.Backend != BackendSQLite || cfg.Storage.SQLitePath != "fixtures/suite.sqlite" {
		t.Fatalf("unexpected storage: %+v", cfg.Storage)
	}
	if cfg.NowTolerance != 3*time.Second {
		t.Fatalf("unexpected tolerance: %v", cfg.NowTolerance)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("expected env to override file log level, got %s", cfg.LogLevel)
	}
	if len(cfg.ExtraBlindFields) != 1 || cfg.ExtraBlindFields[0] != "publishedAt" {
		t.Fatalf("unexpected blind fields: %#v", cfg.ExtraBlindFields)
	}
}

func TestLoadFileRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goldenapi.yaml")
	if err := os.WriteFile(path, []byte("nowTolerance: soon\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
