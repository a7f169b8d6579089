package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backend names.
const (
	BackendDir    = "dir"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config captures runtime configuration for fixture verification.
type Config struct {
	Storage          Storage
	NowTolerance     time.Duration
	LogLevel         string
	ExtraBlindFields []string
	MetricsFile      string
}

// Storage selects and configures the fixture backing store.
type Storage struct {
	Backend    string      `yaml:"backend"`
	Root       string      `yaml:"root"`
	SQLitePath string      `yaml:"sqlitePath"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig captures Redis connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

var errMissingRedisAddr = errors.New("GOLDEN_REDIS_ADDR must be provided for the redis backend")

const (
	defaultFixtureRoot  = "tests/fixtures"
	defaultNowTolerance = 5 * time.Second
	defaultLogLevel     = "info"
)

// Default returns baseline configuration values.
func Default() Config {
	return Config{
		Storage: Storage{
			Backend: BackendDir,
			Root:    defaultFixtureRoot,
		},
		NowTolerance: defaultNowTolerance,
		LogLevel:     defaultLogLevel,
	}
}

// Load constructs configuration using environment variables, falling back to defaults.
func Load() (Config, error) {
	cfg := Default()
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFile reads a YAML configuration file and applies environment overrides on top.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := file.apply(&cfg); err != nil {
		return cfg, err
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendDir:
		if strings.TrimSpace(c.Storage.Root) == "" {
			return errors.New("fixture root must be provided for the dir backend")
		}
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			return errMissingRedisAddr
		}
	default:
		return fmt.Errorf("invalid storage backend: %s", c.Storage.Backend)
	}
	if c.NowTolerance <= 0 {
		return fmt.Errorf("now tolerance must be positive: %s", c.NowTolerance)
	}
	return nil
}

// fileConfig mirrors Config with durations spelled as strings ("5s").
type fileConfig struct {
	Storage          Storage  `yaml:"storage"`
	NowTolerance     string   `yaml:"nowTolerance"`
	LogLevel         string   `yaml:"logLevel"`
	ExtraBlindFields []string `yaml:"extraBlindFields"`
	MetricsFile      string   `yaml:"metricsFile"`
}

func (f fileConfig) apply(cfg *Config) error {
	if f.Storage.Backend != "" {
		cfg.Storage.Backend = strings.ToLower(f.Storage.Backend)
	}
	if f.Storage.Root != "" {
		cfg.Storage.Root = f.Storage.Root
	}
	cfg.Storage.SQLitePath = f.Storage.SQLitePath
	cfg.Storage.Redis = f.Storage.Redis

	if f.NowTolerance != "" {
		d, err := time.ParseDuration(f.NowTolerance)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid nowTolerance: %s", f.NowTolerance)
		}
		cfg.NowTolerance = d
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	cfg.ExtraBlindFields = f.ExtraBlindFields
	cfg.MetricsFile = f.MetricsFile
	return nil
}

func applyEnv(cfg *Config) error {
	if root := strings.TrimSpace(os.Getenv("GOLDEN_FIXTURE_ROOT")); root != "" {
		cfg.Storage.Root = root
	}

	if backend := strings.TrimSpace(os.Getenv("GOLDEN_STORAGE")); backend != "" {
		cfg.Storage.Backend = strings.ToLower(backend)
	}

	if path := strings.TrimSpace(os.Getenv("GOLDEN_SQLITE_PATH")); path != "" {
		cfg.Storage.SQLitePath = path
	}

	if addr := strings.TrimSpace(os.Getenv("GOLDEN_REDIS_ADDR")); addr != "" {
		cfg.Storage.Redis.Addr = addr
	}

	if password := os.Getenv("GOLDEN_REDIS_PASSWORD"); password != "" {
		cfg.Storage.Redis.Password = password
	}

	if dbStr := strings.TrimSpace(os.Getenv("GOLDEN_REDIS_DB")); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil || db < 0 {
			return fmt.Errorf("invalid GOLDEN_REDIS_DB value: %s", dbStr)
		}
		cfg.Storage.Redis.DB = db
	}

	if prefix := strings.TrimSpace(os.Getenv("GOLDEN_REDIS_PREFIX")); prefix != "" {
		cfg.Storage.Redis.Prefix = prefix
	}

	if toleranceMs := os.Getenv("GOLDEN_NOW_TOLERANCE_MS"); toleranceMs != "" {
		tolerance, err := parsePositiveDuration(toleranceMs)
		if err != nil {
			return fmt.Errorf("invalid GOLDEN_NOW_TOLERANCE_MS: %w", err)
		}
		cfg.NowTolerance = tolerance
	}

	if level := strings.TrimSpace(os.Getenv("GOLDEN_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if fields := strings.TrimSpace(os.Getenv("GOLDEN_EXTRA_BLIND_FIELDS")); fields != "" {
		cfg.ExtraBlindFields = splitAndTrim(fields)
	}

	if path := strings.TrimSpace(os.Getenv("GOLDEN_METRICS_FILE")); path != "" {
		cfg.MetricsFile = path
	}

	return nil
}

func parsePositiveDuration(ms string) (time.Duration, error) {
	val, err := strconv.Atoi(strings.TrimSpace(ms))
	if err != nil {
		return 0, err
	}
	if val <= 0 {
		return 0, fmt.Errorf("value must be positive: %d", val)
	}
	return time.Duration(val) * time.Millisecond, nil
}

func splitAndTrim(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' '
	})
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
