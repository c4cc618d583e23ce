package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSlot        = "default"
	DefaultYieldEvery  = 10 * time.Second
	DefaultEventsEvery = 15 * time.Second
	DefaultAPIAddr     = "127.0.0.1:7777"
)

// Config holds the settings shared by the CLI and the daemon.
type Config struct {
	DataDir string `yaml:"data_dir"`
	Slot    string `yaml:"slot"`
	Store   struct {
		Driver      string `yaml:"driver"`
		SQLitePath  string `yaml:"sqlite_path"`
		DatabaseURL string `yaml:"database_url"`
	} `yaml:"store"`
	Ticks struct {
		YieldEvery  time.Duration `yaml:"yield_every"`
		EventsEvery time.Duration `yaml:"events_every"`
	} `yaml:"ticks"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	API struct {
		Addr string `yaml:"addr"`
	} `yaml:"api"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// DefaultDataDir is ~/.cashflow, or .cashflow in the working directory when there is no home.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cashflow"
	}
	return filepath.Join(home, ".cashflow")
}

// Path picks the config file: the explicit path, then CASHFLOW_CONFIG, then
// config.yaml in the data directory.
func Path(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	dataDir := envDefault("CASHFLOW_DATA_DIR", DefaultDataDir())
	return envDefault("CASHFLOW_CONFIG", filepath.Join(dataDir, "config.yaml"))
}

// Load reads the YAML file if it exists, applies environment overrides, fills defaults
// and validates the result.
func Load(path string) (Config, error) {
	var cfg Config
	cfg.Metrics.Enabled = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.DataDir = envDefault("CASHFLOW_DATA_DIR", cfg.DataDir)
	cfg.Slot = envDefault("CASHFLOW_SLOT", cfg.Slot)
	cfg.Store.Driver = envDefault("CASHFLOW_STORE", cfg.Store.Driver)
	cfg.Store.SQLitePath = envDefault("CASHFLOW_SQLITE_PATH", cfg.Store.SQLitePath)
	cfg.Store.DatabaseURL = envDefault("DATABASE_URL", cfg.Store.DatabaseURL)
	cfg.Ticks.YieldEvery = envDurationDefault("CASHFLOW_YIELD_EVERY", cfg.Ticks.YieldEvery)
	cfg.Ticks.EventsEvery = envDurationDefault("CASHFLOW_EVENTS_EVERY", cfg.Ticks.EventsEvery)
	cfg.Log.Level = envDefault("CASHFLOW_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = envDefault("CASHFLOW_LOG_FILE", cfg.Log.File)
	cfg.API.Addr = envDefault("CASHFLOW_API_ADDR", cfg.API.Addr)
	cfg.Metrics.Enabled = envBoolDefault("CASHFLOW_METRICS", cfg.Metrics.Enabled)

	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}
	if cfg.Slot == "" {
		cfg.Slot = DefaultSlot
	}
	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "file"
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = filepath.Join(cfg.DataDir, "cashflow.db")
	}
	if cfg.Ticks.YieldEvery == 0 {
		cfg.Ticks.YieldEvery = DefaultYieldEvery
	}
	if cfg.Ticks.EventsEvery == 0 {
		cfg.Ticks.EventsEvery = DefaultEventsEvery
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.DataDir, "cashflow.log")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable together.
func (c Config) Validate() error {
	if strings.ContainsAny(c.Slot, `/\`) || c.Slot == "." || c.Slot == ".." {
		return fmt.Errorf("slot %q must be a plain name", c.Slot)
	}
	switch c.Store.Driver {
	case "file", "sqlite", "memory":
	case "postgres":
		if strings.TrimSpace(c.Store.DatabaseURL) == "" {
			return fmt.Errorf("store.database_url (or DATABASE_URL) is required for the postgres store")
		}
	default:
		return fmt.Errorf("store.driver must be one of file, sqlite, postgres, memory; got %q", c.Store.Driver)
	}
	if c.Ticks.YieldEvery < time.Second || c.Ticks.EventsEvery < time.Second {
		return fmt.Errorf("tick intervals must be at least 1s")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.API.Addr != "" && !strings.Contains(c.API.Addr, ":") {
		return fmt.Errorf("api.addr %q must be host:port", c.API.Addr)
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error; got %q", s)
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
