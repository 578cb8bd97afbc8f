package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall agent configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Platform   PlatformConfig   `yaml:"platform"`
	Database   DatabaseConfig   `yaml:"database"`
	Location   LocationConfig   `yaml:"location"`
	Sync       SyncConfig       `yaml:"sync"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the local API server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// PlatformConfig holds the staffing platform endpoint configuration.
type PlatformConfig struct {
	BaseURL        string            `yaml:"base_url"`
	UserID         string            `yaml:"user_id"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	RequestsPerSec float64           `yaml:"requests_per_sec"`
	Headers        map[string]string `yaml:"headers"`
}

// DatabaseConfig holds the local cache database configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "sqlite" (default) or "postgres"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// LocationConfig holds the location gateway configuration. Latitude and
// longitude feed the static position provider used by fixed-site installs.
type LocationConfig struct {
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"` // Ignored by YAML parser
	Latitude       float64       `yaml:"latitude"`
	Longitude      float64       `yaml:"longitude"`
}

// SyncConfig holds the background shift/availability sync configuration.
type SyncConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// WorkerPoolConfig holds the configuration for the match evaluation pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8780
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}

	if cfg.Platform.TimeoutSeconds <= 0 {
		cfg.Platform.TimeoutSeconds = 30
	}
	if cfg.Platform.RequestsPerSec <= 0 {
		cfg.Platform.RequestsPerSec = 5
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "guardshift.db"
	}

	if cfg.Location.TimeoutSeconds <= 0 {
		cfg.Location.TimeoutSeconds = 15
	}
	cfg.Location.Timeout = time.Duration(cfg.Location.TimeoutSeconds) * time.Second

	if cfg.Sync.IntervalSeconds <= 0 {
		cfg.Sync.IntervalSeconds = 300
	}
	cfg.Sync.Interval = time.Duration(cfg.Sync.IntervalSeconds) * time.Second

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
