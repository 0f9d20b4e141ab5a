package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Queue      QueueConfig      `yaml:"queue"`
	Sync       SyncConfig       `yaml:"sync"`
	Scan       ScanConfig       `yaml:"scan"`
	Reset      ResetConfig      `yaml:"reset"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the connection settings for the remote attendance store.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// QueueConfig holds the settings for the local pending-scan queue.
type QueueConfig struct {
	Path string `yaml:"path"`
}

// SyncConfig holds the connectivity probe settings.
type SyncConfig struct {
	ProbeIntervalSeconds int           `yaml:"probe_interval_seconds"`
	ProbeInterval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// ScanConfig holds the scan intake settings.
type ScanConfig struct {
	DebounceSeconds int           `yaml:"debounce_seconds"`
	Debounce        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// ResetConfig holds the settings for the external daily-reset operation.
type ResetConfig struct {
	URL               string        `yaml:"url"`
	Token             string        `yaml:"token"`
	ConfirmTTLSeconds int           `yaml:"confirm_ttl_seconds"`
	ConfirmTTL        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// PushConfig holds the VAPID keys for web push notices.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notice worker pool.
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

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}

	if cfg.Queue.Path == "" {
		cfg.Queue.Path = "./pending_scans.db"
	}

	if cfg.Sync.ProbeIntervalSeconds <= 0 {
		cfg.Sync.ProbeIntervalSeconds = 15
	}
	cfg.Sync.ProbeInterval = time.Duration(cfg.Sync.ProbeIntervalSeconds) * time.Second

	if cfg.Scan.DebounceSeconds <= 0 {
		cfg.Scan.DebounceSeconds = 3
	}
	cfg.Scan.Debounce = time.Duration(cfg.Scan.DebounceSeconds) * time.Second

	if cfg.Reset.ConfirmTTLSeconds <= 0 {
		cfg.Reset.ConfirmTTLSeconds = 60
	}
	cfg.Reset.ConfirmTTL = time.Duration(cfg.Reset.ConfirmTTLSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
