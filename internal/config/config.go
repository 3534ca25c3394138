// Package config loads application configuration from YAML, .env and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendSQL    = "sql" // ClickHouse bars, PostgreSQL factors
	BackendSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Storage struct {
		Backend       string `yaml:"backend"`
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
		SQLitePath    string `yaml:"sqlite_path"`
		Migrate       bool   `yaml:"migrate"`
	} `yaml:"storage"`
	Cache struct {
		TTL      time.Duration `yaml:"ttl"` // 0 disables, negative never expires
		MaxItems int           `yaml:"max_items"`
	} `yaml:"cache"`
	Adjust struct {
		Precision int32 `yaml:"precision"`
	} `yaml:"adjust"`
	Server struct {
		Addr        string `yaml:"addr"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"server"`
	Schedule struct {
		CacheRefreshCron string `yaml:"cache_refresh_cron"`
		IngestCron       string `yaml:"ingest_cron"`
	} `yaml:"schedule"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Storage.Backend = BackendMemory
	cfg.Storage.SQLitePath = "data/abquant.db"
	cfg.Storage.Migrate = true
	cfg.Cache.TTL = 5 * time.Minute
	cfg.Cache.MaxItems = 256
	cfg.Adjust.Precision = 2
	cfg.Server.Addr = ":8080"
	cfg.Server.MetricsAddr = ":9090"
	return cfg
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ABQ_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		c.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := os.Getenv("ABQ_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ABQ_CACHE_TTL: %w", err)
		}
		c.Cache.TTL = ttl
	}
	if v := os.Getenv("ABQ_CACHE_MAX_ITEMS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ABQ_CACHE_MAX_ITEMS: %w", err)
		}
		c.Cache.MaxItems = n
	}
	if v := os.Getenv("ABQ_PRICE_PRECISION"); v != "" {
		p, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("ABQ_PRICE_PRECISION: %w", err)
		}
		c.Adjust.Precision = int32(p)
	}
	if v := os.Getenv("ABQ_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Server.MetricsAddr = v
	}
	return nil
}

// Validate checks that the selected backend is fully configured.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQL:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the sql backend")
		}
		if c.Storage.ClickhouseDSN == "" {
			return fmt.Errorf("storage.clickhouse_dsn is required for the sql backend")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}
	if c.Cache.MaxItems < 1 {
		return fmt.Errorf("cache.max_items must be positive")
	}
	if c.Adjust.Precision < 1 || c.Adjust.Precision > 12 {
		return fmt.Errorf("adjust.precision must be between 1 and 12")
	}
	return nil
}

// LoadEnvFile loads KEY=VALUE lines from path into the environment.
// Existing variables are not overridden; a missing file is ignored.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
