package dashboard

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zappabad/marketpulse/internal/cache"
	"github.com/zappabad/marketpulse/internal/detail"
	feedservice "github.com/zappabad/marketpulse/internal/feed/service"
	"github.com/zappabad/marketpulse/internal/news"
	"github.com/zappabad/marketpulse/internal/source"
)

// Config holds configuration for the dashboard and the data server.
type Config struct {
	// Source configures where snapshots come from.
	Source source.Config `yaml:"source"`
	// Feed configures the poll scheduler.
	Feed feedservice.Config `yaml:"feed"`
	// News configures the news feed.
	News news.Config `yaml:"news"`
	// Detail configures the detail loader.
	Detail detail.Config `yaml:"detail"`
	// Cache configures the detail bundle cache. Redis is used when an address is set.
	Cache cache.Config `yaml:"cache"`
	// Postgres configures the optional snapshot journal.
	Postgres PostgresConfig `yaml:"postgres"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
}

// PostgresConfig enables the snapshot journal when DSN is set.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File is where the dashboard logs; the terminal belongs to the UI.
	File string `yaml:"file"`
}

// ServerConfig configures cmd/server.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	DataDir         string        `yaml:"data_dir"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Source: source.DefaultConfig(),
		Feed:   feedservice.DefaultConfig(),
		News:   news.DefaultConfig(),
		Detail: detail.DefaultConfig(),
		Cache:  cache.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "marketpulse.log",
		},
		Server: ServerConfig{
			Port:            8080,
			DataDir:         "data",
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// LoadConfig reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("MARKETPULSE_BASE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("MARKETPULSE_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MARKETPULSE_POLL_INTERVAL: %w", err)
		}
		cfg.Feed.Interval = d
	}
	if v := os.Getenv("MARKETPULSE_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("MARKETPULSE_REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("MARKETPULSE_POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("MARKETPULSE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MARKETPULSE_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MARKETPULSE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	return nil
}
