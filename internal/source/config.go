package source

import "time"

// Config holds configuration for the snapshot sources.
type Config struct {
	// BaseURL is the origin serving the /data/*.json files.
	BaseURL string `yaml:"base_url"`
	// Timeout bounds a single GET.
	Timeout time.Duration `yaml:"timeout"`
	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
	// PrimaryPath is the path of the quote snapshot.
	PrimaryPath string `yaml:"primary_path"`
	// AggregatePath is the path of the per-market aggregate file.
	AggregatePath string `yaml:"aggregate_path"`
	// EnableMock appends the generated dataset as the last fallback.
	EnableMock bool `yaml:"enable_mock"`
	// MockSeed seeds the generated dataset.
	MockSeed int64 `yaml:"mock_seed"`
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "http://localhost:8080",
		Timeout:       10 * time.Second,
		MaxBodyBytes:  8 << 20,
		PrimaryPath:   "/data/market_data.json",
		AggregatePath: "/data/all_markets.json",
		EnableMock:    true,
		MockSeed:      42,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = def.MaxBodyBytes
	}
	if c.PrimaryPath == "" {
		c.PrimaryPath = def.PrimaryPath
	}
	if c.AggregatePath == "" {
		c.AggregatePath = def.AggregatePath
	}
	return c
}
