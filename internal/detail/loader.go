package detail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zappabad/marketpulse/internal/source"
)

var (
	ErrMalformed  = errors.New("malformed detail bundle")
	ErrIncomplete = errors.New("incomplete detail bundle")
	ErrNotFound   = errors.New("detail bundle not found")
)

// Getter fetches a document by path.
type Getter interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// Cache stores raw bundles between loads.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Config holds configuration for the detail loader.
type Config struct {
	// PathTemplate is the bundle path; "{key}" is replaced by the market key.
	PathTemplate string `yaml:"path_template"`
	// CachePrefix namespaces cache keys.
	CachePrefix string `yaml:"cache_prefix"`
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		PathTemplate: "/data/{key}_data.json",
		CachePrefix:  "marketpulse:detail:",
	}
}

// Loader resolves a symbol, fetches its bundle and converts it to a View.
type Loader struct {
	cfg    Config
	getter Getter
	cache  Cache
	logger *slog.Logger
}

// NewLoader creates a Loader. cache may be nil.
func NewLoader(cfg Config, getter Getter, cache Cache, logger *slog.Logger) *Loader {
	def := DefaultConfig()
	if cfg.PathTemplate == "" {
		cfg.PathTemplate = def.PathTemplate
	}
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = def.CachePrefix
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{cfg: cfg, getter: getter, cache: cache, logger: logger}
}

// Path returns the bundle path for key.
func (l *Loader) Path(key Key) string {
	return strings.ReplaceAll(l.cfg.PathTemplate, "{key}", string(key))
}

// Load returns the complete view for symbol. An unknown symbol is
// ErrUnknownSymbol and nothing is fetched.
func (l *Loader) Load(ctx context.Context, symbol string) (View, error) {
	key, err := Resolve(symbol)
	if err != nil {
		l.logger.Warn("detail requested for unknown symbol", "symbol", symbol)
		return View{}, err
	}

	body, err := l.fetch(ctx, key)
	if err != nil {
		return View{}, err
	}

	bundle, err := DecodeBundle(body)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", key, err)
	}

	v := Convert(key, bundle)
	if v.Symbol == "" {
		v.Symbol = symbol
	}
	if !v.Complete() {
		return View{}, fmt.Errorf("%w: %s", ErrIncomplete, key)
	}
	return v, nil
}

func (l *Loader) fetch(ctx context.Context, key Key) ([]byte, error) {
	cacheKey := l.cfg.CachePrefix + string(key)
	if l.cache != nil {
		body, ok, err := l.cache.Get(ctx, cacheKey)
		switch {
		case err != nil:
			l.logger.Warn("detail cache read failed", "key", key, "error", err)
		case ok:
			return body, nil
		}
	}

	body, err := l.getter.Get(ctx, l.Path(key))
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, key, err)
		}
		return nil, fmt.Errorf("load detail %s: %w", key, err)
	}

	if l.cache != nil {
		if _, err := DecodeBundle(body); err == nil {
			if err := l.cache.Set(ctx, cacheKey, body); err != nil {
				l.logger.Warn("detail cache write failed", "key", key, "error", err)
			}
		}
	}
	return body, nil
}
