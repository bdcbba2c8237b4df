package dashboard

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/zappabad/marketpulse/internal/archive"
	"github.com/zappabad/marketpulse/internal/cache"
	"github.com/zappabad/marketpulse/internal/detail"
	feedservice "github.com/zappabad/marketpulse/internal/feed/service"
	"github.com/zappabad/marketpulse/internal/news"
	"github.com/zappabad/marketpulse/internal/source"
)

// Dashboard owns the dashboard subsystems and manages their lifecycle.
type Dashboard struct {
	Feed   *feedservice.FeedService
	Detail *detail.Loader
	Chain  *source.Chain

	cache   detail.Cache
	journal *archive.Journal
	logger  *slog.Logger
	closers []io.Closer

	mu     sync.Mutex
	closed bool
}

// Option configures a Dashboard.
type Option func(*options)

type options struct {
	feed []feedservice.Option
}

// WithFeedOptions passes extra options to the feed service.
func WithFeedOptions(opts ...feedservice.Option) Option {
	return func(o *options) { o.feed = append(o.feed, opts...) }
}

// New wires the dashboard and starts polling. Redis and Postgres are optional:
// when configured but unreachable they are logged and skipped.
func New(ctx context.Context, cfg Config, logger *slog.Logger, opts ...Option) *Dashboard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	d := &Dashboard{logger: logger}

	client := source.NewClient(cfg.Source)
	d.Chain = source.NewDefaultChain(cfg.Source, client, logger.With("component", "source"))

	// Detail cache
	d.cache = cache.NewMemory(cfg.Cache.TTL)
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache)
		if err != nil {
			logger.Warn("redis cache disabled", "addr", cfg.Cache.RedisAddr, "error", err)
		} else {
			d.cache = rc
			d.closers = append(d.closers, rc)
		}
	}
	d.Detail = detail.NewLoader(cfg.Detail, client, d.cache, logger.With("component", "detail"))

	// Snapshot journal
	var sinks []feedservice.Sink
	if cfg.Postgres.DSN != "" {
		j, err := archive.Open(ctx, cfg.Postgres.DSN, logger.With("component", "archive"))
		if err != nil {
			logger.Warn("snapshot journal disabled", "error", err)
		} else {
			d.journal = j
			sinks = append(sinks, j)
			d.closers = append(d.closers, j)
		}
	}

	feedOpts := []feedservice.Option{
		feedservice.WithLogger(logger.With("component", "feed")),
		feedservice.WithNews(news.NewFeed(client, cfg.News).WithLogger(logger)),
		feedservice.WithSinks(sinks...),
	}
	d.Feed = feedservice.NewFeedService(cfg.Feed, d.Chain, append(feedOpts, o.feed...)...)

	logger.Info("dashboard started",
		"base_url", client.BaseURL,
		"interval", cfg.Feed.Interval,
		"sources", d.Chain.Sources(),
		"redis", d.RedisEnabled(),
		"journal", d.journal != nil,
	)
	return d
}

// RedisEnabled reports whether detail bundles are cached in Redis.
func (d *Dashboard) RedisEnabled() bool {
	_, ok := d.cache.(*cache.RedisCache)
	return ok
}

// LoadDetail loads the detail view for symbol.
func (d *Dashboard) LoadDetail(ctx context.Context, symbol string) (detail.View, error) {
	return d.Detail.Load(ctx, symbol)
}

// Close shuts down the subsystems in reverse dependency order.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true

	// Polling stops before the journal closes
	if d.Feed != nil {
		d.Feed.Close()
	}

	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			d.logger.Warn("close failed", "error", err)
		}
	}
	d.logger.Info("dashboard stopped")
}
