package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zappabad/marketpulse/internal/market"
)

var (
	ErrMalformed         = errors.New("malformed payload")
	ErrEmptySnapshot     = errors.New("empty snapshot")
	ErrAllSourcesFailed  = errors.New("failed to load market data")
	ErrNoSourcesProvided = errors.New("no sources configured")
)

// Source produces a market snapshot.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (market.Snapshot, error)
}

// Result is the outcome of one source attempt.
type Result struct {
	Source   string
	Snapshot market.Snapshot
	Err      error
	Elapsed  time.Duration
}

// OK reports whether the attempt produced a snapshot.
func (r Result) OK() bool {
	return r.Err == nil
}

// Chain tries sources in order and returns the first success.
type Chain struct {
	sources []Source
	logger  *slog.Logger
	now     func() time.Time
}

// NewChain creates a Chain. A nil logger discards.
func NewChain(logger *slog.Logger, sources ...Source) *Chain {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chain{sources: sources, logger: logger, now: time.Now}
}

// Name implements Source.
func (c *Chain) Name() string {
	return "chain"
}

// Sources returns the names of the sources in try order.
func (c *Chain) Sources() []string {
	out := make([]string, len(c.sources))
	for i, s := range c.sources {
		out[i] = s.Name()
	}
	return out
}

// Fetch implements Source. When every source fails the error wraps
// ErrAllSourcesFailed and each individual failure.
func (c *Chain) Fetch(ctx context.Context) (market.Snapshot, error) {
	snap, _, err := c.FetchWithAttempts(ctx)
	return snap, err
}

// FetchWithAttempts is Fetch that also reports every attempt made.
func (c *Chain) FetchWithAttempts(ctx context.Context) (market.Snapshot, []Result, error) {
	if len(c.sources) == 0 {
		return market.Snapshot{}, nil, ErrNoSourcesProvided
	}

	attempts := make([]Result, 0, len(c.sources))
	errs := make([]error, 0, len(c.sources))

	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return market.Snapshot{}, attempts, err
		}

		start := c.now()
		snap, err := src.Fetch(ctx)
		res := Result{Source: src.Name(), Snapshot: snap, Err: err, Elapsed: c.now().Sub(start)}
		attempts = append(attempts, res)

		if err == nil {
			if snap.Source == "" {
				snap.Source = src.Name()
			}
			if snap.FetchedAt.IsZero() {
				snap.FetchedAt = c.now()
			}
			c.logger.Info("market data loaded", "source", snap.Source, "records", snap.Len())
			return snap, attempts, nil
		}

		c.logger.Warn("market data source failed", "source", src.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}

	return market.Snapshot{}, attempts, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
}

// NewDefaultChain builds primary, aggregate and, when enabled, mock in that order.
// A nil client is created from cfg.
func NewDefaultChain(cfg Config, client *Client, logger *slog.Logger) *Chain {
	cfg = cfg.withDefaults()
	if client == nil {
		client = NewClient(cfg)
	}
	sources := []Source{
		NewPrimarySource(client, cfg.PrimaryPath),
		NewAggregateSource(client, cfg.AggregatePath),
	}
	if cfg.EnableMock {
		sources = append(sources, NewMockSource(cfg.MockSeed))
	}
	return NewChain(logger, sources...)
}
