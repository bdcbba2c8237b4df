package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	feedview "github.com/zappabad/marketpulse/internal/feed/view"
	"github.com/zappabad/marketpulse/internal/market"
	"github.com/zappabad/marketpulse/internal/news"
	newsview "github.com/zappabad/marketpulse/internal/news/view"
)

// Fetcher loads a market snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (market.Snapshot, error)
}

// NewsFetcher loads the latest news.
type NewsFetcher interface {
	Fetch(ctx context.Context) ([]news.Item, error)
}

// Sink receives every accepted snapshot.
type Sink interface {
	Record(ctx context.Context, snap market.Snapshot) error
}

// Option configures a FeedService.
type Option func(*FeedService)

// WithNews fetches news on every poll.
func WithNews(f NewsFetcher) Option {
	return func(s *FeedService) { s.news = f }
}

// WithSinks forwards accepted snapshots to sinks.
func WithSinks(sinks ...Sink) Option {
	return func(s *FeedService) { s.sinks = append(s.sinks, sinks...) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *FeedService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTicker replaces the poll ticker.
func WithTicker(f TickerFactory) Option {
	return func(s *FeedService) { s.newTicker = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *FeedService) { s.now = now }
}

// FeedService polls a Fetcher on a fixed interval and keeps the view current.
// One goroutine owns scheduling, so polls never overlap.
type FeedService struct {
	cfg       Config
	fetcher   Fetcher
	news      NewsFetcher
	sinks     []Sink
	logger    *slog.Logger
	newTicker TickerFactory
	now       func() time.Time

	view     *feedview.FeedView
	newsView *newsview.NewsView

	refresh        chan struct{}
	externalEvents chan feedview.FeedEvent
	droppedEvents  atomic.Int64
	skippedTicks   atomic.Int64
	polls          atomic.Int64

	ctx       context.Context
	cancel    context.CancelFunc
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewFeedService creates a FeedService and starts polling.
func NewFeedService(cfg Config, fetcher Fetcher, opts ...Option) *FeedService {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultConfig().FetchTimeout
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	if cfg.NewsItems <= 0 {
		cfg.NewsItems = DefaultConfig().NewsItems
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &FeedService{
		cfg:            cfg,
		fetcher:        fetcher,
		logger:         slog.New(slog.DiscardHandler),
		newTicker:      NewTimeTicker,
		now:            time.Now,
		view:           feedview.NewFeedView(),
		newsView:       newsview.NewNewsView(),
		refresh:        make(chan struct{}, 1),
		externalEvents: make(chan feedview.FeedEvent, cfg.EventBuffer),
		ctx:            ctx,
		cancel:         cancel,
		closed:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.run()

	return s
}

func (s *FeedService) run() {
	defer s.wg.Done()
	defer close(s.externalEvents)

	ticker := s.newTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.poll()
	s.drainTicks(ticker.C())
	for {
		select {
		case <-s.closed:
			return
		case <-ticker.C():
		case <-s.refresh:
		}
		if s.isClosed() {
			return
		}
		s.poll()
		s.drainTicks(ticker.C())
	}
}

// drainTicks drops ticks that arrived while a poll was in flight.
func (s *FeedService) drainTicks(c <-chan time.Time) {
	for {
		select {
		case <-c:
			s.skippedTicks.Add(1)
		default:
			return
		}
	}
}

func (s *FeedService) poll() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.FetchTimeout)
	defer cancel()

	s.polls.Add(1)
	start := s.now()
	s.view.BeginLoad(start)
	s.emit(feedview.FeedEvent{Kind: feedview.EventLoading, Time: start})

	snap, err := s.fetcher.Fetch(ctx)
	if s.isClosed() {
		s.logger.Debug("discarding poll result after close")
		return
	}

	done := s.now()
	if err != nil {
		s.view.Fail(err, done)
		s.logger.Error("market data poll failed", "error", err)
		s.emit(feedview.FeedEvent{Kind: feedview.EventFailed, Err: err, Time: done})
	} else {
		s.view.Succeed(snap, done)
		s.emit(feedview.FeedEvent{Kind: feedview.EventLoaded, Source: snap.Source, Records: snap.Len(), Time: done})
		s.record(ctx, snap)
	}

	if s.news == nil {
		return
	}
	items, err := s.news.Fetch(ctx)
	if s.isClosed() {
		return
	}
	if err != nil {
		s.newsView.Fail(err)
		s.logger.Warn("news poll failed", "error", err)
		return
	}
	s.newsView.Replace(items, s.now())
	s.emit(feedview.FeedEvent{Kind: feedview.EventNews, Records: len(items), Time: s.now()})
}

func (s *FeedService) record(ctx context.Context, snap market.Snapshot) {
	for _, sink := range s.sinks {
		if err := sink.Record(ctx, snap); err != nil {
			s.logger.Warn("snapshot sink failed", "error", err)
		}
	}
}

func (s *FeedService) emit(ev feedview.FeedEvent) {
	if s.cfg.DropEvents {
		select {
		case s.externalEvents <- ev:
		default:
			s.droppedEvents.Add(1)
		}
		return
	}
	select {
	case s.externalEvents <- ev:
	case <-s.closed:
	}
}

func (s *FeedService) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Refresh requests a poll now. Requests made while a poll is pending or
// in flight collapse into one.
func (s *FeedService) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// State returns a copy of the feed state.
func (s *FeedService) State() feedview.State {
	return s.view.State()
}

// Sorted returns the current records filtered and sorted.
func (s *FeedService) Sorted(sort market.SortState, category market.Category) []market.Record {
	return s.view.Sorted(sort, category)
}

// Summary counts the current records.
func (s *FeedService) Summary() market.Summary {
	return s.view.Summary()
}

// LatestNews returns up to n of the newest news items.
func (s *FeedService) LatestNews(n int) []news.Item {
	if n <= 0 {
		n = s.cfg.NewsItems
	}
	return s.newsView.Latest(n)
}

// Events returns the external events channel. It is closed by Close.
func (s *FeedService) Events() <-chan feedview.FeedEvent {
	return s.externalEvents
}

// DroppedEvents returns the count of dropped events.
func (s *FeedService) DroppedEvents() int64 {
	return s.droppedEvents.Load()
}

// SkippedTicks returns how many ticks arrived while a poll was running.
func (s *FeedService) SkippedTicks() int64 {
	return s.skippedTicks.Load()
}

// Polls returns how many polls have started.
func (s *FeedService) Polls() int64 {
	return s.polls.Load()
}

// Close stops polling, cancels an in-flight fetch and waits for the loop to exit.
func (s *FeedService) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.cancel()
	})
	s.wg.Wait()
}
