package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	feedview "github.com/zappabad/marketpulse/internal/feed/view"
	"github.com/zappabad/marketpulse/internal/market"
	"github.com/zappabad/marketpulse/internal/news"
)

type fakeTicker struct {
	c        chan time.Time
	interval time.Duration
	stopped  atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

func newFakeTicker() (*fakeTicker, TickerFactory) {
	ft := &fakeTicker{c: make(chan time.Time, 8)}
	return ft, func(d time.Duration) Ticker {
		ft.interval = d
		return ft
	}
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	snap  market.Snapshot
	err   error
	// block, when set, holds each fetch until it is closed or receives.
	block   chan struct{}
	started chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context) (market.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	snap, err, block, started := f.snap, f.err, f.block, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return snap, err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) set(snap market.Snapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap, f.err = snap, err
}

func testSnapshot(symbols ...string) market.Snapshot {
	snap := market.Snapshot{Source: "primary"}
	for _, s := range symbols {
		snap.Records = append(snap.Records, market.Record{Symbol: s, Name: s})
	}
	return snap
}

func waitEvent(t *testing.T, ch <-chan feedview.FeedEvent, kind feedview.EventKind) feedview.FeedEvent {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events closed while waiting for kind %d", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event kind %d", kind)
		}
	}
}

func TestFeedServicePollsImmediately(t *testing.T) {
	ft, factory := newFakeTicker()
	f := &fakeFetcher{snap: testSnapshot("CO", "SUGAR")}
	svc := NewFeedService(DefaultConfig(), f, WithTicker(factory))
	defer svc.Close()

	ev := waitEvent(t, svc.Events(), feedview.EventLoaded)
	if ev.Records != 2 || ev.Source != "primary" {
		t.Errorf("unexpected event %+v", ev)
	}
	if ft.interval != 60*time.Second {
		t.Errorf("expected 60s interval, got %v", ft.interval)
	}

	state := svc.State()
	if state.Status != feedview.StatusSuccess || state.Snapshot.Len() != 2 {
		t.Errorf("unexpected state %+v", state)
	}
}

func TestFeedServicePollsOnTick(t *testing.T) {
	ft, factory := newFakeTicker()
	f := &fakeFetcher{snap: testSnapshot("CO")}
	svc := NewFeedService(DefaultConfig(), f, WithTicker(factory))
	defer svc.Close()

	waitEvent(t, svc.Events(), feedview.EventLoaded)

	// Let the loop finish draining before the next tick.
	time.Sleep(20 * time.Millisecond)
	f.set(testSnapshot("CO", "SUGAR", "USDTHB"), nil)
	ft.c <- time.Now()

	ev := waitEvent(t, svc.Events(), feedview.EventLoaded)
	if ev.Records != 3 {
		t.Errorf("expected replaced snapshot with 3 records, got %d", ev.Records)
	}
	if f.Calls() != 2 {
		t.Errorf("expected 2 fetches, got %d", f.Calls())
	}
}

func TestFeedServiceCloseStopsPolling(t *testing.T) {
	ft, factory := newFakeTicker()
	f := &fakeFetcher{snap: testSnapshot("CO")}
	svc := NewFeedService(DefaultConfig(), f, WithTicker(factory))

	waitEvent(t, svc.Events(), feedview.EventLoaded)
	svc.Close()

	if !ft.stopped.Load() {
		t.Error("expected ticker to be stopped on close")
	}

	ft.c <- time.Now()
	svc.Refresh()
	time.Sleep(20 * time.Millisecond)

	if f.Calls() != 1 {
		t.Errorf("expected no polls after close, got %d fetches", f.Calls())
	}
	// The events channel is closed; this only drains what was buffered.
	for range svc.Events() {
	}

	// Close is idempotent.
	svc.Close()
}

func TestFeedServiceSuspendsTicksWhileInFlight(t *testing.T) {
	ft, factory := newFakeTicker()
	f := &fakeFetcher{
		snap:    testSnapshot("CO"),
		block:   make(chan struct{}),
		started: make(chan struct{}, 8),
	}
	svc := NewFeedService(DefaultConfig(), f, WithTicker(factory))
	defer svc.Close()

	<-f.started
	ft.c <- time.Now()
	ft.c <- time.Now()
	ft.c <- time.Now()
	f.block <- struct{}{}

	waitEvent(t, svc.Events(), feedview.EventLoaded)
	time.Sleep(20 * time.Millisecond)

	if f.Calls() != 1 {
		t.Errorf("ticks during an in-flight poll must not start another, got %d fetches", f.Calls())
	}
	if got := svc.SkippedTicks(); got != 3 {
		t.Errorf("expected 3 skipped ticks, got %d", got)
	}

	ft.c <- time.Now()
	<-f.started
	f.block <- struct{}{}
	waitEvent(t, svc.Events(), feedview.EventLoaded)

	if f.Calls() != 2 {
		t.Errorf("expected the next tick to poll, got %d fetches", f.Calls())
	}
	close(f.block)
}

func TestFeedServiceRefreshCoalesces(t *testing.T) {
	_, factory := newFakeTicker()
	f := &fakeFetcher{
		snap:    testSnapshot("CO"),
		block:   make(chan struct{}),
		started: make(chan struct{}, 8),
	}
	svc := NewFeedService(DefaultConfig(), f, WithTicker(factory))
	defer svc.Close()

	<-f.started
	svc.Refresh()
	svc.Refresh()
	svc.Refresh()
	f.block <- struct{}{}

	<-f.started
	f.block <- struct{}{}
	time.Sleep(20 * time.Millisecond)

	if f.Calls() != 2 {
		t.Errorf("expected refreshes to coalesce into one extra poll, got %d fetches", f.Calls())
	}
	close(f.block)
}

func TestFeedServiceErrorKeepsRecords(t *testing.T) {
	ft, factory := newFakeTicker()
	f := &fakeFetcher{snap: testSnapshot("CO", "SUGAR")}
	svc := NewFeedService(DefaultConfig(), f, WithTicker(factory))
	defer svc.Close()

	waitEvent(t, svc.Events(), feedview.EventLoaded)

	// Let the loop finish draining before the next tick.
	time.Sleep(20 * time.Millisecond)
	f.set(market.Snapshot{}, errors.New("all sources failed"))
	ft.c <- time.Now()

	ev := waitEvent(t, svc.Events(), feedview.EventFailed)
	if ev.Err == nil {
		t.Error("expected error on failed event")
	}
	state := svc.State()
	if state.Status != feedview.StatusError {
		t.Fatalf("expected error state, got %v", state.Status)
	}
	if state.Snapshot.Len() != 2 {
		t.Errorf("expected last good records kept, got %d", state.Snapshot.Len())
	}
	if state.Message != "all sources failed" {
		t.Errorf("unexpected message %q", state.Message)
	}
}

// lateFetcher returns success only after its context is cancelled.
type lateFetcher struct {
	started chan struct{}
}

func (f *lateFetcher) Fetch(ctx context.Context) (market.Snapshot, error) {
	f.started <- struct{}{}
	<-ctx.Done()
	return testSnapshot("LATE"), nil
}

func TestFeedServiceDiscardsLateResult(t *testing.T) {
	_, factory := newFakeTicker()
	f := &lateFetcher{started: make(chan struct{}, 1)}
	svc := NewFeedService(DefaultConfig(), f, WithTicker(factory))

	<-f.started
	svc.Close()

	state := svc.State()
	if state.Status == feedview.StatusSuccess || state.HasData() {
		t.Errorf("late result was applied: %+v", state)
	}
	for ev := range svc.Events() {
		if ev.Kind == feedview.EventLoaded {
			t.Error("late result was emitted")
		}
	}
}

type recordingSink struct {
	mu    sync.Mutex
	snaps []market.Snapshot
	err   error
}

func (s *recordingSink) Record(_ context.Context, snap market.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return s.err
}

func (s *recordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snaps)
}

type stubNews struct {
	items []news.Item
	err   error
}

func (n stubNews) Fetch(context.Context) ([]news.Item, error) { return n.items, n.err }

func TestFeedServiceSinksAndNews(t *testing.T) {
	_, factory := newFakeTicker()
	f := &fakeFetcher{snap: testSnapshot("CO")}
	failing := &recordingSink{err: errors.New("db down")}
	ok := &recordingSink{}
	items := []news.Item{{ID: "n1", Title: "OPEC"}, {ID: "n2", Title: "Sugar"}}

	svc := NewFeedService(DefaultConfig(), f,
		WithTicker(factory),
		WithSinks(failing, ok),
		WithNews(stubNews{items: items}),
	)
	defer svc.Close()

	ev := waitEvent(t, svc.Events(), feedview.EventNews)
	if ev.Records != 2 {
		t.Errorf("expected 2 news items, got %d", ev.Records)
	}
	if failing.Len() != 1 || ok.Len() != 1 {
		t.Errorf("expected both sinks called once despite failure, got %d and %d", failing.Len(), ok.Len())
	}
	if got := svc.LatestNews(1); len(got) != 1 || got[0].ID != "n1" {
		t.Errorf("unexpected latest news %+v", got)
	}
	if svc.State().Status != feedview.StatusSuccess {
		t.Error("sink failure must not fail the poll")
	}
}
