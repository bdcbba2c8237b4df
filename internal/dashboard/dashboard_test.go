package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	feedservice "github.com/zappabad/marketpulse/internal/feed/service"
	feedview "github.com/zappabad/marketpulse/internal/feed/view"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Feed.Interval != 60*time.Second {
		t.Errorf("expected 60s interval, got %v", cfg.Feed.Interval)
	}
	if cfg.Source.PrimaryPath != "/data/market_data.json" {
		t.Errorf("unexpected primary path %q", cfg.Source.PrimaryPath)
	}
	if cfg.Cache.RedisAddr != "" || cfg.Postgres.DSN != "" {
		t.Error("expected redis and postgres disabled by default")
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
source:
  base_url: http://data.local
  enable_mock: false
feed:
  interval: 30s
cache:
  ttl: 2m
log:
  level: debug
server:
  port: 9000
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MARKETPULSE_POLL_INTERVAL", "15s")
	t.Setenv("MARKETPULSE_REDIS_ADDR", "redis:6379")
	t.Setenv("MARKETPULSE_SERVER_PORT", "9100")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Source.BaseURL != "http://data.local" || cfg.Source.EnableMock {
		t.Errorf("file values not applied: %+v", cfg.Source)
	}
	if cfg.Source.Timeout != 10*time.Second {
		t.Errorf("expected default timeout kept, got %v", cfg.Source.Timeout)
	}
	if cfg.Cache.TTL != 2*time.Minute {
		t.Errorf("expected 2m ttl, got %v", cfg.Cache.TTL)
	}
	if cfg.Feed.Interval != 15*time.Second {
		t.Errorf("expected env interval 15s, got %v", cfg.Feed.Interval)
	}
	if cfg.Cache.RedisAddr != "redis:6379" {
		t.Errorf("expected env redis addr, got %q", cfg.Cache.RedisAddr)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("expected env port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Log.Level)
	}
}

func TestLoadConfigInvalidEnv(t *testing.T) {
	t.Setenv("MARKETPULSE_POLL_INTERVAL", "soon")
	if _, err := LoadConfig(""); err == nil {
		t.Error("expected error for invalid interval")
	}
}

type stillTicker struct{ c chan time.Time }

func (t stillTicker) C() <-chan time.Time { return t.c }
func (t stillTicker) Stop()               {}

func TestDashboardFallsBackToMock(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Source.BaseURL = srv.URL

	d := New(context.Background(), cfg, nil, WithFeedOptions(
		feedservice.WithTicker(func(time.Duration) feedservice.Ticker {
			return stillTicker{c: make(chan time.Time)}
		}),
	))
	defer d.Close()

	if d.RedisEnabled() {
		t.Error("expected memory cache without redis address")
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-d.Feed.Events():
			if !ok {
				t.Fatal("events closed early")
			}
			if ev.Kind == feedview.EventFailed {
				t.Fatalf("expected mock fallback, got failure: %v", ev.Err)
			}
			if ev.Kind == feedview.EventLoaded {
				if ev.Source != "mock" {
					t.Errorf("expected mock source, got %q", ev.Source)
				}
				if d.Feed.State().Status != feedview.StatusSuccess {
					t.Errorf("expected success, got %v", d.Feed.State().Status)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestDashboardCloseIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source.BaseURL = "http://127.0.0.1:1"
	d := New(context.Background(), cfg, nil)
	d.Close()
	d.Close()

	// The events channel is closed once the poller exits.
	for range d.Feed.Events() {
	}
}
