package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zappabad/marketpulse/internal/market"
)

const primaryJSON = `{
  "generatedAt": "2025-10-01T08:00:00Z",
  "dataSource": "yfinance",
  "markets": [
    {"symbol": "CRUDE_OIL", "name": "Crude Oil", "name_th": "น้ำมันดิบ", "price": 78.2, "change": 1.1,
     "changePercent": 1.43, "volume": 250000, "category": "Energy", "lastUpdate": "2025-10-01T07:59:00Z"},
    {"symbol": "SUGAR", "name": "Sugar", "price": 19.5, "change": -0.2, "changePercent": -1.01, "volume": "1,200"}
  ]
}`

const aggregateJSON = `{
  "generatedAt": "2025-10-01T06:00:00Z",
  "markets": ["crude_oil", "sugar", "usd_thb"],
  "data": {
    "crude_oil": {"marketNameTh": "น้ำมันดิบ", "generatedAt": "2025-10-01T06:00:00Z",
      "popup": {"currentPrice": 77.9, "priceChange": -0.4, "priceChangePercent": -0.51}},
    "usd_thb": {"marketNameTh": "ดอลลาร์/บาท", "generatedAt": "2025-10-01T06:00:00Z",
      "popup": {"currentPrice": 36.4, "priceChange": 0.1, "priceChangePercent": 0.27}}
  }
}`

// newDataServer serves the given bodies by path. A missing path is 404.
func newDataServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if body == "500" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testChain(t *testing.T, files map[string]string, extra ...Source) *Chain {
	srv := newDataServer(t, files)
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	client := NewClient(cfg)
	sources := []Source{NewPrimarySource(client, cfg.PrimaryPath), NewAggregateSource(client, cfg.AggregatePath)}
	return NewChain(nil, append(sources, extra...)...)
}

type failingSource struct{ err error }

func (s failingSource) Name() string { return "failing" }
func (s failingSource) Fetch(context.Context) (market.Snapshot, error) {
	return market.Snapshot{}, s.err
}

func TestChainPrefersPrimary(t *testing.T) {
	chain := testChain(t, map[string]string{
		"/data/market_data.json": primaryJSON,
		"/data/all_markets.json": aggregateJSON,
	}, NewMockSource(1))

	snap, attempts, err := chain.FetchWithAttempts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Source != "primary" {
		t.Errorf("expected primary source, got %q", snap.Source)
	}
	if len(attempts) != 1 {
		t.Errorf("expected fallbacks untouched, got %d attempts", len(attempts))
	}
	if snap.Len() != 2 || snap.Records[0].Symbol != "CRUDE_OIL" {
		t.Fatalf("unexpected records %+v", snap.Records)
	}
	if v, ok := snap.Records[1].Volume.Value(); !ok || v != 1200 {
		t.Errorf("expected string volume decoded to 1200, got %v %v", v, ok)
	}
	if snap.Records[1].LastUpdate != "2025-10-01T08:00:00Z" {
		t.Errorf("expected missing lastUpdate to default to generatedAt, got %q", snap.Records[1].LastUpdate)
	}
}

func TestChainFallsBackOnEmptyPrimary(t *testing.T) {
	chain := testChain(t, map[string]string{
		"/data/market_data.json": `{"generatedAt": "x", "markets": []}`,
		"/data/all_markets.json": aggregateJSON,
	})

	snap, attempts, err := chain.FetchWithAttempts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Source != "aggregate" {
		t.Fatalf("expected aggregate source, got %q", snap.Source)
	}
	if !errors.Is(attempts[0].Err, ErrEmptySnapshot) {
		t.Errorf("expected primary to fail with ErrEmptySnapshot, got %v", attempts[0].Err)
	}
	if snap.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", snap.Len())
	}
	co := snap.Records[0]
	if co.Symbol != "CO" || co.Category != market.CategoryEnergy || co.Price != 77.9 {
		t.Errorf("unexpected crude record %+v", co)
	}
	if v, ok := co.Volume.Value(); !ok || v != 0 {
		t.Errorf("expected volume 0, got %v %v", v, ok)
	}
	if snap.GeneratedAt != "2025-10-01T06:00:00Z" {
		t.Errorf("unexpected generatedAt %q", snap.GeneratedAt)
	}
}

func TestChainFallsBackToMock(t *testing.T) {
	chain := testChain(t, map[string]string{
		"/data/market_data.json": "500",
	}, NewMockSource(7))

	snap, attempts, err := chain.FetchWithAttempts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Source != "mock" || snap.Len() == 0 {
		t.Fatalf("expected mock records, got %q with %d", snap.Source, snap.Len())
	}
	if !errors.Is(attempts[0].Err, ErrHTTPStatus) {
		t.Errorf("expected http status error, got %v", attempts[0].Err)
	}
	if !errors.Is(attempts[1].Err, ErrNotFound) {
		t.Errorf("expected not found, got %v", attempts[1].Err)
	}
}

func TestChainAllSourcesFail(t *testing.T) {
	boom := errors.New("mock disabled")
	chain := testChain(t, map[string]string{
		"/data/market_data.json": `{"markets": [`,
		"/data/all_markets.json": `{"data": {"gold": {}}}`,
	}, failingSource{err: boom})

	_, attempts, err := chain.FetchWithAttempts(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(attempts))
	}
	for _, want := range []error{ErrAllSourcesFailed, ErrMalformed, ErrEmptySnapshot, boom} {
		if !errors.Is(err, want) {
			t.Errorf("expected error to wrap %v, got %v", want, err)
		}
	}
}

func TestChainStopsOnCancelledContext(t *testing.T) {
	chain := NewChain(nil, NewMockSource(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := chain.Fetch(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestChainWithoutSources(t *testing.T) {
	if _, err := NewChain(nil).Fetch(context.Background()); !errors.Is(err, ErrNoSourcesProvided) {
		t.Errorf("expected ErrNoSourcesProvided, got %v", err)
	}
}

func TestMockSourceDeterministic(t *testing.T) {
	a, err := NewMockSource(99).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := NewMockSource(99).Fetch(context.Background())

	if a.Len() != b.Len() {
		t.Fatalf("length mismatch %d vs %d", a.Len(), b.Len())
	}
	for i := range a.Records {
		if a.Records[i].Price != b.Records[i].Price {
			t.Errorf("record %d differs for the same seed: %v vs %v", i, a.Records[i].Price, b.Records[i].Price)
		}
		if a.Records[i].Low > a.Records[i].High {
			t.Errorf("record %d has low above high", i)
		}
	}
}

func TestParsePrimaryMalformed(t *testing.T) {
	if _, err := ParsePrimary([]byte(`not json`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
	if _, err := ParsePrimary([]byte(`{"generatedAt": "x"}`)); !errors.Is(err, ErrEmptySnapshot) {
		t.Errorf("expected ErrEmptySnapshot for missing markets, got %v", err)
	}
}
