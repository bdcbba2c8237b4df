package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"market_data.json": `{"markets":[]}`,
		"notes.txt":        "secret",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestDataHandler(t *testing.T) {
	dir := writeDataDir(t)
	mux := NewMux(NewDataHandler(dir, nil), NewHealthHandler(dir, nil, nil, nil))

	cases := []struct {
		path string
		code int
	}{
		{"/data/market_data.json", http.StatusOK},
		{"/data/missing.json", http.StatusNotFound},
		{"/data/notes.txt", http.StatusNotFound},
		{"/data/", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.code {
			t.Errorf("%s: expected %d, got %d", tc.path, tc.code, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data/market_data.json", nil))
	if rec.Body.String() != `{"markets":[]}` {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %q", ct)
	}
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) (string, map[string]string) {
	t.Helper()
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	return body.Status, body.Checks
}

func TestHealthHandler(t *testing.T) {
	dir := writeDataDir(t)

	h := NewHealthHandler(dir, []string{"market_data.json"}, map[string]Pinger{"redis": stubPinger{}}, nil)
	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	status, checks := decodeHealth(t, rec)
	if rec.Code != http.StatusOK || status != "healthy" {
		t.Errorf("expected healthy 200, got %s %d", status, rec.Code)
	}
	if checks["data"] != "healthy" || checks["redis"] != "healthy" {
		t.Errorf("unexpected checks %v", checks)
	}

	h = NewHealthHandler(dir, []string{"all_markets.json"}, map[string]Pinger{"database": stubPinger{err: errors.New("down")}}, nil)
	rec = httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	status, checks = decodeHealth(t, rec)
	if rec.Code != http.StatusServiceUnavailable || status != "degraded" {
		t.Errorf("expected degraded 503, got %s %d", status, rec.Code)
	}
	if checks["data"] != "missing all_markets.json" || checks["database"] != "unhealthy" {
		t.Errorf("unexpected checks %v", checks)
	}
}
