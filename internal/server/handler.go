package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DataHandler serves *.json files from a directory under /data/.
type DataHandler struct {
	dir    string
	files  http.Handler
	logger *slog.Logger
}

// NewDataHandler creates a DataHandler for dir.
func NewDataHandler(dir string, logger *slog.Logger) *DataHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DataHandler{
		dir:    dir,
		files:  http.StripPrefix("/data/", http.FileServer(http.Dir(dir))),
		logger: logger,
	}
}

// ServeHTTP serves one JSON file. Directory listings and other extensions are 404.
func (h *DataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean(strings.TrimPrefix(r.URL.Path, "/data/"))
	if name == "." || strings.HasSuffix(r.URL.Path, "/") || path.Ext(name) != ".json" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Type", "application/json")

	start := time.Now()
	h.files.ServeHTTP(w, r)
	h.logger.Debug("served data file", "file", name, "elapsed", time.Since(start))
}

// HealthHandler reports whether the data directory and optional stores are usable.
type HealthHandler struct {
	dataDir  string
	required []string
	checks   map[string]Pinger
	logger   *slog.Logger
}

// NewHealthHandler creates a HealthHandler. required lists files that must exist in dataDir.
func NewHealthHandler(dataDir string, required []string, checks map[string]Pinger, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HealthHandler{dataDir: dataDir, required: required, checks: checks, logger: logger}
}

// Check writes {"status", "checks"}; any failing check is 503 "degraded".
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	overallStatus := "healthy"
	results := make(map[string]string)

	dataStatus := "healthy"
	if info, err := os.Stat(h.dataDir); err != nil || !info.IsDir() {
		dataStatus = "unhealthy"
		h.logger.Warn("data dir health check failed", "dir", h.dataDir, "error", err)
	} else {
		for _, name := range h.required {
			if _, err := os.Stat(filepath.Join(h.dataDir, name)); err != nil {
				dataStatus = "missing " + name
				h.logger.Warn("data file health check failed", "file", name, "error", err)
				break
			}
		}
	}
	results["data"] = dataStatus
	if dataStatus != "healthy" {
		overallStatus = "degraded"
	}

	for name, p := range h.checks {
		status := "healthy"
		if err := p.Ping(r.Context()); err != nil {
			status = "unhealthy"
			overallStatus = "degraded"
			h.logger.Warn(name+" health check failed", "error", err)
		}
		results[name] = status
	}

	response := map[string]any{
		"status": overallStatus,
		"checks": results,
	}

	statusCode := http.StatusOK
	if overallStatus == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// NewMux routes GET /data/ and GET /health.
func NewMux(data *DataHandler, health *HealthHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /data/", data)
	mux.HandleFunc("GET /health", health.Check)
	return mux
}
