package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/zappabad/marketpulse/internal/archive"
	"github.com/zappabad/marketpulse/internal/cache"
	"github.com/zappabad/marketpulse/internal/dashboard"
	"github.com/zappabad/marketpulse/internal/logger"
	"github.com/zappabad/marketpulse/internal/server"
)

var (
	configPath = flag.String("config", "", "Path to YAML config")
	port       = flag.Int("port", 0, "Port number")
	dataDir    = flag.String("data-dir", "", "Directory holding the JSON data files")
)

func main() {
	flag.Parse()

	cfg, err := dashboard.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dataDir != "" {
		cfg.Server.DataDir = *dataDir
	}

	log := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	log.Info("starting marketpulse data server", "data_dir", cfg.Server.DataDir)

	ctx := context.Background()
	checks := make(map[string]server.Pinger)

	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache)
		if err != nil {
			log.Warn("redis health check disabled", "error", err)
		} else {
			defer rc.Close()
			checks["redis"] = rc
		}
	}
	if cfg.Postgres.DSN != "" {
		j, err := archive.Open(ctx, cfg.Postgres.DSN, log)
		if err != nil {
			log.Warn("database health check disabled", "error", err)
		} else {
			defer j.Close()
			checks["database"] = j
		}
	}

	required := []string{path.Base(cfg.Source.PrimaryPath)}
	mux := server.NewMux(
		server.NewDataHandler(cfg.Server.DataDir, log),
		server.NewHealthHandler(cfg.Server.DataDir, required, checks, log),
	)
	srv := server.NewServer(cfg.Server.Port, mux, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-sigCh:
		log.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			os.Exit(1)
		}
	}
}
