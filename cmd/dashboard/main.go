package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zappabad/marketpulse/internal/dashboard"
	"github.com/zappabad/marketpulse/internal/logger"
	"github.com/zappabad/marketpulse/tui"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run returns the process exit code so deferred cleanup always runs.
func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to YAML config")
	baseURL := fs.String("base-url", "", "Origin serving /data/*.json")
	interval := fs.Duration("interval", 0, "Poll interval")
	logFile := fs.String("log-file", "", "Log file path")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := dashboard.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *baseURL != "" {
		cfg.Source.BaseURL = *baseURL
	}
	if *interval > 0 {
		cfg.Feed.Interval = *interval
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}

	// The terminal belongs to the UI, so logs go to a file.
	log, closer, err := logger.OpenFile(cfg.Log.File, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open log file: %v\n", err)
		return 1
	}
	defer closer.Close()

	dash := dashboard.New(context.Background(), *cfg, log)
	defer dash.Close()

	model := tui.NewModel(dash.Feed, dash.Detail, log)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		log.Error("tui exited", "error", err)
		fmt.Fprintf(stderr, "Error running TUI: %v\n", err)
		return 1
	}
	return 0
}
