package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gw/equity-ledger/internal/collector"
	"github.com/gw/equity-ledger/internal/config"
	"github.com/gw/equity-ledger/internal/feed"
	"github.com/gw/equity-ledger/internal/selection"
	"github.com/gw/equity-ledger/internal/server"
	"github.com/gw/equity-ledger/internal/trace"
	"github.com/gw/equity-ledger/internal/tradelog"
)

func main() {
	listen := flag.String("listen", "", "HTTP listen address (default :8080)")
	source := flag.String("url", "", "trade log URL or path")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	// CLI overrides
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if *source != "" {
		cfg.TradeLogURL = *source
	}

	setupLogging(cfg.LogFormat, *debug)

	if err := trace.Init(cfg.TracingEnabled); err != nil {
		slog.Error("tracing init failed", "err", err)
		os.Exit(1)
	}

	slog.Info("dashboard starting",
		"source", cfg.TradeLogURL,
		"listen", cfg.ListenAddr,
		"refresh", cfg.RefreshInterval,
	)

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	src, err := feed.New(cfg.TradeLogURL, fetchTimeout(cfg.RefreshInterval))
	if err != nil {
		slog.Error("feed init failed", "err", err)
		os.Exit(1)
	}

	store, err := tradelog.Open(cfg.StorePath)
	if err != nil {
		slog.Error("opening store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	hub := server.NewHub()
	go hub.Run()
	defer hub.Stop()

	coord := selection.NewCoordinator(hub,
		selection.WithScrollDelay(cfg.ScrollDelay),
		selection.WithHighlightDuration(cfg.HighlightDuration),
	)
	defer coord.Stop()

	col := collector.New(src, cfg.RefreshInterval, cfg.InitialPortfolio)
	col.Subscribe(func(_ context.Context, s *collector.Snapshot) { coord.SetLedger(s.Ledger) })
	col.Subscribe(func(ctx context.Context, s *collector.Snapshot) {
		if err := tradelog.Sync(ctx, store, s.Result); err != nil {
			slog.Warn("store sync failed", "err", err)
		}
	})
	col.Subscribe(hub.Refreshed)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.SetupRoutes(server.NewHandler(col, coord, store, hub)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "err", err)
			cancel()
		}
	}()

	if err := col.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("refresh loop error", "err", err)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "err", err)
	}
	if err := trace.Shutdown(shutdownCtx); err != nil {
		slog.Warn("trace shutdown", "err", err)
	}

	slog.Info("dashboard stopped")
}

func setupLogging(format string, debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	if strings.EqualFold(format, "json") {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
		return
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}

// fetchTimeout bounds one fetch so a hung request cannot stall refreshes
// for long; it never drops below 5s.
func fetchTimeout(interval time.Duration) time.Duration {
	return max(5*time.Second, 2*interval)
}
