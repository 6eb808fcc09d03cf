package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/hoanghai1803/ilistas/internal/api"
	"github.com/hoanghai1803/ilistas/internal/api/handlers"
	"github.com/hoanghai1803/ilistas/internal/config"
	"github.com/hoanghai1803/ilistas/internal/feeds"
	"github.com/hoanghai1803/ilistas/internal/lists"
	"github.com/hoanghai1803/ilistas/internal/logging"
	"github.com/hoanghai1803/ilistas/internal/metrics"
	"github.com/hoanghai1803/ilistas/internal/storage"
)

func main() {
	dataDir := flag.String("data-dir", config.DefaultDataDir(), "path to data directory")
	configPath := flag.String("config", "", "path to config file (default <data-dir>/config.toml)")
	flag.Parse()

	if *configPath == "" {
		*configPath = filepath.Join(*dataDir, "config.toml")
	}

	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logCloser, err := logging.Setup(cfg.Log)
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	// Open the collection store (SQLite is migrated on open).
	store, closeStore, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	slog.Info("storage ready", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path)

	m := metrics.New(store)
	fetcher := feeds.NewFetcher(time.Duration(cfg.Feeds.TimeoutSeconds) * time.Second)
	svc := lists.NewService(store,
		lists.WithObserver(m),
		lists.WithFetcher(fetcher, feeds.FetchOptions{MaxItems: cfg.Feeds.MaxItemsPerFeed}),
	)

	router := api.NewRouter(api.Deps{
		Service:   svc,
		Store:     store,
		Metrics:   m,
		PublicURL: cfg.Server.PublicURL,
	})

	// Determine server address (localhost only for security).
	addr := fmt.Sprintf("localhost:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Auto-open browser after a short delay to let the server start.
	if cfg.Server.AutoOpenBrowser {
		go func() {
			time.Sleep(500 * time.Millisecond)
			openBrowser("http://" + addr + handlers.IndexPath)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", "http://"+addr, "share_origin", cfg.Origin())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}
}

// openBrowser opens the given URL in the user's default browser.
// It is a fire-and-forget operation; errors are silently ignored.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	}
	if cmd != nil {
		_ = cmd.Start()
	}
}
