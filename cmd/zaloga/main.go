package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/zaloga/internal/api"
	"github.com/erazemk/zaloga/internal/assetcache"
	"github.com/erazemk/zaloga/internal/client"
	"github.com/erazemk/zaloga/internal/config"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/logging"
	"github.com/erazemk/zaloga/internal/syncer"
	"github.com/erazemk/zaloga/internal/web"
	"github.com/erazemk/zaloga/internal/websocket"
	webembed "github.com/erazemk/zaloga/web"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := logging.Setup(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	slog.Info("database ready", "path", cfg.DBPath)

	ctx := context.Background()

	store := inventory.New()
	hub := websocket.NewHub(slog.Default())
	store.OnChange(hub.InventoryChanged)

	// An untyped nil API selects the mock.
	var remote syncer.API
	var excluded []string
	if !cfg.Mock() {
		c := client.New(cfg.APIURL, client.WithSecret(cfg.Secret), client.WithName(hostname()))
		if host := c.Host(); host != "" {
			excluded = append(excluded, host)
		}
		remote = c
	}
	ctrl := syncer.New(store, syncer.Select(remote, syncer.NewMock(cfg.MockDelay)))

	if ctrl.Mode() == syncer.ModeMock {
		seed := inventory.DefaultSeed(time.Now())
		if cfg.SeedPath != "" {
			seed, err = inventory.LoadSeed(cfg.SeedPath, time.Now())
			if err != nil {
				slog.Error("failed to load seed", "path", cfg.SeedPath, "error", err)
				os.Exit(1)
			}
		}
		store.Load(seed)
		slog.Info("mock data loaded", "items", len(seed.Items))
	} else {
		// Serve while the first sync runs; pages reload over the websocket
		// once it lands, and the sync button retries a failure.
		initial := ctrl.RefreshInBackground(ctx)
		go func() {
			if err := <-initial; err != nil {
				slog.Warn("initial sync failed", "error", err)
				return
			}
			slog.Info("initial sync complete", "items", len(store.Items()))
		}()
	}

	cache := assetcache.New(database, web.CacheName, web.Assets,
		assetcache.WithFS(webembed.RootFS()),
		assetcache.WithExcludedHosts(excluded...),
	)
	installCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := cache.Install(installCtx); err != nil {
		slog.Warn("asset cache install failed, serving assets from the network", "error", err)
	} else if _, err := cache.Activate(installCtx); err != nil {
		slog.Warn("asset cache activate failed", "error", err)
	}
	cancel()

	router, err := web.NewRouter(ctrl, hub, cache)
	if err != nil {
		slog.Error("failed to set up web router", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "config", cfg.String())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// hostname names this instance in signed API requests.
func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "zaloga"
	}
	return "zaloga@" + name
}
