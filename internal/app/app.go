package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vulnscan-ai/vulnscan/internal/adapters/nvd"
	"github.com/vulnscan-ai/vulnscan/internal/adapters/storage"
	"github.com/vulnscan-ai/vulnscan/internal/adapters/vulncache"
	webserver "github.com/vulnscan-ai/vulnscan/internal/adapters/web/server"
	web "github.com/vulnscan-ai/vulnscan/internal/adapters/web/websocket"
	"github.com/vulnscan-ai/vulnscan/internal/config"
	"github.com/vulnscan-ai/vulnscan/internal/core/ports"
	"github.com/vulnscan-ai/vulnscan/internal/core/services/enrichment"
	"github.com/vulnscan-ai/vulnscan/internal/core/services/match"
	"github.com/vulnscan-ai/vulnscan/internal/telemetry"
)

// Application holds the core components of the application.
// It acts as the Facade for the entire system, orchestrating services and infrastructure.
type Application struct {
	Config     *config.Config
	Store      *storage.SQLiteAdapter
	Cache      *vulncache.SQLiteCache
	Feed       ports.VulnerabilityFeed
	Enrichment *enrichment.Service
	WSManager  *web.WSManager
	WebServer  *webserver.Server
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	// 1. Foundation & Infrastructure
	telemetry.InitMetrics()

	if err := app.initStorage(); err != nil {
		return err
	}
	app.initCache()

	// 2. Upstream Feed
	app.initFeed()

	// 3. Core Services
	scorer := match.NewScorer(app.Config.YearCutoff)
	app.WSManager = web.NewWSManager(app.Config.Origins)
	app.Enrichment = enrichment.NewService(app.Store, app.Feed, scorer, app.WSManager, app.Config.DescMaxLen)

	// 4. Server
	app.WebServer = webserver.NewServer(app.Config.Addr, app.Store, app.Enrichment, app.WSManager)

	return nil
}

func (app *Application) initStorage() error {
	if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0755); err != nil {
		return fmt.Errorf("failed to create DB directory: %w", err)
	}

	store, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init system storage: %w", err)
	}
	app.Store = store
	return nil
}

// initCache opens the local vulnerability cache. The cache only
// accelerates exact-id lookups; startup continues without it.
func (app *Application) initCache() {
	cache, err := vulncache.NewSQLiteCache(app.Config.CacheDBPath)
	if err != nil {
		log.Printf("Warning: vulnerability cache unavailable: %v", err)
		return
	}
	app.Cache = cache

	if count, err := cache.GetTotalCount(context.Background()); err == nil && count > 0 {
		log.Printf("Vulnerability cache ready: %d records", count)
	}
}

func (app *Application) initFeed() {
	client := nvd.NewClient(nvd.Config{
		BaseURL:     app.Config.NVDBaseURL,
		APIKey:      app.Config.NVDAPIKey,
		MaxAttempts: app.Config.FeedAttempts,
		RetryDelay:  time.Duration(app.Config.FeedRetry) * time.Second,
	}, nvd.NewRatePacer(app.Config.FeedRPS))

	if app.Cache != nil {
		app.Feed = nvd.NewCachedFeed(app.Cache, client)
	} else {
		app.Feed = client
	}
}

// Run starts the application components and manages their execution lifecycle.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting VulnScan components...")

	errChan := make(chan error, 1)

	go func() {
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	slog.Info("VulnScan Ready. Press Ctrl+C to terminate.")

	select {
	case <-ctx.Done():
		slog.Info("Termination signal received")
	case err := <-errChan:
		return err
	}

	return app.cleanup()
}

func (app *Application) cleanup() error {
	slog.Info("Cleaning up resources...")

	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			log.Printf("Error closing vulnerability cache: %v", err)
		}
	}
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			log.Printf("Error closing storage: %v", err)
		}
	}

	return nil
}
