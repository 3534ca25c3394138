// Package main serves minute-bar series over HTTP:
// - Extraction: /series, /report, /export open one session per request
// - Maintenance (scheduled): cache refresh, directory ingest
// - Observability: /health, /metrics, /jobs
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsyzc2019/abquant-data/internal/app"
	"github.com/jsyzc2019/abquant-data/internal/config"
	"github.com/jsyzc2019/abquant-data/internal/ingest"
	"github.com/jsyzc2019/abquant-data/internal/reporting"
	"github.com/jsyzc2019/abquant-data/internal/scheduler"
)

func main() {
	// Load .env file if exists
	config.LoadEnvFile(".env")

	configPath := flag.String("config", os.Getenv("ABQ_CONFIG"), "YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	backend := flag.String("storage", "", "Storage backend: memory, sql or sqlite (overrides config)")
	demo := flag.Bool("demo", false, "Seed the demo market into the stores at startup")
	ingestDir := flag.String("ingest-dir", "", "Directory of CSV files imported on the ingest schedule")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	// Shut down on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create stores
	stores, cleanup, err := app.OpenStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if *demo {
		if err := app.SeedDemo(ctx, stores); err != nil {
			logger.Fatalf("Failed to seed demo data: %v", err)
		}
		logger.Println("Seeded demo market")
	}

	loader := app.NewLoader(cfg, stores, log.New(os.Stdout, "[series] ", log.LstdFlags))

	sched := scheduler.New(ctx, scheduler.Options{
		Logger: log.New(os.Stdout, "[scheduler] ", log.LstdFlags),
	})
	if spec := cfg.Schedule.CacheRefreshCron; spec != "" {
		err := sched.Register("cache-refresh", spec, func(context.Context) error {
			loader.Invalidate()
			return nil
		})
		if err != nil {
			logger.Fatalf("Failed to schedule cache refresh: %v", err)
		}
	}
	if spec := cfg.Schedule.IngestCron; spec != "" && *ingestDir != "" {
		mgr := ingest.NewManager(ingest.ManagerOptions{
			Bars:     stores.Bars,
			Factors:  stores.Factors,
			Progress: stores.Progress,
			Logger:   log.New(os.Stdout, "[ingest] ", log.LstdFlags),
		})
		err := sched.Register("ingest", spec, func(ctx context.Context) error {
			results, err := mgr.IngestDir(ctx, *ingestDir)
			for _, r := range results {
				if !r.Skipped && r.Rows > 0 {
					// new rows make cached bars stale
					loader.Invalidate()
					break
				}
			}
			return err
		})
		if err != nil {
			logger.Fatalf("Failed to schedule ingest: %v", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	a := &api{
		loader:    loader,
		generator: reporting.NewGenerator(),
		scheduler: sched,
		logger:    logger,
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Printf("Starting HTTP server on %s (storage=%s)", cfg.Server.Addr, cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown error: %v", err)
	}

	logger.Println("Shutdown complete")
}
