package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jsyzc2019/abquant-data/internal/app"
	"github.com/jsyzc2019/abquant-data/internal/config"
	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/ingest"
	"github.com/jsyzc2019/abquant-data/internal/observability"
	"github.com/jsyzc2019/abquant-data/internal/scheduler"
)

func main() {
	config.LoadEnvFile(".env")

	configPath := flag.String("config", os.Getenv("ABQ_CONFIG"), "YAML config file")
	backend := flag.String("storage", "", "Storage backend: memory, sql or sqlite (overrides config)")
	dir := flag.String("dir", "", "Directory of CSV files to ingest")
	files := flag.String("file", "", "Comma-separated CSV files to ingest")
	freqFlag := flag.String("freq", "1min", "Bar frequency for files without a type column")
	cronSpec := flag.String("cron", "", "Re-run -dir on this six-field cron spec (\"config\" uses schedule.ingest_cron)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (default from config, \"off\" to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}
	if *dir == "" && *files == "" {
		logger.Fatal("Nothing to ingest. Use -dir or -file")
	}
	if *cronSpec == "config" {
		*cronSpec = cfg.Schedule.IngestCron
		if *cronSpec == "" {
			logger.Fatal("-cron=config but schedule.ingest_cron is not set")
		}
	}
	if *cronSpec != "" && *dir == "" {
		logger.Fatal("-cron requires -dir")
	}

	freq, err := domain.ParseMinFreq(*freqFlag)
	if err != nil {
		logger.Fatalf("Invalid -freq: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := *metricsAddr
	if addr == "" {
		addr = cfg.Server.MetricsAddr
	}
	if addr != "off" && addr != "" {
		go serveMetrics(addr, logger)
	}

	stores, cleanup, err := app.OpenStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to open stores: %v", err)
	}
	defer cleanup()

	mgr := ingest.NewManager(ingest.ManagerOptions{
		Bars:     stores.Bars,
		Factors:  stores.Factors,
		Progress: stores.Progress,
		Freq:     freq,
		Logger:   logger,
	})

	failed := false
	if *files != "" {
		for _, path := range strings.Split(*files, ",") {
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			res, err := mgr.IngestFile(ctx, path)
			if err != nil {
				logger.Printf("%s: %v", path, err)
				failed = true
				continue
			}
			logResult(logger, res)
		}
	}
	if *dir != "" {
		if err := ingestDir(ctx, mgr, *dir, logger); err != nil {
			failed = true
		}
	}

	if *cronSpec == "" {
		if failed {
			cleanup()
			os.Exit(1)
		}
		return
	}

	sched := scheduler.New(ctx, scheduler.Options{Logger: logger})
	err = sched.Register("ingest", *cronSpec, func(ctx context.Context) error {
		return ingestDir(ctx, mgr, *dir, logger)
	})
	if err != nil {
		logger.Fatalf("Failed to schedule ingest: %v", err)
	}
	sched.Start()
	for _, e := range sched.Entries() {
		logger.Printf("Scheduled %s (%s), next run %s", e.Name, e.Spec, e.Next.Format(time.RFC3339))
	}

	<-ctx.Done()
	logger.Println("Shutting down...")
	sched.Stop()
	logger.Println("Shutdown complete")
}

func ingestDir(ctx context.Context, mgr *ingest.Manager, dir string, logger *log.Logger) error {
	results, err := mgr.IngestDir(ctx, dir)
	for _, res := range results {
		logResult(logger, res)
	}
	if err != nil {
		logger.Printf("Ingest %s: %v", dir, err)
	}
	return err
}

func logResult(logger *log.Logger, res ingest.Result) {
	if res.Skipped {
		logger.Printf("%s: already ingested, skipped", res.File)
		return
	}
	logger.Printf("%s: %d %s rows", res.File, res.Rows, res.Kind)
}

func serveMetrics(addr string, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	logger.Printf("Starting metrics server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("Metrics server error: %v", err)
	}
}
