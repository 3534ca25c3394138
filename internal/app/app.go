// Package app wires stores, the adjusted-table builder and the loader from config.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jsyzc2019/abquant-data/internal/adjust"
	"github.com/jsyzc2019/abquant-data/internal/config"
	"github.com/jsyzc2019/abquant-data/internal/fixtures"
	"github.com/jsyzc2019/abquant-data/internal/series"
	"github.com/jsyzc2019/abquant-data/internal/storage"
	chstore "github.com/jsyzc2019/abquant-data/internal/storage/clickhouse"
	"github.com/jsyzc2019/abquant-data/internal/storage/memory"
	"github.com/jsyzc2019/abquant-data/internal/storage/migrations"
	pgstore "github.com/jsyzc2019/abquant-data/internal/storage/postgres"
	"github.com/jsyzc2019/abquant-data/internal/storage/sqlite"
)

// Stores holds all storage implementations.
type Stores struct {
	Bars     storage.MinuteBarStore
	Factors  storage.AdjustmentFactorStore
	Progress storage.IngestProgressStore
}

// OpenStores creates the stores for cfg.Storage.Backend.
// The returned cleanup closes any connections and is never nil on success.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return &Stores{
			Bars:     memory.NewMinuteBarStore(),
			Factors:  memory.NewAdjustmentFactorStore(),
			Progress: memory.NewIngestProgressStore(),
		}, func() {}, nil

	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.Storage.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return &Stores{
			Bars:     sqlite.NewMinuteBarStore(db),
			Factors:  sqlite.NewAdjustmentFactorStore(db),
			Progress: sqlite.NewIngestProgressStore(db),
		}, func() { db.Close() }, nil

	case config.BackendSQL:
		return openSQL(ctx, cfg)

	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}

func openSQL(ctx context.Context, cfg *config.Config) (*Stores, func(), error) {
	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if cfg.Storage.Migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}

	// ClickHouse
	var chConn *chstore.Conn
	if cfg.Storage.Migrate {
		chConn, err = migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	} else {
		chConn, err = chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
	}
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	stores := &Stores{
		// PostgreSQL stores (reference data)
		Factors:  pgstore.NewAdjustmentFactorStore(pool),
		Progress: pgstore.NewIngestProgressStore(pool),

		// ClickHouse stores (analytics)
		Bars: chstore.NewMinuteBarStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// SeedDemo loads the demo market into stores.
func SeedDemo(ctx context.Context, stores *Stores) error {
	return fixtures.Seed(ctx, stores.Bars, stores.Factors)
}

// NewBuilder creates the adjusted-table builder over stores.Factors.
func NewBuilder(cfg *config.Config, stores *Stores, logger *log.Logger) *adjust.FactorBuilder {
	return adjust.NewFactorBuilder(adjust.BuilderOptions{
		Factors:   stores.Factors,
		Precision: cfg.Adjust.Precision,
		Logger:    logger,
	})
}

// NewLoader creates a session loader over stores with the configured cache.
func NewLoader(cfg *config.Config, stores *Stores, logger *log.Logger) *series.Loader {
	return series.NewLoader(series.LoaderOptions{
		Bars:          stores.Bars,
		Builder:       NewBuilder(cfg, stores, logger),
		CacheTTL:      cfg.Cache.TTL,
		CacheMaxItems: cfg.Cache.MaxItems,
		Logger:        logger,
	})
}
