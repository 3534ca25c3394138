package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsyzc2019/abquant-data/internal/app"
	"github.com/jsyzc2019/abquant-data/internal/config"
	"github.com/jsyzc2019/abquant-data/internal/series"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	backend    string
	demo       bool
	verbose    bool

	codes string
	start string
	end   string
	freq  string
	adj   string
}

func newRootCmd() *cobra.Command {
	ro := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract typed minute-bar series, optionally price adjusted",
		Long: `Extract opens a session over stored minute bars and prints, exports or
summarizes its columns.

Columns: open, close, high, low, vol, amount, datetime, code, date,
date_stamp, time_stamp, type.

Example:
  extract series --demo --codes 000001 --start 2024-01-02 --end 2024-01-05 --adj qfq close`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnvFile(".env")
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&ro.configPath, "config", os.Getenv("ABQ_CONFIG"), "YAML config file")
	pf.StringVar(&ro.backend, "storage", "", "storage backend: memory, sql or sqlite (overrides config)")
	pf.BoolVar(&ro.demo, "demo", false, "seed the demo market before extracting")
	pf.BoolVarP(&ro.verbose, "verbose", "v", false, "log session diagnostics to stderr")
	pf.StringVarP(&ro.codes, "codes", "c", "", "comma-separated symbol codes")
	pf.StringVar(&ro.start, "start", "", "first trading day, 2006-01-02")
	pf.StringVar(&ro.end, "end", "", "last trading day, 2006-01-02")
	pf.StringVarP(&ro.freq, "freq", "f", "1min", "bar frequency: 1, 5, 15, 30 or 60 minutes")
	pf.StringVarP(&ro.adj, "adj", "a", "none", "price adjustment: none, pre (qfq) or post (hfq)")

	cmd.AddCommand(
		newSchemaCmd(),
		newSeriesCmd(ro),
		newDumpCmd(ro),
		newExportCmd(ro),
		newReportCmd(ro),
	)

	return cmd
}

// openSession loads config, opens stores and returns a session for the
// request flags. The returned cleanup closes both.
func (ro *rootOptions) openSession(ctx context.Context, stderr io.Writer) (*series.Session, func(), error) {
	cfg, err := config.Load(ro.configPath)
	if err != nil {
		return nil, nil, err
	}
	if ro.backend != "" {
		cfg.Storage.Backend = ro.backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	req, err := series.ParseRequest(ro.codes, ro.start, ro.end, ro.freq, ro.adj)
	if err != nil {
		return nil, nil, err
	}

	stores, cleanup, err := app.OpenStores(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open stores: %w", err)
	}
	if ro.demo {
		if err := app.SeedDemo(ctx, stores); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	logOut := io.Discard
	if ro.verbose {
		logOut = stderr
	}
	loader := app.NewLoader(cfg, stores, log.New(logOut, "[extract] ", log.LstdFlags))

	s, err := loader.Open(ctx, req)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return s, func() {
		s.Close()
		cleanup()
	}, nil
}
