// Package ingest imports minute bars and adjustment factors from CSV files into stores.
package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/idhash"
	"github.com/jsyzc2019/abquant-data/internal/observability"
	"github.com/jsyzc2019/abquant-data/internal/storage"
)

// ErrNoStore is returned when a file's kind has no configured store.
var ErrNoStore = errors.New("no store configured")

// Result describes one ingested file.
type Result struct {
	File    string
	Kind    Kind
	Rows    int
	Skipped bool // already imported
}

// Manager orchestrates ingestion from files to storage.
// It enforces deterministic ordering and uses storage layer for duplicate rejection.
type Manager struct {
	bars     storage.MinuteBarStore
	factors  storage.AdjustmentFactorStore
	progress storage.IngestProgressStore
	freq     domain.MinFreq
	logger   *log.Logger
	now      func() time.Time
}

// ManagerOptions contains configuration for creating a Manager.
type ManagerOptions struct {
	Bars     storage.MinuteBarStore
	Factors  storage.AdjustmentFactorStore
	Progress storage.IngestProgressStore // optional; enables skip of seen files
	Freq     domain.MinFreq              // default bar frequency, 1min if zero
	Logger   *log.Logger
	Now      func() time.Time
}

// NewManager creates a new ingestion manager.
func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[ingest] ", log.LstdFlags)
	}
	freq := opts.Freq
	if freq == 0 {
		freq = domain.MinFreq1
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		bars:     opts.Bars,
		factors:  opts.Factors,
		progress: opts.Progress,
		freq:     freq,
		logger:   logger,
		now:      now,
	}
}

// IngestBars sorts and stores bars. Returns count of ingested bars.
// Duplicates are rejected by the storage layer (ErrDuplicateKey).
func (m *Manager) IngestBars(ctx context.Context, bars []domain.MinuteBar) (int, error) {
	if m.bars == nil {
		return 0, fmt.Errorf("%w: bars", ErrNoStore)
	}
	if len(bars) == 0 {
		return 0, nil
	}

	sorted := append([]domain.MinuteBar(nil), bars...)
	SortBars(sorted)

	if err := m.bars.InsertBulk(ctx, sorted); err != nil {
		return 0, fmt.Errorf("insert bars: %w", err)
	}
	observability.RecordIngest(string(KindBars), len(sorted), m.now().Unix())
	return len(sorted), nil
}

// IngestFactors sorts and stores factors. Returns count of ingested factors.
func (m *Manager) IngestFactors(ctx context.Context, factors []domain.AdjustmentFactor) (int, error) {
	if m.factors == nil {
		return 0, fmt.Errorf("%w: factors", ErrNoStore)
	}
	if len(factors) == 0 {
		return 0, nil
	}

	sorted := append([]domain.AdjustmentFactor(nil), factors...)
	SortFactors(sorted)

	if err := m.factors.InsertBulk(ctx, sorted); err != nil {
		return 0, fmt.Errorf("insert factors: %w", err)
	}
	observability.RecordIngest(string(KindFactors), len(sorted), m.now().Unix())
	return len(sorted), nil
}

// IngestFile imports one CSV file, detecting its kind from the header.
// Files whose content was imported before are skipped.
func (m *Manager) IngestFile(ctx context.Context, path string) (Result, error) {
	res := Result{File: filepath.Base(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	digest := idhash.ComputeContentKey(data)

	if m.progress != nil {
		seen, err := m.progress.IsFileSeen(ctx, digest)
		if err != nil {
			return res, fmt.Errorf("check progress: %w", err)
		}
		if seen {
			res.Skipped = true
			m.logger.Printf("skip %s: already imported", res.File)
			return res, nil
		}
	}

	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return res, fmt.Errorf("%s: %w: read header: %v", res.File, ErrMalformedCSV, err)
	}
	res.Kind, err = DetectKind(header)
	if err != nil {
		return res, fmt.Errorf("%s: %w", res.File, err)
	}

	switch res.Kind {
	case KindFactors:
		factors, err := ParseFactors(bytes.NewReader(data))
		if err != nil {
			return res, fmt.Errorf("%s: %w", res.File, err)
		}
		res.Rows, err = m.IngestFactors(ctx, factors)
		if err != nil {
			err = m.resumeIfStored(ctx, &res, len(factors), err, func() (bool, error) {
				return m.factorsStored(ctx, factors)
			})
		}
		if err != nil {
			return res, fmt.Errorf("%s: %w", res.File, err)
		}
	default:
		bars, err := ParseBars(bytes.NewReader(data), m.freq)
		if err != nil {
			return res, fmt.Errorf("%s: %w", res.File, err)
		}
		res.Rows, err = m.IngestBars(ctx, bars)
		if err != nil {
			err = m.resumeIfStored(ctx, &res, len(bars), err, func() (bool, error) {
				return m.barsStored(ctx, bars)
			})
		}
		if err != nil {
			return res, fmt.Errorf("%s: %w", res.File, err)
		}
	}

	if m.progress != nil {
		err := m.progress.MarkFileSeen(ctx, storage.IngestedFile{
			Digest:     digest,
			Name:       res.File,
			Kind:       string(res.Kind),
			Rows:       res.Rows,
			IngestedAt: m.now().Unix(),
		})
		if err != nil {
			return res, fmt.Errorf("mark progress: %w", err)
		}
	}

	if !res.Skipped {
		m.logger.Printf("imported %s: %d %s", res.File, res.Rows, res.Kind)
	}
	return res, nil
}

// resumeIfStored handles a duplicate-key failure on a file not yet recorded.
// If every row is already stored, an earlier run committed the rows but failed
// to record the file: the failure is cleared and the file is only recorded.
func (m *Manager) resumeIfStored(ctx context.Context, res *Result, rows int, insertErr error, stored func() (bool, error)) error {
	if m.progress == nil || !errors.Is(insertErr, storage.ErrDuplicateKey) {
		return insertErr
	}
	ok, err := stored()
	if err != nil {
		return errors.Join(insertErr, fmt.Errorf("check stored rows: %w", err))
	}
	if !ok {
		return insertErr
	}
	res.Rows = rows
	res.Skipped = true
	m.logger.Printf("%s: all %d rows already stored, recording file", res.File, rows)
	return nil
}

func (m *Manager) barsStored(ctx context.Context, bars []domain.MinuteBar) (bool, error) {
	byType := make(map[string][]domain.MinuteBar)
	for _, b := range bars {
		byType[b.Type] = append(byType[b.Type], b)
	}

	type key struct{ code, datetime string }
	for typ, group := range byType {
		freq, err := domain.ParseMinFreq(typ)
		if err != nil {
			return false, nil
		}
		first, last := group[0].Date, group[0].Date
		codeSet := make(map[string]struct{})
		for _, b := range group {
			codeSet[b.Code] = struct{}{}
			first, last = min(first, b.Date), max(last, b.Date)
		}
		codes := make([]string, 0, len(codeSet))
		for c := range codeSet {
			codes = append(codes, c)
		}
		sort.Strings(codes)

		stored, err := m.bars.GetByCodes(ctx, codes, first, last, freq)
		if err != nil {
			return false, err
		}
		have := make(map[key]struct{}, len(stored))
		for _, b := range stored {
			have[key{b.Code, b.Datetime}] = struct{}{}
		}
		for _, b := range group {
			if _, ok := have[key{b.Code, b.Datetime}]; !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

func (m *Manager) factorsStored(ctx context.Context, factors []domain.AdjustmentFactor) (bool, error) {
	codeSet := make(map[string]struct{})
	for _, f := range factors {
		codeSet[f.Code] = struct{}{}
	}
	codes := make([]string, 0, len(codeSet))
	for c := range codeSet {
		codes = append(codes, c)
	}
	sort.Strings(codes)

	stored, err := m.factors.GetByCodes(ctx, codes)
	if err != nil {
		return false, err
	}
	type key struct{ code, date string }
	have := make(map[key]struct{}, len(stored))
	for _, f := range stored {
		have[key{f.Code, f.Date}] = struct{}{}
	}
	for _, f := range factors {
		if _, ok := have[key{f.Code, f.Date}]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// IngestDir imports every *.csv file in dir in name order.
// Factor files go first so adjusted reads never see bars without their ratios.
// A failing file does not stop the rest; all errors are joined.
func (m *Manager) IngestDir(ctx context.Context, dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var paths, factorPaths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if isFactorFile(p) {
			factorPaths = append(factorPaths, p)
		} else {
			paths = append(paths, p)
		}
	}
	sort.Strings(factorPaths)
	sort.Strings(paths)
	paths = append(factorPaths, paths...)

	var results []Result
	var errs []error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := m.IngestFile(ctx, p)
		if err != nil {
			m.logger.Printf("import %s failed: %v", filepath.Base(p), err)
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func isFactorFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return false
	}
	kind, err := DetectKind(header)
	return err == nil && kind == KindFactors
}
