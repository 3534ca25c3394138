package series

import (
	"bytes"
	"context"
	"log"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsyzc2019/abquant-data/internal/adjust"
	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/frame"
	"github.com/jsyzc2019/abquant-data/internal/storage/memory"
)

func mkBar(t *testing.T, code, datetime string, open, close float64) domain.MinuteBar {
	t.Helper()
	b, err := domain.NewMinuteBar(code, datetime, domain.MinFreq1, open, close, close+0.2, open-0.1, 100, 100*close)
	require.NoError(t, err)
	return b
}

// exampleRecords is a two-bar, single symbol store.
func exampleRecords(t *testing.T) []domain.MinuteBar {
	t.Helper()
	return []domain.MinuteBar{
		mkBar(t, "AAA", "2024-01-01 09:31:00", 10.0, 10.5),
		mkBar(t, "AAA", "2024-01-02 09:31:00", 10.5, 11.0),
	}
}

// mixedRecords interleaves two symbols chronologically.
func mixedRecords(t *testing.T) []domain.MinuteBar {
	t.Helper()
	return []domain.MinuteBar{
		mkBar(t, "000001", "2024-01-02 09:31:00", 10.0, 10.2),
		mkBar(t, "600000", "2024-01-02 09:31:00", 8.0, 8.1),
		mkBar(t, "000001", "2024-01-03 09:31:00", 10.2, 10.4),
		mkBar(t, "600000", "2024-01-03 09:31:00", 8.1, 8.3),
	}
}

func bufferLogger() (*log.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return log.New(buf, "[series] ", 0), buf
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// countingBuilder counts Build calls and delegates to a factor builder.
type countingBuilder struct {
	calls atomic.Int32
	inner adjust.TableBuilder
}

func (b *countingBuilder) Build(ctx context.Context, bars []domain.MinuteBar, mode domain.AdjustmentMode) (*frame.Frame, error) {
	b.calls.Add(1)
	return b.inner.Build(ctx, bars, mode)
}

func newCountingBuilder(t *testing.T, factors ...domain.AdjustmentFactor) *countingBuilder {
	t.Helper()
	store := memory.NewAdjustmentFactorStore()
	require.NoError(t, store.InsertBulk(context.Background(), factors))
	logger, _ := bufferLogger()
	return &countingBuilder{inner: adjust.NewFactorBuilder(adjust.BuilderOptions{Factors: store, Logger: logger})}
}

// brokenJoinBuilder joins against a factor frame with no key columns.
type brokenJoinBuilder struct {
	calls atomic.Int32
}

func (b *brokenJoinBuilder) Build(_ context.Context, bars []domain.MinuteBar, _ domain.AdjustmentMode) (*frame.Frame, error) {
	b.calls.Add(1)
	return frame.JoinAsOf(adjust.BarsFrame(bars), frame.New(), frame.AsOf{By: "code", On: "date"})
}

func newSession(records []domain.MinuteBar, mode domain.AdjustmentMode, builder adjust.TableBuilder) (*Session, *syncBuffer) {
	logger, buf := bufferLogger()
	return NewSession(SessionOptions{
		Request: Request{Mode: mode},
		Records: records,
		Builder: builder,
		Logger:  logger,
	}), buf
}
