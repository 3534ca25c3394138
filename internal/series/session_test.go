package series

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsyzc2019/abquant-data/internal/adjust"
	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/frame"
)

func TestSession_RecordsIsCopy(t *testing.T) {
	records := exampleRecords(t)
	s, _ := newSession(records, domain.AdjustNone, nil)

	// caller's slice is not shared
	records[0].Open = 99
	got := s.Records()
	assert.Equal(t, 10.0, got[0].Open)

	got[1].Code = "ZZZ"
	assert.Equal(t, "AAA", s.Records()[1].Code)
	assert.Equal(t, 2, s.Len())
}

func TestSchema(t *testing.T) {
	want := []string{"open", "close", "high", "low", "vol", "amount",
		"datetime", "code", "date", "date_stamp", "time_stamp", "type"}
	assert.Equal(t, want, Schema())

	s := Schema()
	s[0] = "mutated"
	assert.Equal(t, "open", Schema()[0])

	kind, ok := ColumnKind("date_stamp")
	assert.True(t, ok)
	assert.Equal(t, frame.KindFloat, kind)
	_, ok = ColumnKind("adj")
	assert.False(t, ok)
}

func TestSession_AdjustedTable(t *testing.T) {
	builder := newCountingBuilder(t, domain.AdjustmentFactor{Code: "000001", Date: "2024-01-01", Forward: 0.5, Backward: 1})
	s, _ := newSession(mixedRecords(t), domain.AdjustForward, builder)
	ctx := context.Background()

	table, err := s.AdjustedTable(ctx)
	require.NoError(t, err)
	for _, name := range []string{"lhs.code", "lhs.date", "lhs.datetime", "close", adjust.FactorColumn} {
		assert.True(t, table.Has(name), name)
	}

	// the returned table is a copy
	frame.Set(table, "close", []float64{0})
	assert.Len(t, Extract[float64](ctx, s, "close"), 4)
	assert.Equal(t, int32(1), builder.calls.Load())
}

func TestSession_AdjustedTable_NotAdjusted(t *testing.T) {
	s, _ := newSession(mixedRecords(t), domain.AdjustNone, newCountingBuilder(t))

	_, err := s.AdjustedTable(context.Background())
	assert.ErrorIs(t, err, adjust.ErrNotAdjusted)
}

func TestSession_Close(t *testing.T) {
	builder := newCountingBuilder(t)
	s, logs := newSession(mixedRecords(t), domain.AdjustForward, builder)
	ctx := context.Background()

	require.Len(t, Extract[float64](ctx, s, "close"), 4)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Empty(t, s.Records())
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, Extract[string](ctx, s, "code"))
	assert.Empty(t, Extract[float64](ctx, s, "close"))

	_, err := Lookup[string](ctx, s, "code")
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = Lookup[float64](ctx, s, "close")
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.AdjustedTable(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)

	assert.Empty(t, logs.String())
	assert.Equal(t, int32(1), builder.calls.Load())
}

func TestSession_ID(t *testing.T) {
	a, _ := newSession(nil, domain.AdjustNone, nil)
	b, _ := newSession(nil, domain.AdjustNone, nil)
	assert.Len(t, a.ID(), 26)
	assert.NotEqual(t, a.ID(), b.ID())

	named := NewSession(SessionOptions{ID: "fixed"})
	assert.Equal(t, "fixed", named.ID())
}
