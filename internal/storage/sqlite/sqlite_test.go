package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/storage"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testBar(t *testing.T, code, datetime string, close float64) domain.MinuteBar {
	t.Helper()
	b, err := domain.NewMinuteBar(code, datetime, domain.MinFreq1, close, close, close, close, 100, 100*close)
	require.NoError(t, err)
	return b
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestMinuteBarStore(t *testing.T) {
	store := NewMinuteBarStore(setupTestDB(t))
	ctx := context.Background()

	bars := []domain.MinuteBar{
		testBar(t, "600000", "2024-01-02 09:31:00", 8.0),
		testBar(t, "000001", "2024-01-02 09:32:00", 10.6),
		testBar(t, "000001", "2024-01-02 09:31:00", 10.5),
		testBar(t, "000001", "2024-01-05 09:31:00", 10.9),
	}
	require.NoError(t, store.InsertBulk(ctx, bars))

	got, err := store.GetByCodes(ctx, []string{"000001", "600000"}, "2024-01-02", "2024-01-04", domain.MinFreq1)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, bars[2], got[0])
	assert.Equal(t, bars[0], got[1])
	assert.Equal(t, bars[1], got[2])

	got, err = store.GetByCodes(ctx, []string{"000001"}, "2024-01-01", "2024-12-31", domain.MinFreq5)
	require.NoError(t, err)
	assert.Empty(t, got)

	err = store.InsertBulk(ctx, []domain.MinuteBar{testBar(t, "000001", "2024-01-08 09:31:00", 1), bars[0]})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// rolled back
	got, err = store.GetByCodes(ctx, []string{"000001"}, "2024-01-08", "2024-01-08", domain.MinFreq1)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.ErrorIs(t, store.InsertBulk(ctx, []domain.MinuteBar{{Code: "000001"}}), storage.ErrInvalidInput)
}

func TestAdjustmentFactorStore(t *testing.T) {
	store := NewAdjustmentFactorStore(setupTestDB(t))
	ctx := context.Background()

	factors := []domain.AdjustmentFactor{
		{Code: "600000", Date: "2024-01-02", Forward: 0.9, Backward: 1.2},
		{Code: "000001", Date: "2024-06-14", Forward: 1.0, Backward: 1.35},
		{Code: "000001", Date: "2024-01-02", Forward: 0.8, Backward: 1.2},
	}
	require.NoError(t, store.InsertBulk(ctx, factors))

	got, err := store.GetByCodes(ctx, []string{"600000", "000001"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, factors[2], got[0])
	assert.Equal(t, factors[1], got[1])
	assert.Equal(t, factors[0], got[2])

	err = store.InsertBulk(ctx, factors[:1])
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err = store.GetByCodes(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIngestProgressStore(t *testing.T) {
	store := NewIngestProgressStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.MarkFileSeen(ctx, storage.IngestedFile{Digest: "d1", Name: "bars.csv", Kind: "bars", Rows: 4, IngestedAt: 5}))
	require.NoError(t, store.MarkFileSeen(ctx, storage.IngestedFile{Digest: "d1", Name: "again.csv", Kind: "bars", IngestedAt: 6}))

	seen, err := store.IsFileSeen(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = store.IsFileSeen(ctx, "d2")
	require.NoError(t, err)
	assert.False(t, seen)

	files, err := store.LoadSeenFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []storage.IngestedFile{{Digest: "d1", Name: "bars.csv", Kind: "bars", Rows: 4, IngestedAt: 5}}, files)
}
