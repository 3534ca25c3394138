package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/storage"
)

func TestAdjustmentFactorStore_InsertBulkAndGet(t *testing.T) {
	pool := setupTestDB(t)

	store := NewAdjustmentFactorStore(pool)
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

	assert.Equal(t, "000001", got[0].Code)
	assert.Equal(t, "2024-01-02", got[0].Date)
	assert.Equal(t, "2024-06-14", got[1].Date)
	assert.InDelta(t, 1.35, got[1].Backward, 1e-9)
	assert.Equal(t, "600000", got[2].Code)
}

func TestAdjustmentFactorStore_InsertBulk_DuplicateKey(t *testing.T) {
	pool := setupTestDB(t)

	store := NewAdjustmentFactorStore(pool)
	ctx := context.Background()

	f := domain.AdjustmentFactor{Code: "000001", Date: "2024-01-02", Forward: 0.8, Backward: 1.2}
	require.NoError(t, store.InsertBulk(ctx, []domain.AdjustmentFactor{f}))

	err := store.InsertBulk(ctx, []domain.AdjustmentFactor{
		{Code: "000001", Date: "2024-03-01", Forward: 0.9, Backward: 1.3},
		f,
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Whole batch rolled back
	got, err := store.GetByCodes(ctx, []string{"000001"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAdjustmentFactorStore_InsertBulk_InvalidInput(t *testing.T) {
	pool := setupTestDB(t)

	store := NewAdjustmentFactorStore(pool)
	err := store.InsertBulk(context.Background(), []domain.AdjustmentFactor{{Code: "000001"}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestAdjustmentFactorStore_GetByCodes_Empty(t *testing.T) {
	pool := setupTestDB(t)

	store := NewAdjustmentFactorStore(pool)

	got, err := store.GetByCodes(context.Background(), []string{"999999"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.GetByCodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAdjustmentFactorStore_GetByCodes_SchemaMissing(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `DROP TABLE adjustment_factors`)
	require.NoError(t, err)

	_, err = NewAdjustmentFactorStore(pool).GetByCodes(ctx, []string{"000001"})
	assert.ErrorIs(t, err, storage.ErrSchemaMissing)
}
