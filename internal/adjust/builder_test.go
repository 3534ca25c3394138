package adjust

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/frame"
	"github.com/jsyzc2019/abquant-data/internal/storage/memory"
	"github.com/jsyzc2019/abquant-data/internal/storage/mocks"
)

func testBars(t *testing.T) []domain.MinuteBar {
	t.Helper()
	mk := func(code, datetime string, price, vol float64) domain.MinuteBar {
		b, err := domain.NewMinuteBar(code, datetime, domain.MinFreq1, price, price, price, price, vol, price*vol)
		require.NoError(t, err)
		return b
	}
	return []domain.MinuteBar{
		mk("000001", "2024-01-02 09:31:00", 10.0, 1000),
		mk("600000", "2024-01-02 09:31:00", 8.0, 500),
		mk("000001", "2024-03-01 09:31:00", 11.0, 2000),
	}
}

func testFactors(t *testing.T) *memory.AdjustmentFactorStore {
	t.Helper()
	store := memory.NewAdjustmentFactorStore()
	require.NoError(t, store.InsertBulk(context.Background(), []domain.AdjustmentFactor{
		{Code: "000001", Date: "2023-06-01", Forward: 0.5, Backward: 2.0},
		{Code: "000001", Date: "2024-02-01", Forward: 1.0, Backward: 4.0},
	}))
	return store
}

func quietLogger() *log.Logger {
	return log.New(&bytes.Buffer{}, "", 0)
}

func TestFactorBuilder_Forward(t *testing.T) {
	b := NewFactorBuilder(BuilderOptions{Factors: testFactors(t), Logger: quietLogger()})

	table, err := b.Build(context.Background(), testBars(t), domain.AdjustForward)
	require.NoError(t, err)

	closes, err := frame.Column[float64](table, "close")
	require.NoError(t, err)
	assert.Equal(t, []float64{5.0, 8.0, 11.0}, closes)

	vols, err := frame.Column[float64](table, "vol")
	require.NoError(t, err)
	assert.Equal(t, []float64{2000, 500, 2000}, vols)

	// amount is untouched
	amounts, err := frame.Column[float64](table, "amount")
	require.NoError(t, err)
	assert.Equal(t, []float64{10000, 4000, 22000}, amounts)

	codes, err := frame.Column[string](table, "lhs.code")
	require.NoError(t, err)
	assert.Equal(t, []string{"000001", "600000", "000001"}, codes)

	for _, name := range []string{"lhs.date", "lhs.datetime", "date_stamp", "time_stamp", "type"} {
		assert.True(t, table.Has(name), name)
	}
}

func TestFactorBuilder_Backward(t *testing.T) {
	b := NewFactorBuilder(BuilderOptions{Factors: testFactors(t), Logger: quietLogger()})

	table, err := b.Build(context.Background(), testBars(t), domain.AdjustBackward)
	require.NoError(t, err)

	opens, err := frame.Column[float64](table, "open")
	require.NoError(t, err)
	assert.Equal(t, []float64{20.0, 8.0, 44.0}, opens)

	ratios, err := frame.Column[float64](table, FactorColumn)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.0, 1.0, 4.0}, ratios)
}

func TestFactorBuilder_Rounding(t *testing.T) {
	store := memory.NewAdjustmentFactorStore()
	require.NoError(t, store.InsertBulk(context.Background(), []domain.AdjustmentFactor{
		{Code: "000001", Date: "2020-01-01", Forward: 0.333333, Backward: 1},
	}))
	bars := testBars(t)[:1]

	b := NewFactorBuilder(BuilderOptions{Factors: store, Logger: quietLogger()})
	table, err := b.Build(context.Background(), bars, domain.AdjustForward)
	require.NoError(t, err)
	closes, err := frame.Column[float64](table, "close")
	require.NoError(t, err)
	assert.Equal(t, []float64{3.33}, closes)

	b = NewFactorBuilder(BuilderOptions{Factors: store, Precision: 4, Logger: quietLogger()})
	table, err = b.Build(context.Background(), bars, domain.AdjustForward)
	require.NoError(t, err)
	closes, err = frame.Column[float64](table, "close")
	require.NoError(t, err)
	assert.Equal(t, []float64{3.3333}, closes)
}

func TestFactorBuilder_NoFactors(t *testing.T) {
	b := NewFactorBuilder(BuilderOptions{Factors: memory.NewAdjustmentFactorStore(), Logger: quietLogger()})

	table, err := b.Build(context.Background(), testBars(t), domain.AdjustForward)
	require.NoError(t, err)

	closes, err := frame.Column[float64](table, "close")
	require.NoError(t, err)
	assert.Equal(t, []float64{10.0, 8.0, 11.0}, closes)
}

func TestFactorBuilder_EmptyBars(t *testing.T) {
	b := NewFactorBuilder(BuilderOptions{Factors: testFactors(t), Logger: quietLogger()})

	table, err := b.Build(context.Background(), nil, domain.AdjustForward)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestFactorBuilder_NotAdjusted(t *testing.T) {
	b := NewFactorBuilder(BuilderOptions{Factors: testFactors(t)})

	_, err := b.Build(context.Background(), testBars(t), domain.AdjustNone)
	assert.ErrorIs(t, err, ErrNotAdjusted)
}

func TestFactorBuilder_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	errStoreDown := errors.New("store down")

	factors := mocks.NewMockAdjustmentFactorStore(ctrl)
	factors.EXPECT().
		GetByCodes(gomock.Any(), []string{"000001", "600000"}).
		Return(nil, errStoreDown).
		Times(1)

	b := NewFactorBuilder(BuilderOptions{Factors: factors, Logger: quietLogger()})

	_, err := b.Build(context.Background(), testBars(t), domain.AdjustForward)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestCodes(t *testing.T) {
	assert.Equal(t, []string{"000001", "600000"}, Codes(testBars(t)))
	assert.Empty(t, Codes(nil))
}
