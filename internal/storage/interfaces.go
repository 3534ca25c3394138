package storage

import (
	"context"

	"github.com/jsyzc2019/abquant-data/internal/domain"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_storage.go -source=interfaces.go

// MinuteBarStore provides access to minute_bars storage.
type MinuteBarStore interface {
	// InsertBulk adds multiple bars. Fails entire batch on duplicate (code, datetime, type).
	InsertBulk(ctx context.Context, bars []domain.MinuteBar) error

	// GetByCodes retrieves bars of the given frequency for codes whose Date is within
	// [start, end] (inclusive, "2006-01-02"), ordered by (datetime, code) ASC.
	GetByCodes(ctx context.Context, codes []string, start, end string, freq domain.MinFreq) ([]domain.MinuteBar, error)
}

// AdjustmentFactorStore provides access to adjustment_factors storage.
type AdjustmentFactorStore interface {
	// InsertBulk adds multiple factors. Fails entire batch on duplicate (code, date).
	InsertBulk(ctx context.Context, factors []domain.AdjustmentFactor) error

	// GetByCodes retrieves all factors for codes, ordered by (code, date) ASC.
	GetByCodes(ctx context.Context, codes []string) ([]domain.AdjustmentFactor, error)
}
