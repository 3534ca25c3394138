// Package adjust builds price-adjusted tables from minute bars and
// stored adjustment factors.
package adjust

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/frame"
	"github.com/jsyzc2019/abquant-data/internal/observability"
	"github.com/jsyzc2019/abquant-data/internal/storage"
)

// ErrNotAdjusted is returned when Build is asked for AdjustNone.
var ErrNotAdjusted = errors.New("adjustment mode does not rebase prices")

// FactorColumn is the column holding the ratio applied to each row.
const FactorColumn = "adj"

// DefaultPrecision is the number of decimal places adjusted values are rounded to.
const DefaultPrecision int32 = 2

var (
	priceColumns = []string{"open", "close", "high", "low"}
	volumeColumn = "vol"
)

// TableBuilder produces the adjusted table for a set of bars.
type TableBuilder interface {
	Build(ctx context.Context, bars []domain.MinuteBar, mode domain.AdjustmentMode) (*frame.Frame, error)
}

// FactorBuilder adjusts bars with factors read from an AdjustmentFactorStore.
//
// The result is the as-of join of the bars with their factors: identity
// columns code, date and datetime appear as lhs.<name>, prices are
// multiplied by the factor and volume is divided by it. Amount is kept.
// Bars dated before a symbol's first factor use a factor of 1.
type FactorBuilder struct {
	factors   storage.AdjustmentFactorStore
	precision int32
	logger    *log.Logger
}

// BuilderOptions contains configuration for creating a FactorBuilder.
type BuilderOptions struct {
	Factors   storage.AdjustmentFactorStore
	Precision int32 // Default: 2 decimal places; negative disables rounding
	Logger    *log.Logger
}

// NewFactorBuilder creates a new FactorBuilder.
func NewFactorBuilder(opts BuilderOptions) *FactorBuilder {
	precision := opts.Precision
	if precision == 0 {
		precision = DefaultPrecision
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &FactorBuilder{
		factors:   opts.Factors,
		precision: precision,
		logger:    logger,
	}
}

// Build loads factors for the bars' codes and returns the adjusted table.
func (b *FactorBuilder) Build(ctx context.Context, bars []domain.MinuteBar, mode domain.AdjustmentMode) (table *frame.Frame, err error) {
	if !mode.Adjusted() {
		return nil, ErrNotAdjusted
	}

	start := time.Now()
	defer func() {
		observability.RecordTableBuild(mode.String(), time.Since(start).Seconds(), err)
	}()

	factors, err := b.factors.GetByCodes(ctx, Codes(bars))
	if err != nil {
		return nil, fmt.Errorf("load adjustment factors: %w", err)
	}

	joined, err := frame.JoinAsOf(BarsFrame(bars), FactorsFrame(factors, mode), frame.AsOf{By: "code", On: "date"})
	if err != nil {
		return nil, fmt.Errorf("join adjustment factors: %w", err)
	}

	ratios, err := frame.Column[float64](joined, FactorColumn)
	if err != nil {
		return nil, err
	}
	missing := 0
	for i, r := range ratios {
		if math.IsNaN(r) || r <= 0 {
			ratios[i] = 1
			missing++
		}
	}
	if missing > 0 && len(factors) > 0 {
		b.logger.Printf("%d of %d bars have no %s factor, using 1", missing, len(ratios), mode)
	}
	frame.Set(joined, FactorColumn, ratios)

	for _, name := range priceColumns {
		if err := b.apply(joined, name, ratios, mul); err != nil {
			return nil, err
		}
	}
	if err := b.apply(joined, volumeColumn, ratios, div); err != nil {
		return nil, err
	}

	return joined, nil
}

type op func(v, ratio decimal.Decimal) decimal.Decimal

func mul(v, ratio decimal.Decimal) decimal.Decimal { return v.Mul(ratio) }
func div(v, ratio decimal.Decimal) decimal.Decimal { return v.Div(ratio) }

func (b *FactorBuilder) apply(f *frame.Frame, name string, ratios []float64, fn op) error {
	values, err := frame.Column[float64](f, name)
	if err != nil {
		return fmt.Errorf("adjust %s: %w", name, err)
	}
	if len(values) != len(ratios) {
		return fmt.Errorf("adjust %s: %w", name, frame.ErrLengthMismatch)
	}
	for i, v := range values {
		d := fn(decimal.NewFromFloat(v), decimal.NewFromFloat(ratios[i]))
		if b.precision >= 0 {
			d = d.Round(b.precision)
		}
		values[i] = d.InexactFloat64()
	}
	frame.Set(f, name, values)
	return nil
}

// Codes returns the distinct codes of bars in sorted order.
func Codes(bars []domain.MinuteBar) []string {
	seen := make(map[string]struct{})
	var codes []string
	for _, b := range bars {
		if _, ok := seen[b.Code]; ok {
			continue
		}
		seen[b.Code] = struct{}{}
		codes = append(codes, b.Code)
	}
	sort.Strings(codes)
	return codes
}
