// Package fixtures provides a small deterministic market for demos and tests.
package fixtures

import (
	"context"
	"fmt"
	"time"

	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/storage"
)

// Codes are the demo symbols.
var Codes = []string{"000001", "600000"}

// Demo range. 2024-01-04 is an ex-date for 000001.
const (
	StartDate = "2024-01-02"
	EndDate   = "2024-01-05"
)

var basePrice = map[string]float64{
	"000001": 10.0,
	"600000": 8.0,
}

// Bars returns five 1min bars per code per trading day in [StartDate, EndDate],
// ordered by (datetime, code). Prices drift by one cent per bar.
func Bars() []domain.MinuteBar {
	start, _ := time.ParseInLocation(domain.DateLayout, StartDate, domain.MarketZone)
	end, _ := time.ParseInLocation(domain.DateLayout, EndDate, domain.MarketZone)

	var bars []domain.MinuteBar
	step := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for minute := 31; minute <= 35; minute++ {
			dt := time.Date(day.Year(), day.Month(), day.Day(), 9, minute, 0, 0, domain.MarketZone)
			for _, code := range Codes {
				p := basePrice[code] + 0.01*float64(step)
				// 000001 halves after its 2:1 split
				if code == "000001" && dt.Format(domain.DateLayout) >= "2024-01-04" {
					p /= 2
				}
				vol := float64(1000 + 10*step)
				bar, err := domain.NewMinuteBar(code, dt.Format(domain.DatetimeLayout), domain.MinFreq1,
					p, p+0.01, p+0.02, p-0.01, vol, vol*p)
				if err != nil {
					panic(fmt.Sprintf("fixtures: %v", err))
				}
				bars = append(bars, bar)
			}
			step++
		}
	}
	return bars
}

// Factors returns cumulative ratios matching the split in Bars.
func Factors() []domain.AdjustmentFactor {
	return []domain.AdjustmentFactor{
		{Code: "000001", Date: "2023-01-03", Forward: 0.5, Backward: 1.0},
		{Code: "000001", Date: "2024-01-04", Forward: 1.0, Backward: 2.0},
		{Code: "600000", Date: "2023-01-03", Forward: 1.0, Backward: 1.0},
	}
}

// Seed inserts Bars and Factors. Either store may be nil.
func Seed(ctx context.Context, bars storage.MinuteBarStore, factors storage.AdjustmentFactorStore) error {
	if bars != nil {
		if err := bars.InsertBulk(ctx, Bars()); err != nil {
			return fmt.Errorf("seed bars: %w", err)
		}
	}
	if factors != nil {
		if err := factors.InsertBulk(ctx, Factors()); err != nil {
			return fmt.Errorf("seed factors: %w", err)
		}
	}
	return nil
}
