package reporting

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/jsyzc2019/abquant-data/internal/frame"
	"github.com/jsyzc2019/abquant-data/internal/series"
)

// Generator produces reports from extraction sessions.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate materializes the session and summarizes it.
// Column failures are reported in DataQuality rather than returned.
func (g *Generator) Generate(ctx context.Context, s *series.Session) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, matErr := series.Materialize(ctx, s)

	req := s.Request()
	report := &Report{
		GeneratedAt: g.now(),
		SessionID:   s.ID(),
		Request: RequestSummary{
			Codes: append([]string(nil), req.Codes...),
			Start: req.Start,
			End:   req.End,
			Freq:  req.Freq.String(),
			Mode:  req.Mode.String(),
		},
		DataQuality: DataQualitySection{
			ColumnErrors:     splitErrors(matErr),
			AllColumnsLoaded: matErr == nil,
		},
	}

	report.CodeSummaries = generateCodeSummaries(f)
	report.DataSummary = generateDataSummary(f, report.CodeSummaries)
	return report, nil
}

func generateDataSummary(f *frame.Frame, rows []CodeSummaryRow) DataSummary {
	summary := DataSummary{CodeCount: len(rows)}
	datetimes, _ := frame.Column[string](f, "datetime")
	summary.TotalBars = len(datetimes)
	for _, dt := range datetimes {
		if summary.FirstDatetime == "" || dt < summary.FirstDatetime {
			summary.FirstDatetime = dt
		}
		if dt > summary.LastDatetime {
			summary.LastDatetime = dt
		}
	}
	return summary
}

// generateCodeSummaries groups rows by code, in record order within a code.
func generateCodeSummaries(f *frame.Frame) []CodeSummaryRow {
	codes, _ := frame.Column[string](f, "code")
	datetimes, _ := frame.Column[string](f, "datetime")
	opens, _ := frame.Column[float64](f, "open")
	closes, _ := frame.Column[float64](f, "close")
	highs, _ := frame.Column[float64](f, "high")
	lows, _ := frame.Column[float64](f, "low")
	vols, _ := frame.Column[float64](f, "vol")
	amounts, _ := frame.Column[float64](f, "amount")

	n := len(codes)
	numeric := len(opens) == n && len(closes) == n && len(highs) == n &&
		len(lows) == n && len(vols) == n && len(amounts) == n

	byCode := make(map[string]*CodeSummaryRow)
	var order []string
	for i, code := range codes {
		row, ok := byCode[code]
		if !ok {
			row = &CodeSummaryRow{Code: code, NumericAvailable: numeric}
			if numeric {
				row.FirstOpen = opens[i]
				row.High = math.Inf(-1)
				row.Low = math.Inf(1)
			}
			byCode[code] = row
			order = append(order, code)
		}
		row.Bars++
		if i < len(datetimes) {
			if row.FirstDatetime == "" {
				row.FirstDatetime = datetimes[i]
			}
			row.LastDatetime = datetimes[i]
		}
		if numeric {
			row.LastClose = closes[i]
			row.High = math.Max(row.High, highs[i])
			row.Low = math.Min(row.Low, lows[i])
			row.Volume += vols[i]
			row.Amount += amounts[i]
		}
	}

	sort.Strings(order)
	rows := make([]CodeSummaryRow, 0, len(order))
	for _, code := range order {
		row := byCode[code]
		if row.NumericAvailable && row.FirstOpen != 0 {
			row.Return = row.LastClose/row.FirstOpen - 1
		}
		rows = append(rows, *row)
	}
	return rows
}

func splitErrors(err error) []string {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
