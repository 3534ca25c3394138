package adjust

import (
	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/frame"
)

// BarsFrame lays bars out as a frame with one column per bar field,
// named after the record schema.
func BarsFrame(bars []domain.MinuteBar) *frame.Frame {
	n := len(bars)
	var (
		open, close, high, low = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
		vol, amount            = make([]float64, n), make([]float64, n)
		dateStamp, timeStamp   = make([]float64, n), make([]float64, n)
		datetime, code, date   = make([]string, n), make([]string, n), make([]string, n)
		typ                    = make([]string, n)
	)
	for i, b := range bars {
		open[i], close[i], high[i], low[i] = b.Open, b.Close, b.High, b.Low
		vol[i], amount[i] = b.Volume, b.Amount
		datetime[i], code[i], date[i] = b.Datetime, b.Code, b.Date
		dateStamp[i], timeStamp[i] = b.DateStamp, b.TimeStamp
		typ[i] = b.Type
	}

	f := frame.New()
	frame.Set(f, "open", open)
	frame.Set(f, "close", close)
	frame.Set(f, "high", high)
	frame.Set(f, "low", low)
	frame.Set(f, "vol", vol)
	frame.Set(f, "amount", amount)
	frame.Set(f, "datetime", datetime)
	frame.Set(f, "code", code)
	frame.Set(f, "date", date)
	frame.Set(f, "date_stamp", dateStamp)
	frame.Set(f, "time_stamp", timeStamp)
	frame.Set(f, "type", typ)
	return f
}

// FactorsFrame lays factors out as code, date, datetime and FactorColumn
// holding the ratio selected by mode.
func FactorsFrame(factors []domain.AdjustmentFactor, mode domain.AdjustmentMode) *frame.Frame {
	n := len(factors)
	code, date, datetime := make([]string, n), make([]string, n), make([]string, n)
	ratio := make([]float64, n)
	for i, f := range factors {
		code[i], date[i] = f.Code, f.Date
		datetime[i] = f.Date + " 00:00:00"
		ratio[i] = f.Ratio(mode)
	}

	f := frame.New()
	frame.Set(f, "code", code)
	frame.Set(f, "date", date)
	frame.Set(f, "datetime", datetime)
	frame.Set(f, FactorColumn, ratio)
	return f
}
