package reporting

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/jsyzc2019/abquant-data/internal/frame"
)

// BarRow is the parquet layout of one materialized bar.
type BarRow struct {
	Open      float64 `parquet:"open"`
	Close     float64 `parquet:"close"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Vol       float64 `parquet:"vol"`
	Amount    float64 `parquet:"amount"`
	Datetime  string  `parquet:"datetime"`
	Code      string  `parquet:"code,dict"`
	Date      string  `parquet:"date,dict"`
	DateStamp float64 `parquet:"date_stamp"`
	TimeStamp float64 `parquet:"time_stamp"`
	Type      string  `parquet:"type,dict"`
}

// FrameRows converts a materialized frame into rows. Missing cells stay zero.
func FrameRows(f *frame.Frame) []BarRow {
	rows := make([]BarRow, f.Len())
	for i := range rows {
		r := &rows[i]
		r.Open = floatCell(f, "open", i)
		r.Close = floatCell(f, "close", i)
		r.High = floatCell(f, "high", i)
		r.Low = floatCell(f, "low", i)
		r.Vol = floatCell(f, "vol", i)
		r.Amount = floatCell(f, "amount", i)
		r.Datetime = stringCell(f, "datetime", i)
		r.Code = stringCell(f, "code", i)
		r.Date = stringCell(f, "date", i)
		r.DateStamp = floatCell(f, "date_stamp", i)
		r.TimeStamp = floatCell(f, "time_stamp", i)
		r.Type = stringCell(f, "type", i)
	}
	return rows
}

// WriteFrameParquet writes a materialized frame as a parquet file.
func WriteFrameParquet(w io.Writer, f *frame.Frame) error {
	if err := parquet.Write(w, FrameRows(f)); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	return nil
}

func floatCell(f *frame.Frame, name string, i int) float64 {
	v, _ := f.Value(name, i)
	x, _ := v.(float64)
	return x
}

func stringCell(f *frame.Frame, name string, i int) string {
	v, _ := f.Value(name, i)
	x, _ := v.(string)
	return x
}
