package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jsyzc2019/abquant-data/internal/frame"
)

// RenderCSV renders per-code summaries as CSV string.
func RenderCSV(rows []CodeSummaryRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("code,bars,first_datetime,last_datetime,")
	sb.WriteString("first_open,last_close,high,low,volume,amount,return\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%d,%s,%s,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			r.Code,
			r.Bars,
			r.FirstDatetime,
			r.LastDatetime,
			r.FirstOpen,
			r.LastClose,
			r.High,
			r.Low,
			r.Volume,
			r.Amount,
			r.Return,
		))
	}

	return sb.String()
}

// RenderFrameCSV writes f as CSV: a header of column names, then one line
// per row. Cells past the end of a shorter column are left empty.
func RenderFrameCSV(w io.Writer, f *frame.Frame) error {
	cw := csv.NewWriter(w)
	names := f.Names()
	if err := cw.Write(names); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(names))
	for i := 0; i < f.Len(); i++ {
		for j, name := range names {
			record[j] = formatCell(f, name, i)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(f *frame.Frame, name string, i int) string {
	v, ok := f.Value(name, i)
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
