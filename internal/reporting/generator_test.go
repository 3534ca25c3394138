package reporting

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/frame"
	"github.com/jsyzc2019/abquant-data/internal/series"
)

func setupSession(t *testing.T, mode domain.AdjustmentMode) *series.Session {
	t.Helper()

	mk := func(code, datetime string, open, close, high, low, vol float64) domain.MinuteBar {
		b, err := domain.NewMinuteBar(code, datetime, domain.MinFreq1, open, close, high, low, vol, vol*close)
		if err != nil {
			t.Fatalf("NewMinuteBar: %v", err)
		}
		return b
	}

	return series.NewSession(series.SessionOptions{
		ID: "01HTESTSESSION0000000000000",
		Request: series.Request{
			Codes: []string{"000001", "600000"},
			Start: "2024-01-02",
			End:   "2024-01-02",
			Freq:  domain.MinFreq1,
			Mode:  mode,
		},
		Records: []domain.MinuteBar{
			mk("600000", "2024-01-02 09:31:00", 8.0, 8.1, 8.2, 7.9, 100),
			mk("000001", "2024-01-02 09:31:00", 10.0, 10.2, 10.3, 9.9, 200),
			mk("000001", "2024-01-02 09:32:00", 10.2, 11.0, 11.5, 10.1, 300),
		},
	})
}

func fixedClock() time.Time {
	return time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
}

func TestGenerate_Summaries(t *testing.T) {
	s := setupSession(t, domain.AdjustNone)

	r, err := NewGenerator().WithClock(fixedClock).Generate(context.Background(), s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !r.GeneratedAt.Equal(fixedClock()) {
		t.Errorf("GeneratedAt = %v", r.GeneratedAt)
	}
	if r.DataSummary.TotalBars != 3 || r.DataSummary.CodeCount != 2 {
		t.Errorf("DataSummary = %+v", r.DataSummary)
	}
	if r.DataSummary.FirstDatetime != "2024-01-02 09:31:00" || r.DataSummary.LastDatetime != "2024-01-02 09:32:00" {
		t.Errorf("DataSummary range = %s..%s", r.DataSummary.FirstDatetime, r.DataSummary.LastDatetime)
	}
	if !r.DataQuality.AllColumnsLoaded {
		t.Errorf("expected all columns loaded, got %v", r.DataQuality.ColumnErrors)
	}

	if len(r.CodeSummaries) != 2 {
		t.Fatalf("CodeSummaries len = %d, want 2", len(r.CodeSummaries))
	}
	c := r.CodeSummaries[0]
	if c.Code != "000001" || c.Bars != 2 {
		t.Errorf("first row = %+v", c)
	}
	if c.FirstOpen != 10.0 || c.LastClose != 11.0 || c.High != 11.5 || c.Low != 9.9 || c.Volume != 500 {
		t.Errorf("000001 prices = %+v", c)
	}
	if math.Abs(c.Return-0.1) > 1e-9 {
		t.Errorf("000001 return = %f, want 0.1", c.Return)
	}
	if r.CodeSummaries[1].Code != "600000" {
		t.Errorf("second row code = %s", r.CodeSummaries[1].Code)
	}
}

func TestGenerate_AdjustedFailureIsReported(t *testing.T) {
	// no builder: adjusted float columns cannot be produced
	s := setupSession(t, domain.AdjustForward)

	r, err := NewGenerator().WithClock(fixedClock).Generate(context.Background(), s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if r.DataQuality.AllColumnsLoaded {
		t.Error("expected column errors")
	}
	if len(r.DataQuality.ColumnErrors) != 8 {
		t.Errorf("ColumnErrors = %d, want 8 float columns", len(r.DataQuality.ColumnErrors))
	}
	if len(r.CodeSummaries) != 2 || r.CodeSummaries[0].NumericAvailable {
		t.Errorf("CodeSummaries = %+v", r.CodeSummaries)
	}

	md := RenderMarkdown(r)
	if !strings.Contains(md, "### Column Errors") {
		t.Error("markdown should list column errors")
	}
	if !strings.Contains(md, "| 000001 | 2 | 2024-01-02 09:31:00 | 2024-01-02 09:32:00 | - |") {
		t.Errorf("markdown should mark numeric fields unavailable:\n%s", md)
	}
}

func TestRenderMarkdown_Format(t *testing.T) {
	r, err := NewGenerator().WithClock(fixedClock).Generate(context.Background(), setupSession(t, domain.AdjustNone))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	md := RenderMarkdown(r)
	for _, want := range []string{
		"# Session Report",
		"Generated: 2024-01-03T00:00:00Z",
		"Session: 01HTESTSESSION0000000000000",
		"Codes: 000001, 600000 | Range: 2024-01-02..2024-01-02 | Freq: 1min | Mode: none",
		"| Total Bars | 3 |",
		"All columns loaded.",
		"| 000001 | 2 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	r, err := NewGenerator().Generate(context.Background(), setupSession(t, domain.AdjustNone))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(RenderCSV(r.CodeSummaries)), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "code,bars,first_datetime") {
		t.Error("CSV header is incorrect")
	}
	if !strings.HasPrefix(lines[1], "000001,2,") || !strings.HasPrefix(lines[2], "600000,1,") {
		t.Errorf("unexpected rows: %v", lines[1:])
	}
}

func TestRenderFrameCSV(t *testing.T) {
	f := frame.New()
	frame.Set(f, "code", []string{"000001", "600000"})
	frame.Set(f, "close", []float64{10.5, 8})
	frame.Set(f, "vol", []float64{})

	var buf bytes.Buffer
	if err := RenderFrameCSV(&buf, f); err != nil {
		t.Fatalf("RenderFrameCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := [][]string{
		{"code", "close", "vol"},
		{"000001", "10.5", ""},
		{"600000", "8", ""},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		if strings.Join(records[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %v, want %v", i, records[i], want[i])
		}
	}
}

func TestWriteFrameParquet(t *testing.T) {
	s := setupSession(t, domain.AdjustNone)
	f, err := series.Materialize(context.Background(), s)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteFrameParquet(&buf, f); err != nil {
		t.Fatalf("WriteFrameParquet: %v", err)
	}

	data := buf.Bytes()
	rows, err := parquet.Read[BarRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	records := s.Records()
	for i, r := range rows {
		if r.Code != records[i].Code || r.Close != records[i].Close || r.TimeStamp != records[i].TimeStamp || r.Type != "1min" {
			t.Errorf("row %d = %+v, want record %+v", i, r, records[i])
		}
	}
}
