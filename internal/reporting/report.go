package reporting

import "time"

// Report summarizes one extraction session.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	SessionID   string
	Request     RequestSummary

	DataSummary DataSummary
	DataQuality DataQualitySection

	// Per-code rows, sorted by code
	CodeSummaries []CodeSummaryRow
}

// RequestSummary describes the selection the session was opened for.
type RequestSummary struct {
	Codes []string
	Start string
	End   string
	Freq  string
	Mode  string
}

// DataSummary contains data description.
type DataSummary struct {
	TotalBars     int
	CodeCount     int
	FirstDatetime string
	LastDatetime  string
}

// DataQualitySection lists columns that could not be materialized.
type DataQualitySection struct {
	ColumnErrors     []string
	AllColumnsLoaded bool
}

// CodeSummaryRow represents one row in the per-code table.
// Price fields are adjusted when the session is; they are zero when
// NumericAvailable is false.
type CodeSummaryRow struct {
	Code             string
	Bars             int
	FirstDatetime    string
	LastDatetime     string
	NumericAvailable bool
	FirstOpen        float64
	LastClose        float64
	High             float64
	Low              float64
	Volume           float64
	Amount           float64
	Return           float64 // LastClose / FirstOpen - 1
}
