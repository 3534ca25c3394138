// Package series extracts typed column series from a session of minute bars.
//
// A column is looked up by name in a closed schema and read either straight
// from the session's records or, for float columns of a price-adjusted
// session, from the session's adjusted table.
package series

import (
	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/frame"
)

// Scalar is the set of element types a series can be requested as.
type Scalar interface {
	float64 | string
}

type columnDef struct {
	name string
	kind frame.Kind
}

// columns is the record schema in its canonical order.
var columns = []columnDef{
	{"open", frame.KindFloat},
	{"close", frame.KindFloat},
	{"high", frame.KindFloat},
	{"low", frame.KindFloat},
	{"vol", frame.KindFloat},
	{"amount", frame.KindFloat},
	{"datetime", frame.KindString},
	{"code", frame.KindString},
	{"date", frame.KindString},
	{"date_stamp", frame.KindFloat},
	{"time_stamp", frame.KindFloat},
	{"type", frame.KindString},
}

var floatAccessors = map[string]func(*domain.MinuteBar) float64{
	"open":       func(b *domain.MinuteBar) float64 { return b.Open },
	"close":      func(b *domain.MinuteBar) float64 { return b.Close },
	"high":       func(b *domain.MinuteBar) float64 { return b.High },
	"low":        func(b *domain.MinuteBar) float64 { return b.Low },
	"vol":        func(b *domain.MinuteBar) float64 { return b.Volume },
	"amount":     func(b *domain.MinuteBar) float64 { return b.Amount },
	"date_stamp": func(b *domain.MinuteBar) float64 { return b.DateStamp },
	"time_stamp": func(b *domain.MinuteBar) float64 { return b.TimeStamp },
}

var stringAccessors = map[string]func(*domain.MinuteBar) string{
	"datetime": func(b *domain.MinuteBar) string { return b.Datetime },
	"code":     func(b *domain.MinuteBar) string { return b.Code },
	"date":     func(b *domain.MinuteBar) string { return b.Date },
	"type":     func(b *domain.MinuteBar) string { return b.Type },
}

// Identity columns are renamed by the as-of join that builds the adjusted table.
var adjustedNames = map[string]string{
	"code":     frame.LeftPrefix + "code",
	"date":     frame.LeftPrefix + "date",
	"datetime": frame.LeftPrefix + "datetime",
}

// Schema returns the column names in canonical order.
func Schema() []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
	}
	return names
}

// ColumnKind returns the natural element kind of a schema column.
func ColumnKind(column string) (frame.Kind, bool) {
	for _, c := range columns {
		if c.name == column {
			return c.kind, true
		}
	}
	return 0, false
}

func inSchema(column string) bool {
	_, ok := ColumnKind(column)
	return ok
}

func accessorFor[T Scalar](column string) (func(*domain.MinuteBar) T, bool) {
	var zero T
	switch any(zero).(type) {
	case float64:
		fn, ok := floatAccessors[column]
		if !ok {
			return nil, false
		}
		return any(fn).(func(*domain.MinuteBar) T), true
	case string:
		fn, ok := stringAccessors[column]
		if !ok {
			return nil, false
		}
		return any(fn).(func(*domain.MinuteBar) T), true
	}
	return nil, false
}

func isFloat[T Scalar]() bool {
	var zero T
	_, ok := any(zero).(float64)
	return ok
}

func adjustedName(column string) string {
	if name, ok := adjustedNames[column]; ok {
		return name
	}
	return column
}
