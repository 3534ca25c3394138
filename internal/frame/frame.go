// Package frame is a small column-oriented table used to hold adjusted bars.
//
// A Frame stores named columns of float64 or string values. Columns keep
// insertion order and may differ in length; Len reports the longest.
package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrColumnNotFound is returned when a named column does not exist.
	ErrColumnNotFound = errors.New("column not found")

	// ErrColumnType is returned when a column holds a different element type than requested.
	ErrColumnType = errors.New("column type mismatch")

	// ErrLengthMismatch is returned when columns that must align have different lengths.
	ErrLengthMismatch = errors.New("column length mismatch")
)

// Scalar is the set of element types a column can hold.
type Scalar interface {
	float64 | string
}

// Kind identifies a column's element type.
type Kind int

const (
	KindFloat Kind = iota + 1
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float64"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Frame is a set of named, typed columns.
type Frame struct {
	names []string
	cols  map[string]any
}

// New creates an empty frame.
func New() *Frame {
	return &Frame{cols: make(map[string]any)}
}

// Set stores values under name, replacing any existing column of that name.
// The slice is copied.
func Set[T Scalar](f *Frame, name string, values []T) {
	if _, ok := f.cols[name]; !ok {
		f.names = append(f.names, name)
	}
	f.cols[name] = append(make([]T, 0, len(values)), values...)
}

// Column returns a copy of the named column as []T.
func Column[T Scalar](f *Frame, name string) ([]T, error) {
	c, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	v, ok := c.([]T)
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: %s holds %s, not %T", ErrColumnType, name, kindOf(c), zero)
	}
	return append(make([]T, 0, len(v)), v...), nil
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() *Frame {
	out := New()
	for _, name := range f.names {
		switch c := f.cols[name].(type) {
		case []float64:
			Set(out, name, c)
		case []string:
			Set(out, name, c)
		}
	}
	return out
}

// Names returns column names in insertion order.
func (f *Frame) Names() []string {
	return append([]string(nil), f.names...)
}

// Has reports whether the frame has a column called name.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Kind returns the element kind of the named column, or 0 if absent.
func (f *Frame) Kind(name string) Kind {
	c, ok := f.cols[name]
	if !ok {
		return 0
	}
	return kindOf(c)
}

// ColumnLen returns the number of values in the named column, or 0 if absent.
func (f *Frame) ColumnLen(name string) int {
	switch c := f.cols[name].(type) {
	case []float64:
		return len(c)
	case []string:
		return len(c)
	default:
		return 0
	}
}

// Len returns the length of the longest column.
func (f *Frame) Len() int {
	n := 0
	for _, name := range f.names {
		if l := f.ColumnLen(name); l > n {
			n = l
		}
	}
	return n
}

// Value returns the i-th value of the named column.
// ok is false when the column is missing or shorter than i+1.
func (f *Frame) Value(name string, i int) (v any, ok bool) {
	switch c := f.cols[name].(type) {
	case []float64:
		if i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	case []string:
		if i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	default:
		return nil, false
	}
}

// Rename renames a column in place, keeping its position.
func (f *Frame) Rename(from, to string) error {
	c, ok := f.cols[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, from)
	}
	if from == to {
		return nil
	}
	if _, exists := f.cols[to]; exists {
		return fmt.Errorf("rename %s: column %s already exists", from, to)
	}
	delete(f.cols, from)
	f.cols[to] = c
	for i, n := range f.names {
		if n == from {
			f.names[i] = to
			break
		}
	}
	return nil
}

func kindOf(c any) Kind {
	switch c.(type) {
	case []float64:
		return KindFloat
	case []string:
		return KindString
	default:
		return 0
	}
}
