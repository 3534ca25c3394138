package frame

import (
	"fmt"
	"math"
	"sort"
)

// Prefixes applied to column names present on both sides of a join.
const (
	LeftPrefix  = "lhs."
	RightPrefix = "rhs."
)

// AsOf configures JoinAsOf.
type AsOf struct {
	// By is the exact-match key column (e.g. "code").
	By string
	// On is the ordered key column (e.g. "date"); values compare lexically.
	On string
}

// JoinAsOf left-joins rhs onto lhs. For each lhs row it takes the rhs row
// with the same By value and the greatest On value not after the lhs On value.
// Both key columns must be string columns on both sides.
//
// Every column of lhs and rhs appears in the result. Names present on both
// sides are prefixed with LeftPrefix and RightPrefix. Rows of lhs with no
// match get NaN for rhs float columns and "" for rhs string columns.
func JoinAsOf(lhs, rhs *Frame, on AsOf) (*Frame, error) {
	lBy, lOn, err := joinKeys(lhs, on, "lhs")
	if err != nil {
		return nil, err
	}
	rBy, rOn, err := joinKeys(rhs, on, "rhs")
	if err != nil {
		return nil, err
	}

	// Row index of rhs per By value, sorted by On.
	groups := make(map[string][]int)
	for i, k := range rBy {
		groups[k] = append(groups[k], i)
	}
	for _, rows := range groups {
		sort.SliceStable(rows, func(a, b int) bool { return rOn[rows[a]] < rOn[rows[b]] })
	}

	n := len(lBy)
	match := make([]int, n)
	for i := 0; i < n; i++ {
		match[i] = -1
		rows := groups[lBy[i]]
		// first row whose On is after the lhs value
		j := sort.Search(len(rows), func(j int) bool { return rOn[rows[j]] > lOn[i] })
		if j > 0 {
			match[i] = rows[j-1]
		}
	}

	out := New()
	for _, name := range lhs.names {
		outName := name
		if rhs.Has(name) {
			outName = LeftPrefix + name
		}
		if err := copyColumn(out, outName, lhs.cols[name], n); err != nil {
			return nil, err
		}
	}
	for _, name := range rhs.names {
		outName := name
		if lhs.Has(name) {
			outName = RightPrefix + name
		}
		switch c := rhs.cols[name].(type) {
		case []float64:
			Set(out, outName, gather(c, match, math.NaN()))
		case []string:
			Set(out, outName, gather(c, match, ""))
		}
	}
	return out, nil
}

func joinKeys(f *Frame, on AsOf, side string) (by, at []string, err error) {
	by, err = Column[string](f, on.By)
	if err != nil {
		return nil, nil, fmt.Errorf("%s join key: %w", side, err)
	}
	at, err = Column[string](f, on.On)
	if err != nil {
		return nil, nil, fmt.Errorf("%s join key: %w", side, err)
	}
	if len(by) != len(at) {
		return nil, nil, fmt.Errorf("%w: %s %s has %d rows, %s has %d",
			ErrLengthMismatch, side, on.By, len(by), on.On, len(at))
	}
	return by, at, nil
}

func copyColumn(out *Frame, name string, c any, n int) error {
	switch v := c.(type) {
	case []float64:
		if len(v) != n {
			return fmt.Errorf("%w: lhs %s has %d rows, want %d", ErrLengthMismatch, name, len(v), n)
		}
		Set(out, name, v)
	case []string:
		if len(v) != n {
			return fmt.Errorf("%w: lhs %s has %d rows, want %d", ErrLengthMismatch, name, len(v), n)
		}
		Set(out, name, v)
	}
	return nil
}

func gather[T Scalar](src []T, match []int, missing T) []T {
	out := make([]T, len(match))
	for i, j := range match {
		if j < 0 || j >= len(src) {
			out[i] = missing
			continue
		}
		out[i] = src[j]
	}
	return out
}
