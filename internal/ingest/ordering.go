package ingest

import (
	"errors"
	"sort"

	"github.com/jsyzc2019/abquant-data/internal/domain"
)

// ErrInvalidOrdering is returned when rows are not properly ordered.
var ErrInvalidOrdering = errors.New("rows are not in deterministic order")

// SortBars orders bars by (datetime ASC, code ASC, type ASC), the order stores return.
func SortBars(bars []domain.MinuteBar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return compareBars(bars[i], bars[j]) < 0
	})
}

// SortFactors orders factors by (code ASC, date ASC).
func SortFactors(factors []domain.AdjustmentFactor) {
	sort.SliceStable(factors, func(i, j int) bool {
		return compareFactors(factors[i], factors[j]) < 0
	})
}

// ValidateBarOrdering checks bars are strictly ordered. Returns ErrInvalidOrdering if not.
func ValidateBarOrdering(bars []domain.MinuteBar) error {
	for i := 1; i < len(bars); i++ {
		if compareBars(bars[i-1], bars[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// ValidateFactorOrdering checks factors are strictly ordered. Returns ErrInvalidOrdering if not.
func ValidateFactorOrdering(factors []domain.AdjustmentFactor) error {
	for i := 1; i < len(factors); i++ {
		if compareFactors(factors[i-1], factors[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

func compareBars(a, b domain.MinuteBar) int {
	if a.Datetime != b.Datetime {
		return compareStrings(a.Datetime, b.Datetime)
	}
	if a.Code != b.Code {
		return compareStrings(a.Code, b.Code)
	}
	return compareStrings(a.Type, b.Type)
}

func compareFactors(a, b domain.AdjustmentFactor) int {
	if a.Code != b.Code {
		return compareStrings(a.Code, b.Code)
	}
	return compareStrings(a.Date, b.Date)
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
