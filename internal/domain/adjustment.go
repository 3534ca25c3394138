package domain

import (
	"fmt"
	"strings"
)

// AdjustmentMode selects the price rebasing applied to a session.
type AdjustmentMode int

const (
	AdjustNone     AdjustmentMode = iota // raw prices
	AdjustForward                        // "pre": rebased to the latest price level
	AdjustBackward                       // "post": rebased to the first listed price level
)

// String returns "none", "pre" or "post".
func (m AdjustmentMode) String() string {
	switch m {
	case AdjustForward:
		return "pre"
	case AdjustBackward:
		return "post"
	default:
		return "none"
	}
}

// Adjusted reports whether prices are rebased.
func (m AdjustmentMode) Adjusted() bool {
	return m == AdjustForward || m == AdjustBackward
}

// ParseAdjustmentMode accepts none/pre/post and the qfq/hfq aliases.
func ParseAdjustmentMode(s string) (AdjustmentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "bfq":
		return AdjustNone, nil
	case "pre", "qfq", "forward":
		return AdjustForward, nil
	case "post", "hfq", "backward":
		return AdjustBackward, nil
	default:
		return AdjustNone, fmt.Errorf("unknown adjustment mode: %q", s)
	}
}

// AdjustmentFactor holds the cumulative ratios in effect for Code from Date on.
// Corresponds to adjustment_factors table in PostgreSQL.
type AdjustmentFactor struct {
	Code     string  // symbol identifier
	Date     string  // "2006-01-02" ex-date the ratios take effect
	Forward  float64 // qfq multiplier
	Backward float64 // hfq multiplier
}

// Ratio returns the multiplier for mode; AdjustNone yields 1.
func (f AdjustmentFactor) Ratio(mode AdjustmentMode) float64 {
	switch mode {
	case AdjustForward:
		return f.Forward
	case AdjustBackward:
		return f.Backward
	default:
		return 1
	}
}
