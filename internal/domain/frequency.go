package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MinFreq is a minute bar interval.
type MinFreq int

const (
	MinFreq1  MinFreq = 1
	MinFreq5  MinFreq = 5
	MinFreq15 MinFreq = 15
	MinFreq30 MinFreq = 30
	MinFreq60 MinFreq = 60
)

// String returns the bar type tag, e.g. "5min".
func (f MinFreq) String() string {
	return fmt.Sprintf("%dmin", int(f))
}

// IsValid checks if the frequency is a supported interval.
func (f MinFreq) IsValid() bool {
	switch f {
	case MinFreq1, MinFreq5, MinFreq15, MinFreq30, MinFreq60:
		return true
	}
	return false
}

// ParseMinFreq accepts "1", "1m" and "1min" forms.
func ParseMinFreq(s string) (MinFreq, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "min")
	s = strings.TrimSuffix(s, "m")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse frequency %q: %w", s, err)
	}
	f := MinFreq(n)
	if !f.IsValid() {
		return 0, fmt.Errorf("unsupported frequency: %d minutes", n)
	}
	return f, nil
}
