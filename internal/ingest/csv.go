package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jsyzc2019/abquant-data/internal/domain"
)

// ErrMalformedCSV is returned for a header or row that cannot be parsed.
var ErrMalformedCSV = errors.New("malformed csv")

// Kind names the content of a source file.
type Kind string

const (
	KindBars    Kind = "bars"
	KindFactors Kind = "factors"
)

var (
	barColumns    = []string{"code", "datetime", "open", "close", "high", "low", "vol", "amount"}
	factorColumns = []string{"code", "date", "forward", "backward"}
)

// DetectKind inspects a header row. Factor files carry forward/backward columns.
func DetectKind(header []string) (Kind, error) {
	idx := headerIndex(header)
	if _, err := columnPositions(idx, factorColumns); err == nil {
		return KindFactors, nil
	}
	if _, err := columnPositions(idx, barColumns); err == nil {
		return KindBars, nil
	}
	return "", fmt.Errorf("%w: unrecognized header %v", ErrMalformedCSV, header)
}

// ParseBars reads minute bars. Columns are matched by header name in any order;
// an optional "type" column overrides freq per row.
func ParseBars(r io.Reader, freq domain.MinFreq) ([]domain.MinuteBar, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformedCSV, err)
	}
	idx := headerIndex(header)
	pos, err := columnPositions(idx, barColumns)
	if err != nil {
		return nil, err
	}
	typePos, hasType := idx["type"]

	bars := []domain.MinuteBar{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}

		nums := make([]float64, 6)
		for i, col := range barColumns[2:] {
			nums[i], err = parseFloat(rec[pos[col]])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s: %v", ErrMalformedCSV, line, col, err)
			}
		}

		rowFreq := freq
		if hasType && strings.TrimSpace(rec[typePos]) != "" {
			rowFreq, err = domain.ParseMinFreq(rec[typePos])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
			}
		}

		code := strings.TrimSpace(rec[pos["code"]])
		if code == "" {
			return nil, fmt.Errorf("%w: line %d: empty code", ErrMalformedCSV, line)
		}
		bar, err := domain.NewMinuteBar(code, strings.TrimSpace(rec[pos["datetime"]]), rowFreq,
			nums[0], nums[1], nums[2], nums[3], nums[4], nums[5])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// ParseFactors reads adjustment factors with columns code, date, forward, backward.
func ParseFactors(r io.Reader) ([]domain.AdjustmentFactor, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformedCSV, err)
	}
	pos, err := columnPositions(headerIndex(header), factorColumns)
	if err != nil {
		return nil, err
	}

	factors := []domain.AdjustmentFactor{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}

		f := domain.AdjustmentFactor{
			Code: strings.TrimSpace(rec[pos["code"]]),
			Date: strings.TrimSpace(rec[pos["date"]]),
		}
		if f.Code == "" {
			return nil, fmt.Errorf("%w: line %d: empty code", ErrMalformedCSV, line)
		}
		if _, err := time.Parse(domain.DateLayout, f.Date); err != nil {
			return nil, fmt.Errorf("%w: line %d: date: %v", ErrMalformedCSV, line, err)
		}
		if f.Forward, err = parseFloat(rec[pos["forward"]]); err != nil {
			return nil, fmt.Errorf("%w: line %d: forward: %v", ErrMalformedCSV, line, err)
		}
		if f.Backward, err = parseFloat(rec[pos["backward"]]); err != nil {
			return nil, fmt.Errorf("%w: line %d: backward: %v", ErrMalformedCSV, line, err)
		}
		factors = append(factors, f)
	}
	return factors, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return cr
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if h == "volume" {
			h = "vol"
		}
		idx[h] = i
	}
	return idx
}

func columnPositions(idx map[string]int, want []string) (map[string]int, error) {
	pos := make(map[string]int, len(want))
	for _, col := range want {
		i, ok := idx[col]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedCSV, col)
		}
		pos[col] = i
	}
	return pos, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
