package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsyzc2019/abquant-data/internal/domain"
)

const barsCSV = `code,datetime,open,close,high,low,vol,amount
000001,2024-01-02 09:31:00,10.0,10.2,10.3,9.9,1000,10200
600000,2024-01-02 09:31:00,8.0,8.1,8.2,7.9,500,4050
`

const factorsCSV = `code,date,forward,backward
000001,2024-06-14,1.0,1.35
000001,2023-06-14,0.8,1.2
`

func TestDetectKind(t *testing.T) {
	kind, err := DetectKind(strings.Split("code,datetime,open,close,high,low,vol,amount", ","))
	require.NoError(t, err)
	assert.Equal(t, KindBars, kind)

	kind, err = DetectKind([]string{"\ufeffCode", "Date", "Forward", "Backward"})
	require.NoError(t, err)
	assert.Equal(t, KindFactors, kind)

	_, err = DetectKind([]string{"a", "b"})
	assert.ErrorIs(t, err, ErrMalformedCSV)
}

func TestParseBars(t *testing.T) {
	bars, err := ParseBars(strings.NewReader(barsCSV), domain.MinFreq1)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	want, err := domain.NewMinuteBar("000001", "2024-01-02 09:31:00", domain.MinFreq1, 10.0, 10.2, 10.3, 9.9, 1000, 10200)
	require.NoError(t, err)
	assert.Equal(t, want, bars[0])
	assert.Equal(t, "600000", bars[1].Code)
}

func TestParseBars_ReorderedColumnsAndType(t *testing.T) {
	in := `datetime,code,type,amount,vol,low,high,close,open
2024-01-02 09:35:00,000001,5min,10200,1000,9.9,10.3,10.2,10.0
`
	bars, err := ParseBars(strings.NewReader(in), domain.MinFreq1)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, "5min", bars[0].Type)
	assert.Equal(t, 10.0, bars[0].Open)
	assert.Equal(t, 9.9, bars[0].Low)
	assert.Equal(t, "2024-01-02", bars[0].Date)
}

func TestParseBars_Malformed(t *testing.T) {
	cases := map[string]string{
		"missing column": "code,datetime,open\n000001,2024-01-02 09:31:00,1\n",
		"bad number":     "code,datetime,open,close,high,low,vol,amount\n000001,2024-01-02 09:31:00,x,1,1,1,1,1\n",
		"bad datetime":   "code,datetime,open,close,high,low,vol,amount\n000001,2024-01-02,1,1,1,1,1,1\n",
		"empty code":     "code,datetime,open,close,high,low,vol,amount\n,2024-01-02 09:31:00,1,1,1,1,1,1\n",
		"short row":      "code,datetime,open,close,high,low,vol,amount\n000001,2024-01-02 09:31:00,1\n",
		"empty":          "",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBars(strings.NewReader(in), domain.MinFreq1)
			assert.ErrorIs(t, err, ErrMalformedCSV)
		})
	}
}

func TestParseFactors(t *testing.T) {
	factors, err := ParseFactors(strings.NewReader(factorsCSV))
	require.NoError(t, err)
	assert.Equal(t, []domain.AdjustmentFactor{
		{Code: "000001", Date: "2024-06-14", Forward: 1.0, Backward: 1.35},
		{Code: "000001", Date: "2023-06-14", Forward: 0.8, Backward: 1.2},
	}, factors)

	_, err = ParseFactors(strings.NewReader("code,date,forward,backward\n000001,14/06/2024,1,1\n"))
	assert.ErrorIs(t, err, ErrMalformedCSV)
}
