package domain

import (
	"fmt"
	"time"
)

// Canonical text layouts used by minute bars.
const (
	DatetimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
)

// MarketZone is the exchange timezone (CST, no DST) used for stamp encoding.
var MarketZone = time.FixedZone("CST", 8*60*60)

// MinuteBar is one symbol's trade bar for one bar interval.
// Corresponds to minute_bars table in ClickHouse.
type MinuteBar struct {
	Open      float64 // opening price
	Close     float64 // closing price
	High      float64 // highest price
	Low       float64 // lowest price
	Volume    float64 // traded volume (shares)
	Amount    float64 // traded amount (currency)
	Datetime  string  // "2006-01-02 15:04:05" bar close time
	Date      string  // "2006-01-02" trading day
	Code      string  // symbol identifier, e.g. "000001"
	DateStamp float64 // unix seconds of Date at market midnight
	TimeStamp float64 // unix seconds of Datetime
	Type      string  // bar frequency tag, e.g. "1min"
}

// Stamps derives Date, DateStamp and TimeStamp from a datetime text.
// All three fields of a MinuteBar must agree with its Datetime.
func Stamps(datetime string) (date string, dateStamp, timeStamp float64, err error) {
	t, err := time.ParseInLocation(DatetimeLayout, datetime, MarketZone)
	if err != nil {
		return "", 0, 0, fmt.Errorf("parse datetime %q: %w", datetime, err)
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, MarketZone)
	return day.Format(DateLayout), float64(day.Unix()), float64(t.Unix()), nil
}

// NewMinuteBar builds a fully populated bar from its prices and datetime text.
func NewMinuteBar(code, datetime string, freq MinFreq, open, close, high, low, volume, amount float64) (MinuteBar, error) {
	date, dateStamp, timeStamp, err := Stamps(datetime)
	if err != nil {
		return MinuteBar{}, err
	}
	return MinuteBar{
		Open:      open,
		Close:     close,
		High:      high,
		Low:       low,
		Volume:    volume,
		Amount:    amount,
		Datetime:  datetime,
		Date:      date,
		Code:      code,
		DateStamp: dateStamp,
		TimeStamp: timeStamp,
		Type:      freq.String(),
	}, nil
}
