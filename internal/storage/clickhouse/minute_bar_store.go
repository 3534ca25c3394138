package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/observability"
	"github.com/jsyzc2019/abquant-data/internal/storage"
)

// MinuteBarStore implements storage.MinuteBarStore using ClickHouse.
type MinuteBarStore struct {
	conn *Conn
}

// NewMinuteBarStore creates a new MinuteBarStore.
func NewMinuteBarStore(conn *Conn) *MinuteBarStore {
	return &MinuteBarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MinuteBarStore = (*MinuteBarStore)(nil)

// InsertBulk adds multiple bars. Fails entire batch on duplicate (code, datetime, type).
func (s *MinuteBarStore) InsertBulk(ctx context.Context, bars []domain.MinuteBar) (err error) {
	if len(bars) == 0 {
		return nil
	}
	defer func(start time.Time) {
		observability.RecordDBQuery("clickhouse", "minute_bars_insert", time.Since(start).Seconds(), err)
	}(time.Now())

	// Check for intra-batch duplicates
	type key struct {
		code, datetime, barType string
	}
	seen := make(map[key]struct{}, len(bars))
	for _, b := range bars {
		if b.Code == "" || b.Datetime == "" || b.Type == "" {
			return storage.ErrInvalidInput
		}
		k := key{b.Code, b.Datetime, b.Type}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// MergeTree does not enforce uniqueness, so check existing rows explicitly
	for _, b := range bars {
		exists, err := s.exists(ctx, b.Code, b.Datetime, b.Type)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO minute_bars (
			code, datetime, date, type, open, close, high, low, vol, amount, date_stamp, time_stamp
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			b.Code, b.Datetime, b.Date, b.Type,
			b.Open, b.Close, b.High, b.Low, b.Volume, b.Amount,
			b.DateStamp, b.TimeStamp,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByCodes retrieves bars for codes within [start, end], ordered by (datetime, code) ASC.
func (s *MinuteBarStore) GetByCodes(ctx context.Context, codes []string, start, end string, freq domain.MinFreq) (bars []domain.MinuteBar, err error) {
	if len(codes) == 0 {
		return nil, nil
	}
	defer func(t time.Time) {
		observability.RecordDBQuery("clickhouse", "minute_bars_select", time.Since(t).Seconds(), err)
	}(time.Now())

	query := `
		SELECT code, datetime, date, type, open, close, high, low, vol, amount, date_stamp, time_stamp
		FROM minute_bars
		WHERE code IN (?) AND type = ? AND date >= ? AND date <= ?
		ORDER BY datetime ASC, code ASC
	`

	rows, err := s.conn.Query(ctx, query, codes, freq.String(), start, end)
	if err != nil {
		if isUnknownTableError(err) {
			return nil, fmt.Errorf("%w: minute_bars", storage.ErrSchemaMissing)
		}
		return nil, fmt.Errorf("query by codes: %w", err)
	}
	defer rows.Close()

	return scanMinuteBars(rows)
}

// exists checks if a bar with the given key exists.
func (s *MinuteBarStore) exists(ctx context.Context, code, datetime, barType string) (bool, error) {
	query := `
		SELECT count(*) FROM minute_bars
		WHERE code = ? AND datetime = ? AND type = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, code, datetime, barType).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanMinuteBars scans multiple rows.
func scanMinuteBars(rows chRows) ([]domain.MinuteBar, error) {
	var bars []domain.MinuteBar

	for rows.Next() {
		var b domain.MinuteBar
		err := rows.Scan(
			&b.Code, &b.Datetime, &b.Date, &b.Type,
			&b.Open, &b.Close, &b.High, &b.Low, &b.Volume, &b.Amount,
			&b.DateStamp, &b.TimeStamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan minute bar row: %w", err)
		}
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate minute bar rows: %w", err)
	}

	return bars, nil
}
