package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/observability"
	"github.com/jsyzc2019/abquant-data/internal/storage"
)

// MinuteBarStore implements storage.MinuteBarStore using SQLite.
type MinuteBarStore struct {
	db *DB
}

// NewMinuteBarStore creates a new MinuteBarStore.
func NewMinuteBarStore(db *DB) *MinuteBarStore {
	return &MinuteBarStore{db: db}
}

// Compile-time interface check.
var _ storage.MinuteBarStore = (*MinuteBarStore)(nil)

// InsertBulk adds multiple bars atomically. Fails entire batch on any duplicate.
func (s *MinuteBarStore) InsertBulk(ctx context.Context, bars []domain.MinuteBar) (err error) {
	if len(bars) == 0 {
		return nil
	}
	for _, b := range bars {
		if b.Code == "" || b.Datetime == "" || b.Type == "" {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("sqlite", "minute_bars.insert_bulk", time.Since(start).Seconds(), err)
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO minute_bars (
			code, datetime, date, type,
			open, close, high, low, vol, amount,
			date_stamp, time_stamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.ExecContext(ctx,
			b.Code, b.Datetime, b.Date, b.Type,
			b.Open, b.Close, b.High, b.Low, b.Volume, b.Amount,
			b.DateStamp, b.TimeStamp,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert minute bar: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByCodes retrieves bars for codes within [start, end] dates at freq,
// ordered by (datetime, code) ASC.
func (s *MinuteBarStore) GetByCodes(ctx context.Context, codes []string, start, end string, freq domain.MinFreq) (bars []domain.MinuteBar, err error) {
	if len(codes) == 0 {
		return []domain.MinuteBar{}, nil
	}

	began := time.Now()
	defer func() {
		observability.RecordDBQuery("sqlite", "minute_bars.get_by_codes", time.Since(began).Seconds(), err)
	}()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(codes)), ",")
	query := `
		SELECT code, datetime, date, type,
			open, close, high, low, vol, amount,
			date_stamp, time_stamp
		FROM minute_bars
		WHERE code IN (` + placeholders + `) AND type = ? AND date >= ? AND date <= ?
		ORDER BY datetime ASC, code ASC
	`

	args := make([]any, 0, len(codes)+3)
	for _, c := range codes {
		args = append(args, c)
	}
	args = append(args, freq.String(), start, end)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query minute bars: %w", err)
	}
	defer rows.Close()

	bars = []domain.MinuteBar{}
	for rows.Next() {
		var b domain.MinuteBar
		if err := rows.Scan(
			&b.Code, &b.Datetime, &b.Date, &b.Type,
			&b.Open, &b.Close, &b.High, &b.Low, &b.Volume, &b.Amount,
			&b.DateStamp, &b.TimeStamp,
		); err != nil {
			return nil, fmt.Errorf("scan minute bar: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate minute bars: %w", err)
	}
	return bars, nil
}
