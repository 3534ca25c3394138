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

// AdjustmentFactorStore implements storage.AdjustmentFactorStore using SQLite.
type AdjustmentFactorStore struct {
	db *DB
}

// NewAdjustmentFactorStore creates a new AdjustmentFactorStore.
func NewAdjustmentFactorStore(db *DB) *AdjustmentFactorStore {
	return &AdjustmentFactorStore{db: db}
}

// Compile-time interface check.
var _ storage.AdjustmentFactorStore = (*AdjustmentFactorStore)(nil)

// InsertBulk adds multiple factors atomically. Fails entire batch on any duplicate (code, date).
func (s *AdjustmentFactorStore) InsertBulk(ctx context.Context, factors []domain.AdjustmentFactor) (err error) {
	if len(factors) == 0 {
		return nil
	}
	for _, f := range factors {
		if f.Code == "" || f.Date == "" {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("sqlite", "adjustment_factors.insert_bulk", time.Since(start).Seconds(), err)
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, f := range factors {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO adjustment_factors (code, date, forward, backward) VALUES (?, ?, ?, ?)`,
			f.Code, f.Date, f.Forward, f.Backward,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert adjustment factor: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByCodes retrieves all factors for codes, ordered by (code, date) ASC.
func (s *AdjustmentFactorStore) GetByCodes(ctx context.Context, codes []string) (factors []domain.AdjustmentFactor, err error) {
	if len(codes) == 0 {
		return []domain.AdjustmentFactor{}, nil
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("sqlite", "adjustment_factors.get_by_codes", time.Since(start).Seconds(), err)
	}()

	args := make([]any, len(codes))
	for i, c := range codes {
		args[i] = c
	}
	query := `
		SELECT code, date, forward, backward
		FROM adjustment_factors
		WHERE code IN (` + strings.TrimSuffix(strings.Repeat("?,", len(codes)), ",") + `)
		ORDER BY code ASC, date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query adjustment factors: %w", err)
	}
	defer rows.Close()

	factors = []domain.AdjustmentFactor{}
	for rows.Next() {
		var f domain.AdjustmentFactor
		if err := rows.Scan(&f.Code, &f.Date, &f.Forward, &f.Backward); err != nil {
			return nil, fmt.Errorf("scan adjustment factor: %w", err)
		}
		factors = append(factors, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adjustment factors: %w", err)
	}
	return factors, nil
}
