package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/observability"
	"github.com/jsyzc2019/abquant-data/internal/storage"
)

// AdjustmentFactorStore implements storage.AdjustmentFactorStore using PostgreSQL.
type AdjustmentFactorStore struct {
	pool *Pool
}

// NewAdjustmentFactorStore creates a new AdjustmentFactorStore.
func NewAdjustmentFactorStore(pool *Pool) *AdjustmentFactorStore {
	return &AdjustmentFactorStore{pool: pool}
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
		observability.RecordDBQuery("postgres", "adjustment_factors.insert_bulk", time.Since(start).Seconds(), err)
	}()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO adjustment_factors (code, date, forward, backward)
		VALUES ($1, $2, $3, $4)
	`

	batch := &pgx.Batch{}
	for _, f := range factors {
		batch.Queue(query, f.Code, f.Date, f.Forward, f.Backward)
	}

	br := tx.SendBatch(ctx, batch)
	for range factors {
		if _, execErr := br.Exec(); execErr != nil {
			br.Close()
			if isDuplicateKeyError(execErr) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert adjustment factor in bulk: %w", execErr)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByCodes retrieves all factors for the given codes, ordered by (code, date).
func (s *AdjustmentFactorStore) GetByCodes(ctx context.Context, codes []string) (factors []domain.AdjustmentFactor, err error) {
	if len(codes) == 0 {
		return []domain.AdjustmentFactor{}, nil
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "adjustment_factors.get_by_codes", time.Since(start).Seconds(), err)
	}()

	uniq := append([]string(nil), codes...)
	sort.Strings(uniq)

	query := `
		SELECT code, date, forward, backward
		FROM adjustment_factors
		WHERE code = ANY($1)
		ORDER BY code ASC, date ASC
	`

	rows, err := s.pool.Query(ctx, query, uniq)
	if err != nil {
		if isUndefinedTableError(err) {
			return nil, fmt.Errorf("%w: adjustment_factors", storage.ErrSchemaMissing)
		}
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
