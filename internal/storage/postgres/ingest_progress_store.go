package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jsyzc2019/abquant-data/internal/observability"
	"github.com/jsyzc2019/abquant-data/internal/storage"
)

// IngestProgressStore is a PostgreSQL implementation of storage.IngestProgressStore
// backed by the ingested_files table.
type IngestProgressStore struct {
	pool *Pool
}

// NewIngestProgressStore creates a new PostgreSQL ingest progress store.
func NewIngestProgressStore(pool *Pool) *IngestProgressStore {
	return &IngestProgressStore{pool: pool}
}

var _ storage.IngestProgressStore = (*IngestProgressStore)(nil)

// IsFileSeen checks if a file with this digest was imported.
func (s *IngestProgressStore) IsFileSeen(ctx context.Context, digest string) (seen bool, err error) {
	if digest == "" {
		return false, storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "ingested_files.is_seen", time.Since(start).Seconds(), err)
	}()

	row := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM ingested_files WHERE digest = $1)
	`, digest)

	if err := row.Scan(&seen); err != nil {
		return false, fmt.Errorf("check ingested file: %w", err)
	}
	return seen, nil
}

// MarkFileSeen records an imported file. Existing digests are left untouched.
func (s *IngestProgressStore) MarkFileSeen(ctx context.Context, f storage.IngestedFile) (err error) {
	if f.Digest == "" {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "ingested_files.mark_seen", time.Since(start).Seconds(), err)
	}()

	_, err = s.pool.Exec(ctx, `
		INSERT INTO ingested_files (digest, name, kind, rows, ingested_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (digest) DO NOTHING
	`, f.Digest, f.Name, f.Kind, f.Rows, f.IngestedAt)
	if err != nil {
		return fmt.Errorf("mark ingested file: %w", err)
	}
	return nil
}

// LoadSeenFiles returns all imported files ordered by ingested_at.
func (s *IngestProgressStore) LoadSeenFiles(ctx context.Context) ([]storage.IngestedFile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT digest, name, kind, rows, ingested_at
		FROM ingested_files
		ORDER BY ingested_at ASC, digest ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query ingested files: %w", err)
	}
	defer rows.Close()

	files := []storage.IngestedFile{}
	for rows.Next() {
		var f storage.IngestedFile
		if err := rows.Scan(&f.Digest, &f.Name, &f.Kind, &f.Rows, &f.IngestedAt); err != nil {
			return nil, fmt.Errorf("scan ingested file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
