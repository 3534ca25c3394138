package sqlite

import (
	"context"
	"fmt"

	"github.com/jsyzc2019/abquant-data/internal/storage"
)

// IngestProgressStore implements storage.IngestProgressStore using SQLite.
type IngestProgressStore struct {
	db *DB
}

// NewIngestProgressStore creates a new IngestProgressStore.
func NewIngestProgressStore(db *DB) *IngestProgressStore {
	return &IngestProgressStore{db: db}
}

var _ storage.IngestProgressStore = (*IngestProgressStore)(nil)

// IsFileSeen checks if a file with this digest was imported.
func (s *IngestProgressStore) IsFileSeen(ctx context.Context, digest string) (bool, error) {
	if digest == "" {
		return false, storage.ErrInvalidInput
	}

	var seen bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ingested_files WHERE digest = ?)`, digest,
	).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("check ingested file: %w", err)
	}
	return seen, nil
}

// MarkFileSeen records an imported file. Existing digests are left untouched.
func (s *IngestProgressStore) MarkFileSeen(ctx context.Context, f storage.IngestedFile) error {
	if f.Digest == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingested_files (digest, name, kind, rows, ingested_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (digest) DO NOTHING
	`, f.Digest, f.Name, f.Kind, f.Rows, f.IngestedAt)
	if err != nil {
		return fmt.Errorf("mark ingested file: %w", err)
	}
	return nil
}

// LoadSeenFiles returns all imported files ordered by ingested_at.
func (s *IngestProgressStore) LoadSeenFiles(ctx context.Context) ([]storage.IngestedFile, error) {
	rows, err := s.db.QueryContext(ctx, `
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
