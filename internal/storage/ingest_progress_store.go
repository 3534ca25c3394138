package storage

import "context"

// IngestedFile records one imported source file.
type IngestedFile struct {
	Digest     string // content hash, see idhash.ComputeContentKey
	Name       string // base name at import time
	Kind       string // "bars" or "factors"
	Rows       int    // rows written
	IngestedAt int64  // unix seconds
}

// IngestProgressStore persists which source files have been imported.
// This lets scheduled ingest rescan a directory without duplicating rows.
type IngestProgressStore interface {
	// IsFileSeen checks if a file with this digest was imported.
	IsFileSeen(ctx context.Context, digest string) (bool, error)

	// MarkFileSeen records an imported file. Marking twice is a no-op.
	MarkFileSeen(ctx context.Context, f IngestedFile) error

	// LoadSeenFiles returns all imported files ordered by IngestedAt ASC.
	LoadSeenFiles(ctx context.Context) ([]IngestedFile, error)
}
