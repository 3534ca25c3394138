package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jsyzc2019/abquant-data/internal/storage"
)

// IngestProgressStore is an in-memory implementation of storage.IngestProgressStore.
type IngestProgressStore struct {
	mu    sync.RWMutex
	files map[string]storage.IngestedFile
}

// NewIngestProgressStore creates a new in-memory ingest progress store.
func NewIngestProgressStore() *IngestProgressStore {
	return &IngestProgressStore{
		files: make(map[string]storage.IngestedFile),
	}
}

// IsFileSeen checks if a file with this digest was imported.
func (s *IngestProgressStore) IsFileSeen(_ context.Context, digest string) (bool, error) {
	if digest == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.files[digest]
	return ok, nil
}

// MarkFileSeen records an imported file.
func (s *IngestProgressStore) MarkFileSeen(_ context.Context, f storage.IngestedFile) error {
	if f.Digest == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[f.Digest]; !ok {
		s.files[f.Digest] = f
	}
	return nil
}

// LoadSeenFiles returns all imported files ordered by IngestedAt.
func (s *IngestProgressStore) LoadSeenFiles(_ context.Context) ([]storage.IngestedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]storage.IngestedFile, 0, len(s.files))
	for _, f := range s.files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].IngestedAt != files[j].IngestedAt {
			return files[i].IngestedAt < files[j].IngestedAt
		}
		return files[i].Digest < files[j].Digest
	})
	return files, nil
}

var _ storage.IngestProgressStore = (*IngestProgressStore)(nil)
