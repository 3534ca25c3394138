package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/storage"
)

// AdjustmentFactorStore is an in-memory implementation of storage.AdjustmentFactorStore.
type AdjustmentFactorStore struct {
	mu   sync.RWMutex
	data map[string][]domain.AdjustmentFactor // keyed by code, sorted by date
}

// NewAdjustmentFactorStore creates a new in-memory adjustment factor store.
func NewAdjustmentFactorStore() *AdjustmentFactorStore {
	return &AdjustmentFactorStore{
		data: make(map[string][]domain.AdjustmentFactor),
	}
}

// InsertBulk adds multiple factors. Fails entire batch on duplicate (code, date).
func (s *AdjustmentFactorStore) InsertBulk(_ context.Context, factors []domain.AdjustmentFactor) error {
	if len(factors) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct{ code, date string }
	seen := make(map[key]struct{}, len(factors))
	for _, f := range factors {
		if f.Code == "" || f.Date == "" {
			return storage.ErrInvalidInput
		}
		k := key{f.Code, f.Date}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		for _, existing := range s.data[f.Code] {
			if existing.Date == f.Date {
				return storage.ErrDuplicateKey
			}
		}
	}

	touched := make(map[string]struct{})
	for _, f := range factors {
		s.data[f.Code] = append(s.data[f.Code], f)
		touched[f.Code] = struct{}{}
	}
	for code := range touched {
		list := s.data[code]
		sort.Slice(list, func(i, j int) bool { return list[i].Date < list[j].Date })
	}

	return nil
}

// GetByCodes retrieves all factors for codes, ordered by (code, date) ASC.
func (s *AdjustmentFactorStore) GetByCodes(_ context.Context, codes []string) ([]domain.AdjustmentFactor, error) {
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.AdjustmentFactor
	var prev string
	for i, code := range sorted {
		if i > 0 && code == prev {
			continue
		}
		prev = code
		result = append(result, s.data[code]...)
	}
	return result, nil
}

var _ storage.AdjustmentFactorStore = (*AdjustmentFactorStore)(nil)
