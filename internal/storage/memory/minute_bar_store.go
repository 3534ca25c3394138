package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/storage"
)

// MinuteBarStore is an in-memory implementation of storage.MinuteBarStore.
type MinuteBarStore struct {
	mu   sync.RWMutex
	bars []domain.MinuteBar
	keys map[string]struct{} // (code, datetime, type)
}

// NewMinuteBarStore creates a new in-memory minute bar store.
func NewMinuteBarStore() *MinuteBarStore {
	return &MinuteBarStore{
		keys: make(map[string]struct{}),
	}
}

// barKey generates a unique key for a bar.
func barKey(code, datetime, barType string) string {
	return fmt.Sprintf("%s|%s|%s", code, datetime, barType)
}

// InsertBulk adds multiple bars. Fails entire batch on duplicate.
func (s *MinuteBarStore) InsertBulk(_ context.Context, bars []domain.MinuteBar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(bars))
	for _, b := range bars {
		if b.Code == "" || b.Datetime == "" || b.Type == "" {
			return storage.ErrInvalidInput
		}
		key := barKey(b.Code, b.Datetime, b.Type)
		if _, exists := s.keys[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for key := range batchKeys {
		s.keys[key] = struct{}{}
	}
	s.bars = append(s.bars, bars...)

	return nil
}

// GetByCodes retrieves bars for codes within [start, end], ordered by (datetime, code) ASC.
func (s *MinuteBarStore) GetByCodes(_ context.Context, codes []string, start, end string, freq domain.MinFreq) ([]domain.MinuteBar, error) {
	want := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		want[c] = struct{}{}
	}
	barType := freq.String()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.MinuteBar
	for _, b := range s.bars {
		if _, ok := want[b.Code]; !ok {
			continue
		}
		if b.Type != barType || b.Date < start || b.Date > end {
			continue
		}
		result = append(result, b)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Datetime != result[j].Datetime {
			return result[i].Datetime < result[j].Datetime
		}
		return result[i].Code < result[j].Code
	})

	return result, nil
}

// Count returns the number of stored bars.
func (s *MinuteBarStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bars)
}

var _ storage.MinuteBarStore = (*MinuteBarStore)(nil)
