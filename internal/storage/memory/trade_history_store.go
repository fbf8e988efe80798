package memory

import (
	"context"
	"sort"
	"sync"

	"curverider/internal/storage"
)

// TradeHistoryStore is an in-memory implementation of
// storage.TradeHistoryStore.
type TradeHistoryStore struct {
	mu   sync.RWMutex
	data map[string]*storage.TradeHistoryRecord // keyed by position ID
}

// NewTradeHistoryStore creates a new in-memory trade history store.
func NewTradeHistoryStore() *TradeHistoryStore {
	return &TradeHistoryStore{
		data: make(map[string]*storage.TradeHistoryRecord),
	}
}

// Insert appends a closed trade. Returns ErrDuplicateKey if the position ID
// was already recorded.
func (s *TradeHistoryStore) Insert(_ context.Context, r *storage.TradeHistoryRecord) error {
	if r == nil || r.PositionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.PositionID]; exists {
		return storage.ErrDuplicateKey
	}

	record := *r
	s.data[r.PositionID] = &record
	return nil
}

// GetByUser retrieves all closed trades for a user, ordered by closed_at ASC.
func (s *TradeHistoryStore) GetByUser(_ context.Context, user string) ([]*storage.TradeHistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.TradeHistoryRecord
	for _, r := range s.data {
		if r.User == user {
			record := *r
			result = append(result, &record)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ClosedAtMs < result[j].ClosedAtMs
	})

	return result, nil
}

var _ storage.TradeHistoryStore = (*TradeHistoryStore)(nil)
