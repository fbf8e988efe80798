package memory

import (
	"context"
	"sort"
	"sync"

	"curverider/internal/domain"
	"curverider/internal/storage"
)

// DelegationStore is an in-memory implementation of storage.DelegationStore.
type DelegationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Delegation // keyed by user
}

// NewDelegationStore creates a new in-memory delegation store.
func NewDelegationStore() *DelegationStore {
	return &DelegationStore{
		data: make(map[string]*domain.Delegation),
	}
}

// Upsert writes the delegation snapshot, replacing any previous one.
func (s *DelegationStore) Upsert(_ context.Context, d *domain.Delegation) error {
	if d == nil || d.User == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation.
	snapshot := *d
	s.data[d.User] = &snapshot
	return nil
}

// GetByUser retrieves a delegation. Returns ErrNotFound if not exists.
func (s *DelegationStore) GetByUser(_ context.Context, user string) (*domain.Delegation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.data[user]
	if !exists {
		return nil, storage.ErrNotFound
	}

	snapshot := *d
	return &snapshot, nil
}

// List retrieves all delegations, ordered by created_at ASC.
func (s *DelegationStore) List(_ context.Context) ([]*domain.Delegation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Delegation, 0, len(s.data))
	for _, d := range s.data {
		snapshot := *d
		result = append(result, &snapshot)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

var _ storage.DelegationStore = (*DelegationStore)(nil)
