package memory

import (
	"context"
	"sort"
	"sync"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.UserPosition // keyed by user|token
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*domain.UserPosition),
	}
}

// Get retrieves a position for a (user, token) pair.
func (s *PositionStore) Get(_ context.Context, user, tokenAddress string) (*domain.UserPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[domain.PositionKey(user, tokenAddress)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

// Save upserts a position keyed by (user, token).
func (s *PositionStore) Save(_ context.Context, p *domain.UserPosition) error {
	if p == nil || p.User == "" || p.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *p
	s.data[domain.PositionKey(p.User, p.TokenAddress)] = &copy
	return nil
}

// ListByUser retrieves all positions for a user, open first, then by last trade descending.
func (s *PositionStore) ListByUser(_ context.Context, user string) ([]*domain.UserPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.UserPosition
	for _, p := range s.data {
		if p.User == user {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].IsOpen != result[j].IsOpen {
			return result[i].IsOpen
		}
		if result[i].LastTradeAt != result[j].LastTradeAt {
			return result[i].LastTradeAt > result[j].LastTradeAt
		}
		return result[i].TokenAddress < result[j].TokenAddress
	})

	return result, nil
}

// ListByToken retrieves all positions in a token ordered by balance descending.
func (s *PositionStore) ListByToken(_ context.Context, tokenAddress string) ([]*domain.UserPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.UserPosition
	for _, p := range s.data {
		if p.TokenAddress == tokenAddress {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Balance != result[j].Balance {
			return result[i].Balance > result[j].Balance
		}
		return result[i].User < result[j].User
	})

	return result, nil
}

var _ storage.PositionStore = (*PositionStore)(nil)
