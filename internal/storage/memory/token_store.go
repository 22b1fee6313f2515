package memory

import (
	"context"
	"sort"
	"sync"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu      sync.RWMutex
	data    map[string]*domain.TokenAggregate // keyed by address
	byID    map[uint64]string                 // tokenId → address index
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		data: make(map[string]*domain.TokenAggregate),
		byID: make(map[uint64]string),
	}
}

// Create adds a new token aggregate. Returns ErrDuplicateKey if the address exists.
func (s *TokenStore) Create(_ context.Context, t *domain.TokenAggregate) error {
	if t == nil || t.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.Address]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *t
	s.data[t.Address] = &copy
	s.byID[t.TokenID] = t.Address
	return nil
}

// Get retrieves an aggregate by contract address.
func (s *TokenStore) Get(_ context.Context, address string) (*domain.TokenAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[address]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *t
	return &copy, nil
}

// GetByTokenID retrieves an aggregate via the tokenId index.
func (s *TokenStore) GetByTokenID(_ context.Context, tokenID uint64) (*domain.TokenAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	address, ok := s.byID[tokenID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	t, ok := s.data[address]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *t
	return &copy, nil
}

// Save upserts an aggregate keyed by address.
func (s *TokenStore) Save(_ context.Context, t *domain.TokenAggregate) error {
	if t == nil || t.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *t
	s.data[t.Address] = &copy
	s.byID[t.TokenID] = t.Address
	return nil
}

// ListByStatus retrieves tokens with the given status, ordered by progress descending.
func (s *TokenStore) ListByStatus(_ context.Context, status domain.MigrationStatus, limit int) ([]*domain.TokenAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenAggregate
	for _, t := range s.data {
		if t.Status == status {
			copy := *t
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].BondingProgress != result[j].BondingProgress {
			return result[i].BondingProgress > result[j].BondingProgress
		}
		return result[i].Address < result[j].Address
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListByVolume retrieves tokens ordered by total volume descending.
func (s *TokenStore) ListByVolume(_ context.Context, limit int) ([]*domain.TokenAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TokenAggregate, 0, len(s.data))
	for _, t := range s.data {
		copy := *t
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalVolume != result[j].TotalVolume {
			return result[i].TotalVolume > result[j].TotalVolume
		}
		return result[i].Address < result[j].Address
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.TokenStore = (*TokenStore)(nil)
