package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PriceSnapshot // keyed by token|bucket
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.PriceSnapshot),
	}
}

// snapshotKey generates a unique key for a (token, hour bucket) pair.
func snapshotKey(tokenAddress string, hourBucket int64) string {
	return fmt.Sprintf("%s|%d", tokenAddress, hourBucket)
}

// Get retrieves the snapshot for (token, hour bucket).
func (s *SnapshotStore) Get(_ context.Context, tokenAddress string, hourBucket int64) (*domain.PriceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[snapshotKey(tokenAddress, hourBucket)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *snap
	return &copy, nil
}

// Save upserts a snapshot keyed by (token, hour bucket).
func (s *SnapshotStore) Save(_ context.Context, snap *domain.PriceSnapshot) error {
	if snap == nil || snap.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *snap
	s.data[snapshotKey(snap.TokenAddress, snap.HourBucket)] = &copy
	return nil
}

// ListByToken retrieves snapshots with buckets within [start, end] inclusive,
// ordered by bucket ascending.
func (s *SnapshotStore) ListByToken(_ context.Context, tokenAddress string, start, end int64) ([]*domain.PriceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceSnapshot
	for _, snap := range s.data {
		if snap.TokenAddress == tokenAddress && snap.HourBucket >= start && snap.HourBucket <= end {
			copy := *snap
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].HourBucket < result[j].HourBucket })
	return result, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
