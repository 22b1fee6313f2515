package memory

import (
	"context"
	"sort"
	"sync"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// BondingEventStore is an in-memory implementation of storage.BondingEventStore.
type BondingEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BondingEvent // keyed by event id (tx_hash:log_index)
}

// NewBondingEventStore creates a new in-memory bonding event store.
func NewBondingEventStore() *BondingEventStore {
	return &BondingEventStore{
		data: make(map[string]*domain.BondingEvent),
	}
}

// Insert adds a new event. Returns ErrDuplicateKey if the id exists.
func (s *BondingEventStore) Insert(_ context.Context, e *domain.BondingEvent) error {
	if e == nil || e.TxHash == "" || e.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	id := e.ID
	if id == "" {
		id = domain.EventID(e.TxHash, e.LogIndex)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *e
	copy.ID = id
	s.data[id] = &copy
	return nil
}

// Get retrieves an event by its id.
func (s *BondingEventStore) Get(_ context.Context, id string) (*domain.BondingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *e
	return &copy, nil
}

// ListByToken retrieves events for a token in chain order.
func (s *BondingEventStore) ListByToken(_ context.Context, tokenAddress string, limit int) ([]*domain.BondingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BondingEvent
	for _, e := range s.data {
		if e.TokenAddress == tokenAddress {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortEvents(result)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListByTimeRange retrieves events for a token within [start, end] inclusive.
func (s *BondingEventStore) ListByTimeRange(_ context.Context, tokenAddress string, start, end int64) ([]*domain.BondingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BondingEvent
	for _, e := range s.data {
		if e.TokenAddress == tokenAddress && e.Timestamp >= start && e.Timestamp <= end {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortEvents(result)
	return result, nil
}

// ListAll retrieves every event in chain order, for deterministic replay.
func (s *BondingEventStore) ListAll(_ context.Context) ([]*domain.BondingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.BondingEvent, 0, len(s.data))
	for _, e := range s.data {
		copy := *e
		result = append(result, &copy)
	}

	sortEvents(result)
	return result, nil
}

// sortEvents orders events by (block_number, tx_hash, log_index) ascending.
func sortEvents(events []*domain.BondingEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		if events[i].TxHash != events[j].TxHash {
			return events[i].TxHash < events[j].TxHash
		}
		return events[i].LogIndex < events[j].LogIndex
	})
}

var _ storage.BondingEventStore = (*BondingEventStore)(nil)
