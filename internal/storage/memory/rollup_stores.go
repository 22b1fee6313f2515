package memory

import (
	"context"
	"sort"
	"sync"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// ActivityStore is an in-memory implementation of storage.ActivityStore.
type ActivityStore struct {
	mu   sync.RWMutex
	data map[string]*domain.UserActivity // keyed by user
}

// NewActivityStore creates a new in-memory activity store.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{data: make(map[string]*domain.UserActivity)}
}

// Get retrieves a user's activity rollup.
func (s *ActivityStore) Get(_ context.Context, user string) (*domain.UserActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data[user]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *a
	return &copy, nil
}

// Save upserts an activity record keyed by user.
func (s *ActivityStore) Save(_ context.Context, a *domain.UserActivity) error {
	if a == nil || a.User == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *a
	s.data[a.User] = &copy
	return nil
}

var _ storage.ActivityStore = (*ActivityStore)(nil)

// DailyStatsStore is an in-memory implementation of storage.DailyStatsStore.
type DailyStatsStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DailyStats // keyed by "2006-01-02"
}

// NewDailyStatsStore creates a new in-memory daily stats store.
func NewDailyStatsStore() *DailyStatsStore {
	return &DailyStatsStore{data: make(map[string]*domain.DailyStats)}
}

// Get retrieves stats for a day key.
func (s *DailyStatsStore) Get(_ context.Context, date string) (*domain.DailyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.data[date]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *d
	return &copy, nil
}

// Save upserts stats keyed by date.
func (s *DailyStatsStore) Save(_ context.Context, d *domain.DailyStats) error {
	if d == nil || d.Date == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *d
	s.data[d.Date] = &copy
	return nil
}

// ListRange retrieves stats within [from, to] inclusive, ordered by date ascending.
// Day keys sort lexicographically, so string comparison is the date comparison.
func (s *DailyStatsStore) ListRange(_ context.Context, from, to string) ([]*domain.DailyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DailyStats
	for _, d := range s.data {
		if d.Date >= from && d.Date <= to {
			copy := *d
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

var _ storage.DailyStatsStore = (*DailyStatsStore)(nil)

// GlobalStatsStore is an in-memory implementation of storage.GlobalStatsStore.
type GlobalStatsStore struct {
	mu    sync.RWMutex
	stats *domain.GlobalStats
}

// NewGlobalStatsStore creates a new in-memory global stats store.
func NewGlobalStatsStore() *GlobalStatsStore {
	return &GlobalStatsStore{}
}

// Get retrieves the global stats. Returns ErrNotFound before the first Save.
func (s *GlobalStatsStore) Get(_ context.Context) (*domain.GlobalStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stats == nil {
		return nil, storage.ErrNotFound
	}
	copy := *s.stats
	return &copy, nil
}

// Save upserts the global stats.
func (s *GlobalStatsStore) Save(_ context.Context, g *domain.GlobalStats) error {
	if g == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *g
	s.stats = &copy
	return nil
}

var _ storage.GlobalStatsStore = (*GlobalStatsStore)(nil)

// SessionStore is an in-memory implementation of storage.SessionStore.
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.UserTradingSession // keyed by user|date
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{data: make(map[string]*domain.UserTradingSession)}
}

// Get retrieves a session for a (user, day) pair.
func (s *SessionStore) Get(_ context.Context, user, date string) (*domain.UserTradingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data[domain.SessionKey(user, date)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *sess
	return &copy, nil
}

// Save upserts a session keyed by (user, date).
func (s *SessionStore) Save(_ context.Context, sess *domain.UserTradingSession) error {
	if sess == nil || sess.User == "" || sess.Date == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *sess
	s.data[domain.SessionKey(sess.User, sess.Date)] = &copy
	return nil
}

// ListByUser retrieves all sessions for a user ordered by date descending.
func (s *SessionStore) ListByUser(_ context.Context, user string) ([]*domain.UserTradingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.UserTradingSession
	for _, sess := range s.data {
		if sess.User == user {
			copy := *sess
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Date > result[j].Date })
	return result, nil
}

var _ storage.SessionStore = (*SessionStore)(nil)
