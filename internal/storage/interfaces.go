package storage

import (
	"context"

	"avax-launch-indexer/internal/domain"
)

// TokenStore provides access to token aggregates. Aggregates are mutable:
// handlers load, mutate and Save within one event handling unit. The store
// also owns the tokenId → address auxiliary index, because raw trade events
// carry the factory's integer id while the canonical key is the contract
// address.
type TokenStore interface {
	// Create adds a new token aggregate. Returns ErrDuplicateKey if the
	// address already exists.
	Create(ctx context.Context, t *domain.TokenAggregate) error

	// Get retrieves an aggregate by contract address. Returns ErrNotFound.
	Get(ctx context.Context, address string) (*domain.TokenAggregate, error)

	// GetByTokenID retrieves an aggregate by factory token id. Returns ErrNotFound.
	GetByTokenID(ctx context.Context, tokenID uint64) (*domain.TokenAggregate, error)

	// Save upserts an aggregate keyed by address.
	Save(ctx context.Context, t *domain.TokenAggregate) error

	// ListByStatus retrieves tokens with the given status, ordered by
	// bonding progress descending. limit <= 0 means no limit.
	ListByStatus(ctx context.Context, status domain.MigrationStatus, limit int) ([]*domain.TokenAggregate, error)

	// ListByVolume retrieves tokens ordered by total volume descending.
	ListByVolume(ctx context.Context, limit int) ([]*domain.TokenAggregate, error)
}

// BondingEventStore provides access to the append-only trade log. Entries are
// keyed by (tx_hash, log_index) and never mutated after insert.
type BondingEventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, e *domain.BondingEvent) error

	// Get retrieves an event by its id. Returns ErrNotFound.
	Get(ctx context.Context, id string) (*domain.BondingEvent, error)

	// ListByToken retrieves events for a token ordered by
	// (block_number, tx_hash, log_index) ascending. limit <= 0 means no limit.
	ListByToken(ctx context.Context, tokenAddress string, limit int) ([]*domain.BondingEvent, error)

	// ListByTimeRange retrieves events for a token within [start, end] inclusive.
	ListByTimeRange(ctx context.Context, tokenAddress string, start, end int64) ([]*domain.BondingEvent, error)

	// ListAll retrieves every event ordered by (block_number, tx_hash,
	// log_index) ascending, for deterministic replay.
	ListAll(ctx context.Context) ([]*domain.BondingEvent, error)
}

// PositionStore provides access to per-(user, token) positions.
type PositionStore interface {
	// Get retrieves a position. Returns ErrNotFound.
	Get(ctx context.Context, user, tokenAddress string) (*domain.UserPosition, error)

	// Save upserts a position keyed by (user, token).
	Save(ctx context.Context, p *domain.UserPosition) error

	// ListByUser retrieves all positions for a user, open first, then by
	// last trade descending.
	ListByUser(ctx context.Context, user string) ([]*domain.UserPosition, error)

	// ListByToken retrieves all positions in a token ordered by balance descending.
	ListByToken(ctx context.Context, tokenAddress string) ([]*domain.UserPosition, error)
}

// ActivityStore provides access to per-user rollups.
type ActivityStore interface {
	// Get retrieves a user's activity. Returns ErrNotFound.
	Get(ctx context.Context, user string) (*domain.UserActivity, error)

	// Save upserts an activity record keyed by user.
	Save(ctx context.Context, a *domain.UserActivity) error
}

// DailyStatsStore provides access to per-day rollups keyed by UTC date.
type DailyStatsStore interface {
	// Get retrieves stats for a day key ("2006-01-02"). Returns ErrNotFound.
	Get(ctx context.Context, date string) (*domain.DailyStats, error)

	// Save upserts stats keyed by date.
	Save(ctx context.Context, s *domain.DailyStats) error

	// ListRange retrieves stats for dates within [from, to] inclusive,
	// ordered by date ascending.
	ListRange(ctx context.Context, from, to string) ([]*domain.DailyStats, error)
}

// GlobalStatsStore provides access to the protocol-wide singleton rollup.
type GlobalStatsStore interface {
	// Get retrieves the global stats. Returns ErrNotFound before first event.
	Get(ctx context.Context) (*domain.GlobalStats, error)

	// Save upserts the global stats.
	Save(ctx context.Context, s *domain.GlobalStats) error
}

// SnapshotStore provides access to hourly price snapshots.
type SnapshotStore interface {
	// Get retrieves the snapshot for (token, hour bucket). Returns ErrNotFound.
	Get(ctx context.Context, tokenAddress string, hourBucket int64) (*domain.PriceSnapshot, error)

	// Save upserts a snapshot keyed by (token, hour bucket).
	Save(ctx context.Context, s *domain.PriceSnapshot) error

	// ListByToken retrieves snapshots for a token with buckets within
	// [start, end] inclusive, ordered by bucket ascending.
	ListByToken(ctx context.Context, tokenAddress string, start, end int64) ([]*domain.PriceSnapshot, error)
}

// SessionStore provides access to per-(user, day) trading sessions.
type SessionStore interface {
	// Get retrieves a session. Returns ErrNotFound.
	Get(ctx context.Context, user, date string) (*domain.UserTradingSession, error)

	// Save upserts a session keyed by (user, date).
	Save(ctx context.Context, s *domain.UserTradingSession) error

	// ListByUser retrieves all sessions for a user ordered by date descending.
	ListByUser(ctx context.Context, user string) ([]*domain.UserTradingSession, error)
}
