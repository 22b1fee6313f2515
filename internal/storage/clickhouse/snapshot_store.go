package clickhouse

import (
	"context"
	"fmt"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse. Snapshots
// live in a ReplacingMergeTree versioned by updated_at: Save is a plain
// insert and the newest row per (token_address, hour_bucket) wins. Reads use
// FINAL so unmerged parts never surface a stale version.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Get retrieves the snapshot for (token, hour bucket).
func (s *SnapshotStore) Get(ctx context.Context, tokenAddress string, hourBucket int64) (*domain.PriceSnapshot, error) {
	query := `
		SELECT token_address, hour_bucket, price, open, high, low,
		       volume, trade_count, updated_at
		FROM price_snapshots FINAL
		WHERE token_address = ? AND hour_bucket = ?
	`

	rows, err := s.conn.Query(ctx, query, tokenAddress, uint64(hourBucket))
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	defer rows.Close()

	snaps, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, storage.ErrNotFound
	}
	return snaps[0], nil
}

// Save upserts a snapshot keyed by (token, hour bucket).
func (s *SnapshotStore) Save(ctx context.Context, snap *domain.PriceSnapshot) error {
	query := `
		INSERT INTO price_snapshots (
			token_address, hour_bucket, price, open, high, low,
			volume, trade_count, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		snap.TokenAddress, uint64(snap.HourBucket),
		snap.Price, snap.Open, snap.High, snap.Low,
		snap.Volume, uint64(snap.TradeCount), uint64(snap.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// ListByToken retrieves snapshots for a token with buckets within
// [start, end] inclusive, ordered by bucket ascending.
func (s *SnapshotStore) ListByToken(ctx context.Context, tokenAddress string, start, end int64) ([]*domain.PriceSnapshot, error) {
	query := `
		SELECT token_address, hour_bucket, price, open, high, low,
		       volume, trade_count, updated_at
		FROM price_snapshots FINAL
		WHERE token_address = ? AND hour_bucket >= ? AND hour_bucket <= ?
		ORDER BY hour_bucket ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenAddress, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("list snapshots by token: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}

func scanSnapshots(rows chRows) ([]*domain.PriceSnapshot, error) {
	var snaps []*domain.PriceSnapshot

	for rows.Next() {
		var snap domain.PriceSnapshot
		var hourBucket, tradeCount, updatedAt uint64

		err := rows.Scan(
			&snap.TokenAddress, &hourBucket,
			&snap.Price, &snap.Open, &snap.High, &snap.Low,
			&snap.Volume, &tradeCount, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		snap.HourBucket = int64(hourBucket)
		snap.TradeCount = int64(tradeCount)
		snap.UpdatedAt = int64(updatedAt)
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snaps, nil
}
