package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// BondingEventStore implements storage.BondingEventStore using PostgreSQL.
// The primary key is the event id (tx_hash:log_index), which is what makes
// redelivered events collide instead of double-counting.
type BondingEventStore struct {
	pool *Pool
}

// NewBondingEventStore creates a new BondingEventStore.
func NewBondingEventStore(pool *Pool) *BondingEventStore {
	return &BondingEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BondingEventStore = (*BondingEventStore)(nil)

const bondingEventColumns = `
	id, tx_hash, log_index, token_address, user_address,
	avax_amount, token_amount, price,
	protocol_fee, creator_fee, referral_fee,
	cumulative_raised, bonding_progress,
	trade_type, block_number, timestamp
`

// Insert adds a new event. Returns ErrDuplicateKey if the id exists.
func (s *BondingEventStore) Insert(ctx context.Context, e *domain.BondingEvent) error {
	query := `
		INSERT INTO bonding_events (` + bondingEventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := s.pool.Exec(ctx, query,
		e.ID, e.TxHash, int32(e.LogIndex), e.TokenAddress, e.User,
		e.AvaxAmount, e.TokenAmount, e.Price,
		e.ProtocolFee, e.CreatorFee, e.ReferralFee,
		e.CumulativeRaised, e.BondingProgress,
		string(e.TradeType), int64(e.BlockNumber), e.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert bonding event: %w", err)
	}
	return nil
}

// Get retrieves an event by its id.
func (s *BondingEventStore) Get(ctx context.Context, id string) (*domain.BondingEvent, error) {
	query := `SELECT ` + bondingEventColumns + ` FROM bonding_events WHERE id = $1`

	e, err := scanBondingEvent(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get bonding event: %w", err)
	}
	return e, nil
}

// ListByToken retrieves events for a token in chain order.
func (s *BondingEventStore) ListByToken(ctx context.Context, tokenAddress string, limit int) ([]*domain.BondingEvent, error) {
	query := `
		SELECT ` + bondingEventColumns + `
		FROM bonding_events
		WHERE token_address = $1
		ORDER BY block_number ASC, tx_hash ASC, log_index ASC
	`
	args := []interface{}{tokenAddress}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bonding events by token: %w", err)
	}
	defer rows.Close()

	return scanBondingEvents(rows)
}

// ListByTimeRange retrieves events for a token within [start, end] inclusive.
func (s *BondingEventStore) ListByTimeRange(ctx context.Context, tokenAddress string, start, end int64) ([]*domain.BondingEvent, error) {
	query := `
		SELECT ` + bondingEventColumns + `
		FROM bonding_events
		WHERE token_address = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY block_number ASC, tx_hash ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenAddress, start, end)
	if err != nil {
		return nil, fmt.Errorf("list bonding events by time range: %w", err)
	}
	defer rows.Close()

	return scanBondingEvents(rows)
}

// ListAll retrieves every event in chain order, for deterministic replay.
func (s *BondingEventStore) ListAll(ctx context.Context) ([]*domain.BondingEvent, error) {
	query := `
		SELECT ` + bondingEventColumns + `
		FROM bonding_events
		ORDER BY block_number ASC, tx_hash ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all bonding events: %w", err)
	}
	defer rows.Close()

	return scanBondingEvents(rows)
}

func scanBondingEvent(row pgx.Row) (*domain.BondingEvent, error) {
	var e domain.BondingEvent
	var logIndex int32
	var blockNumber int64
	var tradeType string

	err := row.Scan(
		&e.ID, &e.TxHash, &logIndex, &e.TokenAddress, &e.User,
		&e.AvaxAmount, &e.TokenAmount, &e.Price,
		&e.ProtocolFee, &e.CreatorFee, &e.ReferralFee,
		&e.CumulativeRaised, &e.BondingProgress,
		&tradeType, &blockNumber, &e.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	e.LogIndex = uint32(logIndex)
	e.BlockNumber = uint64(blockNumber)
	e.TradeType = domain.TradeType(tradeType)
	return &e, nil
}

func scanBondingEvents(rows pgx.Rows) ([]*domain.BondingEvent, error) {
	var events []*domain.BondingEvent
	for rows.Next() {
		e, err := scanBondingEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bonding event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bonding event rows: %w", err)
	}
	return events, nil
}
