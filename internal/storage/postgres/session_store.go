package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// SessionStore implements storage.SessionStore using PostgreSQL.
type SessionStore struct {
	pool *Pool
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(pool *Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SessionStore = (*SessionStore)(nil)

const sessionColumns = `
	user_address, date,
	trades, buy_count, sell_count,
	volume, fees,
	realized_pnl, best_trade_pnl, worst_trade_pnl,
	updated_at
`

// Get retrieves a session.
func (s *SessionStore) Get(ctx context.Context, user, date string) (*domain.UserTradingSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM trading_sessions
		WHERE user_address = $1 AND date = $2
	`

	sess, err := scanSession(s.pool.QueryRow(ctx, query, user, date))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trading session: %w", err)
	}
	return sess, nil
}

// Save upserts a session keyed by (user, date).
func (s *SessionStore) Save(ctx context.Context, sess *domain.UserTradingSession) error {
	query := `
		INSERT INTO trading_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_address, date) DO UPDATE SET
			trades = EXCLUDED.trades,
			buy_count = EXCLUDED.buy_count,
			sell_count = EXCLUDED.sell_count,
			volume = EXCLUDED.volume,
			fees = EXCLUDED.fees,
			realized_pnl = EXCLUDED.realized_pnl,
			best_trade_pnl = EXCLUDED.best_trade_pnl,
			worst_trade_pnl = EXCLUDED.worst_trade_pnl,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		sess.User, sess.Date,
		sess.Trades, sess.BuyCount, sess.SellCount,
		sess.Volume, sess.Fees,
		sess.RealizedPnL, sess.BestTradePnL, sess.WorstTradePnL,
		sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save trading session: %w", err)
	}
	return nil
}

// ListByUser retrieves all sessions for a user ordered by date descending.
func (s *SessionStore) ListByUser(ctx context.Context, user string) ([]*domain.UserTradingSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM trading_sessions
		WHERE user_address = $1
		ORDER BY date DESC
	`

	rows, err := s.pool.Query(ctx, query, user)
	if err != nil {
		return nil, fmt.Errorf("list trading sessions by user: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.UserTradingSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trading session row: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trading session rows: %w", err)
	}
	return sessions, nil
}

func scanSession(row pgx.Row) (*domain.UserTradingSession, error) {
	var sess domain.UserTradingSession
	err := row.Scan(
		&sess.User, &sess.Date,
		&sess.Trades, &sess.BuyCount, &sess.SellCount,
		&sess.Volume, &sess.Fees,
		&sess.RealizedPnL, &sess.BestTradePnL, &sess.WorstTradePnL,
		&sess.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}
