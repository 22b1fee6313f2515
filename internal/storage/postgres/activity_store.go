package postgres

import (
	"context"
	"fmt"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// ActivityStore implements storage.ActivityStore using PostgreSQL.
type ActivityStore struct {
	pool *Pool
}

// NewActivityStore creates a new ActivityStore.
func NewActivityStore(pool *Pool) *ActivityStore {
	return &ActivityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ActivityStore = (*ActivityStore)(nil)

const activityColumns = `
	user_address, total_trades, buy_count, sell_count,
	total_volume, total_fees,
	total_invested, total_returned, realized_pnl,
	winning_trades, losing_trades, portfolio_roi,
	first_trade_at, last_trade_at, updated_at
`

// Get retrieves a user's activity.
func (s *ActivityStore) Get(ctx context.Context, user string) (*domain.UserActivity, error) {
	query := `SELECT ` + activityColumns + ` FROM user_activity WHERE user_address = $1`

	var a domain.UserActivity
	err := s.pool.QueryRow(ctx, query, user).Scan(
		&a.User, &a.TotalTrades, &a.BuyCount, &a.SellCount,
		&a.TotalVolume, &a.TotalFees,
		&a.TotalInvested, &a.TotalReturned, &a.RealizedPnL,
		&a.WinningTrades, &a.LosingTrades, &a.PortfolioROI,
		&a.FirstTradeAt, &a.LastTradeAt, &a.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user activity: %w", err)
	}
	return &a, nil
}

// Save upserts an activity record keyed by user.
func (s *ActivityStore) Save(ctx context.Context, a *domain.UserActivity) error {
	query := `
		INSERT INTO user_activity (` + activityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_address) DO UPDATE SET
			total_trades = EXCLUDED.total_trades,
			buy_count = EXCLUDED.buy_count,
			sell_count = EXCLUDED.sell_count,
			total_volume = EXCLUDED.total_volume,
			total_fees = EXCLUDED.total_fees,
			total_invested = EXCLUDED.total_invested,
			total_returned = EXCLUDED.total_returned,
			realized_pnl = EXCLUDED.realized_pnl,
			winning_trades = EXCLUDED.winning_trades,
			losing_trades = EXCLUDED.losing_trades,
			portfolio_roi = EXCLUDED.portfolio_roi,
			first_trade_at = EXCLUDED.first_trade_at,
			last_trade_at = EXCLUDED.last_trade_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		a.User, a.TotalTrades, a.BuyCount, a.SellCount,
		a.TotalVolume, a.TotalFees,
		a.TotalInvested, a.TotalReturned, a.RealizedPnL,
		a.WinningTrades, a.LosingTrades, a.PortfolioROI,
		a.FirstTradeAt, a.LastTradeAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save user activity: %w", err)
	}
	return nil
}
