package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `
	user_address, token_address,
	balance, total_bought, total_sold,
	total_buy_value, total_sell_value,
	avg_buy_price, avg_sell_price,
	realized_pnl, unrealized_pnl,
	is_open, buy_count, sell_count,
	first_trade_at, last_trade_at, updated_at
`

// Get retrieves a position.
func (s *PositionStore) Get(ctx context.Context, user, tokenAddress string) (*domain.UserPosition, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE user_address = $1 AND token_address = $2
	`

	p, err := scanPosition(s.pool.QueryRow(ctx, query, user, tokenAddress))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position: %w", err)
	}
	return p, nil
}

// Save upserts a position keyed by (user, token).
func (s *PositionStore) Save(ctx context.Context, p *domain.UserPosition) error {
	query := `
		INSERT INTO positions (` + positionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (user_address, token_address) DO UPDATE SET
			balance = EXCLUDED.balance,
			total_bought = EXCLUDED.total_bought,
			total_sold = EXCLUDED.total_sold,
			total_buy_value = EXCLUDED.total_buy_value,
			total_sell_value = EXCLUDED.total_sell_value,
			avg_buy_price = EXCLUDED.avg_buy_price,
			avg_sell_price = EXCLUDED.avg_sell_price,
			realized_pnl = EXCLUDED.realized_pnl,
			unrealized_pnl = EXCLUDED.unrealized_pnl,
			is_open = EXCLUDED.is_open,
			buy_count = EXCLUDED.buy_count,
			sell_count = EXCLUDED.sell_count,
			first_trade_at = EXCLUDED.first_trade_at,
			last_trade_at = EXCLUDED.last_trade_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		p.User, p.TokenAddress,
		p.Balance, p.TotalBought, p.TotalSold,
		p.TotalBuyValue, p.TotalSellValue,
		p.AvgBuyPrice, p.AvgSellPrice,
		p.RealizedPnL, p.UnrealizedPnL,
		p.IsOpen, p.BuyCount, p.SellCount,
		p.FirstTradeAt, p.LastTradeAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	return nil
}

// ListByUser retrieves all positions for a user, open first, then by last
// trade descending.
func (s *PositionStore) ListByUser(ctx context.Context, user string) ([]*domain.UserPosition, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE user_address = $1
		ORDER BY is_open DESC, last_trade_at DESC, token_address ASC
	`

	rows, err := s.pool.Query(ctx, query, user)
	if err != nil {
		return nil, fmt.Errorf("list positions by user: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// ListByToken retrieves all positions in a token ordered by balance descending.
func (s *PositionStore) ListByToken(ctx context.Context, tokenAddress string) ([]*domain.UserPosition, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE token_address = $1
		ORDER BY balance DESC, user_address ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("list positions by token: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

func scanPosition(row pgx.Row) (*domain.UserPosition, error) {
	var p domain.UserPosition
	err := row.Scan(
		&p.User, &p.TokenAddress,
		&p.Balance, &p.TotalBought, &p.TotalSold,
		&p.TotalBuyValue, &p.TotalSellValue,
		&p.AvgBuyPrice, &p.AvgSellPrice,
		&p.RealizedPnL, &p.UnrealizedPnL,
		&p.IsOpen, &p.BuyCount, &p.SellCount,
		&p.FirstTradeAt, &p.LastTradeAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPositions(rows pgx.Rows) ([]*domain.UserPosition, error) {
	var positions []*domain.UserPosition
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}
	return positions, nil
}
