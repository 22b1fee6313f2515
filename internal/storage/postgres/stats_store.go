package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// DailyStatsStore implements storage.DailyStatsStore using PostgreSQL.
type DailyStatsStore struct {
	pool *Pool
}

// NewDailyStatsStore creates a new DailyStatsStore.
func NewDailyStatsStore(pool *Pool) *DailyStatsStore {
	return &DailyStatsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DailyStatsStore = (*DailyStatsStore)(nil)

const dailyStatsColumns = `
	date, new_tokens, tokens_migrated,
	total_trades, buy_count, sell_count,
	total_volume, buy_volume, sell_volume,
	protocol_fees, creator_fees, referral_fees,
	best_trade_pnl, best_trade_user, worst_trade_pnl, worst_trade_user,
	updated_at
`

// Get retrieves stats for a day key.
func (s *DailyStatsStore) Get(ctx context.Context, date string) (*domain.DailyStats, error) {
	query := `SELECT ` + dailyStatsColumns + ` FROM daily_stats WHERE date = $1`

	d, err := scanDailyStats(s.pool.QueryRow(ctx, query, date))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get daily stats: %w", err)
	}
	return d, nil
}

// Save upserts stats keyed by date.
func (s *DailyStatsStore) Save(ctx context.Context, d *domain.DailyStats) error {
	query := `
		INSERT INTO daily_stats (` + dailyStatsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (date) DO UPDATE SET
			new_tokens = EXCLUDED.new_tokens,
			tokens_migrated = EXCLUDED.tokens_migrated,
			total_trades = EXCLUDED.total_trades,
			buy_count = EXCLUDED.buy_count,
			sell_count = EXCLUDED.sell_count,
			total_volume = EXCLUDED.total_volume,
			buy_volume = EXCLUDED.buy_volume,
			sell_volume = EXCLUDED.sell_volume,
			protocol_fees = EXCLUDED.protocol_fees,
			creator_fees = EXCLUDED.creator_fees,
			referral_fees = EXCLUDED.referral_fees,
			best_trade_pnl = EXCLUDED.best_trade_pnl,
			best_trade_user = EXCLUDED.best_trade_user,
			worst_trade_pnl = EXCLUDED.worst_trade_pnl,
			worst_trade_user = EXCLUDED.worst_trade_user,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		d.Date, d.NewTokens, d.TokensMigrated,
		d.TotalTrades, d.BuyCount, d.SellCount,
		d.TotalVolume, d.BuyVolume, d.SellVolume,
		d.ProtocolFees, d.CreatorFees, d.ReferralFees,
		d.BestTradePnL, d.BestTradeUser, d.WorstTradePnL, d.WorstTradeUser,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save daily stats: %w", err)
	}
	return nil
}

// ListRange retrieves stats for dates within [from, to] inclusive, ordered by
// date ascending. Day keys sort lexically because of the fixed format.
func (s *DailyStatsStore) ListRange(ctx context.Context, from, to string) ([]*domain.DailyStats, error) {
	query := `
		SELECT ` + dailyStatsColumns + `
		FROM daily_stats
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list daily stats range: %w", err)
	}
	defer rows.Close()

	var stats []*domain.DailyStats
	for rows.Next() {
		d, err := scanDailyStats(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily stats row: %w", err)
		}
		stats = append(stats, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily stats rows: %w", err)
	}
	return stats, nil
}

func scanDailyStats(row pgx.Row) (*domain.DailyStats, error) {
	var d domain.DailyStats
	err := row.Scan(
		&d.Date, &d.NewTokens, &d.TokensMigrated,
		&d.TotalTrades, &d.BuyCount, &d.SellCount,
		&d.TotalVolume, &d.BuyVolume, &d.SellVolume,
		&d.ProtocolFees, &d.CreatorFees, &d.ReferralFees,
		&d.BestTradePnL, &d.BestTradeUser, &d.WorstTradePnL, &d.WorstTradeUser,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GlobalStatsStore implements storage.GlobalStatsStore using PostgreSQL. The
// table holds one row, pinned by a constant key.
type GlobalStatsStore struct {
	pool *Pool
}

// NewGlobalStatsStore creates a new GlobalStatsStore.
func NewGlobalStatsStore(pool *Pool) *GlobalStatsStore {
	return &GlobalStatsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.GlobalStatsStore = (*GlobalStatsStore)(nil)

const globalStatsColumns = `
	total_tokens, active_tokens, migrated_tokens,
	total_trades, buy_count, sell_count,
	total_volume, buy_volume, sell_volume,
	protocol_fees, creator_fees, referral_fees,
	total_liquidity_deployed, updated_at
`

// Get retrieves the global stats.
func (s *GlobalStatsStore) Get(ctx context.Context) (*domain.GlobalStats, error) {
	query := `SELECT ` + globalStatsColumns + ` FROM global_stats WHERE id = $1`

	var g domain.GlobalStats
	err := s.pool.QueryRow(ctx, query, domain.GlobalStatsKey).Scan(
		&g.TotalTokens, &g.ActiveTokens, &g.MigratedTokens,
		&g.TotalTrades, &g.BuyCount, &g.SellCount,
		&g.TotalVolume, &g.BuyVolume, &g.SellVolume,
		&g.ProtocolFees, &g.CreatorFees, &g.ReferralFees,
		&g.TotalLiquidityDeployed, &g.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get global stats: %w", err)
	}
	return &g, nil
}

// Save upserts the global stats.
func (s *GlobalStatsStore) Save(ctx context.Context, g *domain.GlobalStats) error {
	query := `
		INSERT INTO global_stats (id, ` + globalStatsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			total_tokens = EXCLUDED.total_tokens,
			active_tokens = EXCLUDED.active_tokens,
			migrated_tokens = EXCLUDED.migrated_tokens,
			total_trades = EXCLUDED.total_trades,
			buy_count = EXCLUDED.buy_count,
			sell_count = EXCLUDED.sell_count,
			total_volume = EXCLUDED.total_volume,
			buy_volume = EXCLUDED.buy_volume,
			sell_volume = EXCLUDED.sell_volume,
			protocol_fees = EXCLUDED.protocol_fees,
			creator_fees = EXCLUDED.creator_fees,
			referral_fees = EXCLUDED.referral_fees,
			total_liquidity_deployed = EXCLUDED.total_liquidity_deployed,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		domain.GlobalStatsKey,
		g.TotalTokens, g.ActiveTokens, g.MigratedTokens,
		g.TotalTrades, g.BuyCount, g.SellCount,
		g.TotalVolume, g.BuyVolume, g.SellVolume,
		g.ProtocolFees, g.CreatorFees, g.ReferralFees,
		g.TotalLiquidityDeployed, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save global stats: %w", err)
	}
	return nil
}
