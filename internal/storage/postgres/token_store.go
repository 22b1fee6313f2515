package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL. The
// token_id column carries a unique index, so the secondary lookup is a
// plain indexed query rather than an application-side map.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

const tokenColumns = `
	address, token_id, creator, pair_address,
	name, symbol, decimals, supply,
	avax_raised, migration_threshold, bonding_progress, status,
	current_price, market_cap, price_high_24h, price_low_24h,
	buy_volume, sell_volume, total_volume,
	trade_count, buy_count, sell_count,
	liquidity_on_migration, migrated_at,
	created_at, last_trade_at, updated_at
`

// Create adds a new token aggregate. Returns ErrDuplicateKey if the address
// or token id already exists.
func (s *TokenStore) Create(ctx context.Context, t *domain.TokenAggregate) error {
	query := `
		INSERT INTO tokens (` + tokenColumns + `)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
		)
	`

	_, err := s.pool.Exec(ctx, query, tokenArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// Get retrieves an aggregate by contract address.
func (s *TokenStore) Get(ctx context.Context, address string) (*domain.TokenAggregate, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE address = $1`

	t, err := scanToken(s.pool.QueryRow(ctx, query, address))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by address: %w", err)
	}
	return t, nil
}

// GetByTokenID retrieves an aggregate by factory token id.
func (s *TokenStore) GetByTokenID(ctx context.Context, tokenID uint64) (*domain.TokenAggregate, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE token_id = $1`

	t, err := scanToken(s.pool.QueryRow(ctx, query, int64(tokenID)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by id: %w", err)
	}
	return t, nil
}

// Save upserts an aggregate keyed by address.
func (s *TokenStore) Save(ctx context.Context, t *domain.TokenAggregate) error {
	query := `
		INSERT INTO tokens (` + tokenColumns + `)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
		)
		ON CONFLICT (address) DO UPDATE SET
			token_id = EXCLUDED.token_id,
			creator = EXCLUDED.creator,
			pair_address = EXCLUDED.pair_address,
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			decimals = EXCLUDED.decimals,
			supply = EXCLUDED.supply,
			avax_raised = EXCLUDED.avax_raised,
			migration_threshold = EXCLUDED.migration_threshold,
			bonding_progress = EXCLUDED.bonding_progress,
			status = EXCLUDED.status,
			current_price = EXCLUDED.current_price,
			market_cap = EXCLUDED.market_cap,
			price_high_24h = EXCLUDED.price_high_24h,
			price_low_24h = EXCLUDED.price_low_24h,
			buy_volume = EXCLUDED.buy_volume,
			sell_volume = EXCLUDED.sell_volume,
			total_volume = EXCLUDED.total_volume,
			trade_count = EXCLUDED.trade_count,
			buy_count = EXCLUDED.buy_count,
			sell_count = EXCLUDED.sell_count,
			liquidity_on_migration = EXCLUDED.liquidity_on_migration,
			migrated_at = EXCLUDED.migrated_at,
			created_at = EXCLUDED.created_at,
			last_trade_at = EXCLUDED.last_trade_at,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := s.pool.Exec(ctx, query, tokenArgs(t)...); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// ListByStatus retrieves tokens with the given status, ordered by bonding
// progress descending.
func (s *TokenStore) ListByStatus(ctx context.Context, status domain.MigrationStatus, limit int) ([]*domain.TokenAggregate, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE status = $1
		ORDER BY bonding_progress DESC, address ASC
	`
	args := []interface{}{string(status)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tokens by status: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

// ListByVolume retrieves tokens ordered by total volume descending.
func (s *TokenStore) ListByVolume(ctx context.Context, limit int) ([]*domain.TokenAggregate, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		ORDER BY total_volume DESC, address ASC
	`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tokens by volume: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

func tokenArgs(t *domain.TokenAggregate) []interface{} {
	return []interface{}{
		t.Address, int64(t.TokenID), t.Creator, t.PairAddress,
		t.Name, t.Symbol, int16(t.Decimals), t.Supply,
		t.AvaxRaised, t.MigrationThreshold, t.BondingProgress, string(t.Status),
		t.CurrentPrice, t.MarketCap, t.PriceHigh24h, t.PriceLow24h,
		t.BuyVolume, t.SellVolume, t.TotalVolume,
		t.TradeCount, t.BuyCount, t.SellCount,
		t.LiquidityOnMigration, t.MigratedAt,
		t.CreatedAt, t.LastTradeAt, t.UpdatedAt,
	}
}

func scanToken(row pgx.Row) (*domain.TokenAggregate, error) {
	var t domain.TokenAggregate
	var tokenID int64
	var decimals int16
	var status string

	err := row.Scan(
		&t.Address, &tokenID, &t.Creator, &t.PairAddress,
		&t.Name, &t.Symbol, &decimals, &t.Supply,
		&t.AvaxRaised, &t.MigrationThreshold, &t.BondingProgress, &status,
		&t.CurrentPrice, &t.MarketCap, &t.PriceHigh24h, &t.PriceLow24h,
		&t.BuyVolume, &t.SellVolume, &t.TotalVolume,
		&t.TradeCount, &t.BuyCount, &t.SellCount,
		&t.LiquidityOnMigration, &t.MigratedAt,
		&t.CreatedAt, &t.LastTradeAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.TokenID = uint64(tokenID)
	t.Decimals = uint8(decimals)
	t.Status = domain.MigrationStatus(status)
	return &t, nil
}

func scanTokens(rows pgx.Rows) ([]*domain.TokenAggregate, error) {
	var tokens []*domain.TokenAggregate
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}
	return tokens, nil
}
