package domain

// MigrationStatus represents the lifecycle state of a token on the bonding curve.
type MigrationStatus string

// Migration status constants. Status advances BONDING → CLOSE_TO_MIGRATION → MIGRATED.
// MIGRATED is terminal: once liquidity is deployed the token never returns to the curve.
const (
	StatusBonding          MigrationStatus = "BONDING"
	StatusCloseToMigration MigrationStatus = "CLOSE_TO_MIGRATION"
	StatusMigrated         MigrationStatus = "MIGRATED"
)

// TokenAggregate is the per-token materialized view, updated on every event
// that references the token. Keyed by the token contract address (lowercase hex).
// The factory-assigned integer TokenID is a secondary lookup key because raw
// trade events carry only the integer id.
type TokenAggregate struct {
	Address     string // token contract address, canonical key
	TokenID     uint64 // factory token id, secondary lookup key
	Creator     string
	PairAddress string

	Name     string
	Symbol   string
	Decimals uint8
	Supply   float64 // total supply in whole tokens

	// Bonding curve state
	AvaxRaised         float64 // cumulative AVAX raised, floored at zero
	MigrationThreshold float64 // AVAX required for migration (constant per token)
	BondingProgress    float64 // 0..100, clamped
	Status             MigrationStatus
	CurrentPrice       float64 // AVAX per token, last computed curve price
	MarketCap          float64 // AVAX

	// 24h extremes, maintained by a rolling hour-bucket window
	PriceHigh24h float64
	PriceLow24h  float64

	// Cumulative trading stats
	BuyVolume   float64 // AVAX
	SellVolume  float64 // AVAX
	TotalVolume float64 // AVAX
	TradeCount  int64
	BuyCount    int64
	SellCount   int64

	// Migration outcome
	LiquidityOnMigration float64 // AVAX deployed to the pool, 0 until migrated
	MigratedAt           int64   // unix seconds, 0 until migrated

	CreatedAt   int64 // unix seconds
	LastTradeAt int64 // unix seconds, 0 until first trade
	UpdatedAt   int64 // unix seconds
}
