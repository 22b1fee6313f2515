package domain

import "time"

// GlobalStatsKey is the singleton key for the protocol-wide rollup.
const GlobalStatsKey = "global"

// DailyStats is the per-UTC-day rollup. A day D covers timestamps in
// [D*86400, (D+1)*86400). Created lazily on the first event of the day.
type DailyStats struct {
	Date string // "2006-01-02" UTC

	NewTokens      int64
	TokensMigrated int64

	TotalTrades int64
	BuyCount    int64
	SellCount   int64

	TotalVolume float64 // AVAX
	BuyVolume   float64
	SellVolume  float64

	ProtocolFees float64
	CreatorFees  float64
	ReferralFees float64

	// Best/worst realized PnL of a single sell within the day.
	BestTradePnL  float64
	BestTradeUser string
	WorstTradePnL float64
	WorstTradeUser string

	UpdatedAt int64 // unix seconds
}

// GlobalStats is the protocol-wide singleton rollup.
type GlobalStats struct {
	TotalTokens    int64 // tokens ever created
	ActiveTokens   int64 // still on the bonding curve
	MigratedTokens int64

	TotalTrades int64
	BuyCount    int64
	SellCount   int64

	TotalVolume float64 // AVAX
	BuyVolume   float64
	SellVolume  float64

	ProtocolFees float64
	CreatorFees  float64
	ReferralFees float64

	TotalLiquidityDeployed float64 // AVAX across all migrations

	UpdatedAt int64 // unix seconds
}

// DayKey formats a unix-seconds timestamp as the UTC day key.
func DayKey(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}

// HourBucket truncates a unix-seconds timestamp to the start of its UTC hour.
func HourBucket(ts int64) int64 {
	return ts - ts%3600
}
