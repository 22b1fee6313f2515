// Package curve implements the bonding curve pricing model. All functions are
// pure and clamp their inputs; none of them return errors.
package curve

import "math"

// Curve constants for the factory's default parameters.
const (
	// DefaultMigrationThreshold is the cumulative AVAX raise that triggers
	// liquidity migration.
	DefaultMigrationThreshold = 503.15

	// StartingPrice is the curve price in AVAX per token at zero raised.
	StartingPrice = 0.00000006

	// MigrationPrice is the curve price in AVAX per token at the moment the
	// migration threshold is reached.
	MigrationPrice = 0.00000048

	// CirculatingFraction is the conservative share of total supply assumed
	// tradable while the token is on the curve. The factory keeps the
	// remainder reserved for the liquidity pool.
	CirculatingFraction = 0.5

	// priceExponent makes the curve super-linear: price accelerates as the
	// token approaches migration.
	priceExponent = 1.5

	// CloseToMigrationProgress is the progress percentage at which a token is
	// considered close to migration.
	CloseToMigrationProgress = 80.0
)

// Progress returns the bonding progress percentage for a cumulative raise,
// clamped to [0, 100]. A non-positive threshold yields 0.
func Progress(raised, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	return clamp(raised/threshold*100, 0, 100)
}

// Price returns the instantaneous curve price in AVAX per token. It
// interpolates monotonically between StartingPrice and MigrationPrice driven
// by (raised/threshold)^1.5, so it is non-decreasing in raised.
func Price(raised, threshold float64) float64 {
	if threshold <= 0 {
		return StartingPrice
	}
	ratio := clamp(raised/threshold, 0, 1)
	return StartingPrice + (MigrationPrice-StartingPrice)*math.Pow(ratio, priceExponent)
}

// MarketCap estimates the market cap in AVAX from the curve price and total
// supply, using the conservative circulating fraction.
func MarketCap(price, totalSupply float64) float64 {
	if price <= 0 || totalSupply <= 0 {
		return 0
	}
	return price * totalSupply * CirculatingFraction
}

// TradePrice returns the effective execution price of a single trade. A zero
// or negative token amount short-circuits to 0 instead of dividing by zero.
func TradePrice(avaxAmount, tokenAmount float64) float64 {
	if tokenAmount <= 0 {
		return 0
	}
	return avaxAmount / tokenAmount
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
