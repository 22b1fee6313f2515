package domain

import "fmt"

// UserTradingSession is the per-(user, UTC day) rollup. Created lazily on the
// user's first trade of the day.
type UserTradingSession struct {
	User string
	Date string // "2006-01-02" UTC

	Trades    int64
	BuyCount  int64
	SellCount int64

	Volume float64 // AVAX
	Fees   float64 // AVAX

	RealizedPnL   float64 // AVAX realized within the session
	BestTradePnL  float64
	WorstTradePnL float64

	UpdatedAt int64 // unix seconds
}

// SessionKey builds the canonical store key for a (user, day) session.
func SessionKey(user, date string) string {
	return fmt.Sprintf("%s|%s", user, date)
}
