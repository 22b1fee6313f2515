package domain

import "fmt"

// UserPosition tracks one (user, token) pair across its whole life. Positions
// are never deleted: when the balance returns to zero the position is marked
// closed and retained as history.
//
// Cost basis is weighted-average, not FIFO/LIFO. This is a policy decision:
// the event stream does not carry lot information, so realized profit on a
// sell is computed against the average price paid across all prior buys.
type UserPosition struct {
	User         string
	TokenAddress string

	Balance     float64 // tracked token balance, never negative
	TotalBought float64 // tokens
	TotalSold   float64 // tokens

	TotalBuyValue  float64 // AVAX spent on buys
	TotalSellValue float64 // AVAX received on sells

	AvgBuyPrice  float64 // TotalBuyValue / TotalBought, recomputed on every buy
	AvgSellPrice float64 // TotalSellValue / TotalSold

	RealizedPnL   float64 // AVAX, accumulated on sells
	UnrealizedPnL float64 // AVAX, valid only while Balance > 0

	IsOpen    bool
	BuyCount  int64
	SellCount int64

	FirstTradeAt int64 // unix seconds
	LastTradeAt  int64 // unix seconds
	UpdatedAt    int64 // unix seconds
}

// PositionKey builds the canonical store key for a (user, token) pair.
func PositionKey(user, tokenAddress string) string {
	return fmt.Sprintf("%s|%s", user, tokenAddress)
}
