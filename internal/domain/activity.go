package domain

// UserActivity rolls up one user's trading across all tokens. Created on the
// user's first trade, mutated on every trade thereafter.
type UserActivity struct {
	User string

	TotalTrades int64
	BuyCount    int64
	SellCount   int64

	TotalVolume float64 // AVAX, buys + sells
	TotalFees   float64 // AVAX, all fee kinds

	TotalInvested float64 // AVAX spent on buys
	TotalReturned float64 // AVAX received on sells
	RealizedPnL   float64 // AVAX, summed over closed-out amounts

	WinningTrades int64 // sells with positive realized PnL
	LosingTrades  int64 // sells with negative realized PnL

	// PortfolioROI is RealizedPnL / TotalInvested, zero while nothing invested.
	PortfolioROI float64

	FirstTradeAt int64 // unix seconds
	LastTradeAt  int64 // unix seconds
	UpdatedAt    int64 // unix seconds
}
