package domain

// PriceSnapshot is the hourly price rollup for one token. One snapshot exists
// per (token, hour bucket); the first trade in the bucket creates it and each
// subsequent trade overwrites Price (last trade wins) and accumulates volume.
type PriceSnapshot struct {
	TokenAddress string
	HourBucket   int64 // unix seconds, truncated to the hour

	Price      float64 // AVAX per token, last trade in the bucket
	Open       float64 // first trade in the bucket
	High       float64
	Low        float64

	Volume     float64 // AVAX traded within the bucket
	TradeCount int64

	UpdatedAt int64 // unix seconds
}
