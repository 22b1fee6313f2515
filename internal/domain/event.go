package domain

import (
	"fmt"
	"strings"
)

// TradeType distinguishes buy and sell entries in the bonding event log.
type TradeType string

// Trade type constants.
const (
	TradeTypeBuy  TradeType = "BUY"
	TradeTypeSell TradeType = "SELL"
)

// BondingEvent is the immutable per-trade log entry. It is both audit record
// and idempotency key: the store rejects a second insert with the same
// (tx_hash, log_index), which makes event redelivery a no-op.
type BondingEvent struct {
	ID       string // EventID(TxHash, LogIndex)
	TxHash   string
	LogIndex uint32

	TokenAddress string
	User         string

	AvaxAmount  float64 // AVAX side of the trade
	TokenAmount float64 // token side of the trade
	Price       float64 // AVAX per token at execution

	ProtocolFee float64
	CreatorFee  float64
	ReferralFee float64

	CumulativeRaised float64 // AvaxRaised snapshot after this trade
	BondingProgress  float64 // progress snapshot after this trade

	TradeType   TradeType
	BlockNumber uint64
	Timestamp   int64 // unix seconds
}

// EventID builds the canonical idempotency key for a chain log.
func EventID(txHash string, logIndex uint32) string {
	return fmt.Sprintf("%s:%d", strings.ToLower(txHash), logIndex)
}

// EventKind identifies the payload carried by a feed Event.
type EventKind string

// Event kind constants.
const (
	KindTokenCreated      EventKind = "TOKEN_CREATED"
	KindBuy               EventKind = "BUY"
	KindSell              EventKind = "SELL"
	KindLiquidityMigrated EventKind = "LIQUIDITY_MIGRATED"
)

// TokenCreatedPayload is emitted once when the factory launches a token.
type TokenCreatedPayload struct {
	TokenID              uint64
	CreatorAddress       string
	TokenContractAddress string
	PairAddress          string
	LPDeployed           bool // liquidity already deployed at creation (edge case)
	Supply               float64
	Decimals             uint8
}

// TradePayload carries a Buy or Sell. For buys AvaxAmount is the cost paid by
// the user; for sells it is the reward received. Fees are already separated
// out by the factory contract.
type TradePayload struct {
	TokenID     uint64
	User        string
	AvaxAmount  float64
	TokenAmount float64
	ProtocolFee float64
	CreatorFee  float64
	ReferralFee float64
}

// LiquidityMigratedPayload is emitted when the raise threshold is met and the
// factory deploys the pool.
type LiquidityMigratedPayload struct {
	TokenID        uint64
	AmountDeployed float64 // AVAX moved into the pool
}

// Event is the closed union of the four feed event kinds. Exactly one payload
// pointer is set, matching Kind. Events are delivered in chain order
// (block number, tx hash, log index).
type Event struct {
	Kind        EventKind
	BlockNumber uint64
	TxHash      string
	LogIndex    uint32
	Timestamp   int64 // unix seconds

	TokenCreated      *TokenCreatedPayload
	Buy               *TradePayload
	Sell              *TradePayload
	LiquidityMigrated *LiquidityMigratedPayload
}

// ID returns the idempotency key for the event.
func (e *Event) ID() string {
	return EventID(e.TxHash, e.LogIndex)
}
