// Package engine applies feed events to the aggregate stores. It is the only
// writer of derived state: one event in, several interdependent aggregates
// updated exactly once.
//
// The engine is strictly single-goroutine: events must be applied in chain
// order because the aggregates (weighted-average cost basis, 24h extremes)
// are incremental and cannot be recomputed from a snapshot. Deployments that
// shard load must route all events for a token to the same engine instance.
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"avax-launch-indexer/internal/chain"
	"avax-launch-indexer/internal/curve"
	"avax-launch-indexer/internal/dedupe"
	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/observability"
	"avax-launch-indexer/internal/storage"
)

// MetadataSource resolves ERC20 metadata for newly created tokens.
type MetadataSource interface {
	TokenMetadata(ctx context.Context, address string) (chain.TokenMetadata, error)
}

// Policy holds the tunable engine behavior.
type Policy struct {
	// MigrationThreshold is the AVAX raise that completes the curve.
	MigrationThreshold float64

	// CloseToMigrationProgress is the progress percentage at which status
	// advances to CLOSE_TO_MIGRATION.
	CloseToMigrationProgress float64

	// DemoteOnSell allows a sell that drops progress below a threshold to
	// demote the token's status. Migration itself is never reverted: once a
	// token reaches MIGRATED its status is terminal regardless of this flag.
	DemoteOnSell bool
}

// DefaultPolicy returns the factory's default parameters.
func DefaultPolicy() Policy {
	return Policy{
		MigrationThreshold:       curve.DefaultMigrationThreshold,
		CloseToMigrationProgress: curve.CloseToMigrationProgress,
		DemoteOnSell:             false,
	}
}

// Stores bundles the aggregate stores the engine writes.
type Stores struct {
	Tokens    storage.TokenStore
	Events    storage.BondingEventStore
	Positions storage.PositionStore
	Activity  storage.ActivityStore
	Daily     storage.DailyStatsStore
	Global    storage.GlobalStatsStore
	Snapshots storage.SnapshotStore
	Sessions  storage.SessionStore
}

// Options configures an Engine.
type Options struct {
	Stores   Stores
	Policy   Policy
	Deduper  dedupe.Deduper         // optional front-line duplicate check
	Metadata MetadataSource         // optional, synthesized fallback when nil
	Metrics  *observability.Metrics // optional
	Logger   *log.Logger            // optional
}

// Engine is the event-driven aggregation engine.
type Engine struct {
	stores  Stores
	policy  Policy
	deduper dedupe.Deduper
	meta    MetadataSource
	metrics *observability.Metrics
	logger  *log.Logger

	// windows holds per-token rolling 24h price extremes. In-memory only:
	// rebuilt naturally when events are replayed through a fresh engine.
	windows map[string]*priceWindow
}

// NewEngine creates an engine over the given stores.
func NewEngine(opts Options) *Engine {
	policy := opts.Policy
	if policy.MigrationThreshold <= 0 {
		policy.MigrationThreshold = curve.DefaultMigrationThreshold
	}
	if policy.CloseToMigrationProgress <= 0 {
		policy.CloseToMigrationProgress = curve.CloseToMigrationProgress
	}

	return &Engine{
		stores:  opts.Stores,
		policy:  policy,
		deduper: opts.Deduper,
		meta:    opts.Metadata,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		windows: make(map[string]*priceWindow),
	}
}

// HandleEvent applies one feed event. Handlers are exhaustive over the event
// union; an event of unknown kind is an error, everything else degrades to a
// logged skip rather than failing ingestion.
func (e *Engine) HandleEvent(ctx context.Context, ev *domain.Event) error {
	if ev == nil {
		return nil
	}

	start := time.Now()
	var err error

	switch ev.Kind {
	case domain.KindTokenCreated:
		err = e.handleTokenCreated(ctx, ev)
	case domain.KindBuy:
		err = e.applyTrade(ctx, ev, domain.TradeTypeBuy, ev.Buy)
	case domain.KindSell:
		err = e.applyTrade(ctx, ev, domain.TradeTypeSell, ev.Sell)
	case domain.KindLiquidityMigrated:
		err = e.handleLiquidityMigrated(ctx, ev)
	default:
		err = fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	if e.metrics != nil {
		kind := string(ev.Kind)
		e.metrics.HandlerLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			e.metrics.HandlerErrors.WithLabelValues(kind).Inc()
		} else {
			e.metrics.EventsProcessed.WithLabelValues(kind).Inc()
		}
	}

	return err
}

// window returns the rolling extremes window for a token, creating it lazily.
func (e *Engine) window(address string) *priceWindow {
	w, ok := e.windows[address]
	if !ok {
		w = &priceWindow{}
		e.windows[address] = w
	}
	return w
}

func (e *Engine) logf(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

func (e *Engine) skip(reason string) {
	if e.metrics != nil {
		e.metrics.EventsSkipped.WithLabelValues(reason).Inc()
	}
}

func (e *Engine) duplicate() {
	if e.metrics != nil {
		e.metrics.DuplicateEvents.Inc()
	}
}
