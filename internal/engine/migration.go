package engine

import (
	"context"
	"errors"
	"fmt"

	"avax-launch-indexer/internal/curve"
	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// handleLiquidityMigrated forces the token into its terminal state. The
// migration payload carries no tx hash, so redelivery is detected through
// MigratedAt: status alone cannot distinguish a redelivered migration from
// the first one, because the threshold-crossing buy already advances status
// to MIGRATED before this event arrives.
func (e *Engine) handleLiquidityMigrated(ctx context.Context, ev *domain.Event) error {
	p := ev.LiquidityMigrated
	if p == nil {
		return fmt.Errorf("liquidity migrated event %s: missing payload", ev.ID())
	}

	token, err := e.stores.Tokens.GetByTokenID(ctx, p.TokenID)
	if errors.Is(err, storage.ErrNotFound) {
		e.logf("migration %s references unknown token id %d, skipping", ev.ID(), p.TokenID)
		e.skip("unknown_token")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load token id %d: %w", p.TokenID, err)
	}

	alreadyMigrated := token.MigratedAt != 0

	token.Status = domain.StatusMigrated
	token.BondingProgress = 100
	if token.AvaxRaised < token.MigrationThreshold {
		token.AvaxRaised = token.MigrationThreshold
	}
	token.CurrentPrice = curve.Price(token.AvaxRaised, token.MigrationThreshold)
	token.MarketCap = curve.MarketCap(token.CurrentPrice, token.Supply)
	token.LiquidityOnMigration = p.AmountDeployed
	if token.MigratedAt == 0 {
		token.MigratedAt = ev.Timestamp
	}
	token.UpdatedAt = ev.Timestamp

	if err := e.stores.Tokens.Save(ctx, token); err != nil {
		return fmt.Errorf("save token %s: %w", token.Address, err)
	}

	// The token left the curve; its rolling extremes window is dead weight.
	delete(e.windows, token.Address)

	if alreadyMigrated {
		e.duplicate()
		return nil
	}

	if e.metrics != nil {
		e.metrics.TokensMigrated.Inc()
	}

	return e.applyMigrationRollups(ctx, ev.Timestamp, p.AmountDeployed)
}
