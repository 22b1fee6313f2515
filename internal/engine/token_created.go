package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"avax-launch-indexer/internal/chain"
	"avax-launch-indexer/internal/curve"
	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// handleTokenCreated creates the token aggregate and registers the
// tokenId → address lookup. A token whose factory params report liquidity
// already deployed at creation starts directly in MIGRATED.
func (e *Engine) handleTokenCreated(ctx context.Context, ev *domain.Event) error {
	p := ev.TokenCreated
	if p == nil || p.TokenContractAddress == "" {
		return fmt.Errorf("token created event %s: missing payload", ev.ID())
	}

	address := strings.ToLower(p.TokenContractAddress)
	meta := e.lookupMetadata(ctx, address)

	supply := p.Supply
	if supply == 0 {
		supply = meta.TotalSupply
	}

	status := domain.StatusBonding
	progress := 0.0
	raised := 0.0
	if p.LPDeployed {
		status = domain.StatusMigrated
		progress = 100
		raised = e.policy.MigrationThreshold
	}
	price := curve.Price(raised, e.policy.MigrationThreshold)

	token := &domain.TokenAggregate{
		Address:            address,
		TokenID:            p.TokenID,
		Creator:            strings.ToLower(p.CreatorAddress),
		PairAddress:        strings.ToLower(p.PairAddress),
		Name:               meta.Name,
		Symbol:             meta.Symbol,
		Decimals:           meta.Decimals,
		Supply:             supply,
		AvaxRaised:         raised,
		MigrationThreshold: e.policy.MigrationThreshold,
		BondingProgress:    progress,
		Status:             status,
		CurrentPrice:       price,
		MarketCap:          curve.MarketCap(price, supply),
		CreatedAt:          ev.Timestamp,
		UpdatedAt:          ev.Timestamp,
	}
	if p.LPDeployed {
		// Migrated at birth. A nonzero MigratedAt also marks the token as
		// already counted in the migration rollups.
		token.MigratedAt = ev.Timestamp
	}

	if err := e.stores.Tokens.Create(ctx, token); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Redelivered creation event.
			e.duplicate()
			return nil
		}
		return fmt.Errorf("create token %s: %w", address, err)
	}

	if e.metrics != nil {
		e.metrics.TokensCreated.Inc()
	}

	return e.applyTokenCreatedRollups(ctx, ev.Timestamp, p.LPDeployed)
}

// lookupMetadata resolves token metadata, degrading to a synthesized
// name/symbol when the source is missing or the lookup fails outright.
// Reverted calls are already handled inside the source.
func (e *Engine) lookupMetadata(ctx context.Context, address string) chain.TokenMetadata {
	if e.meta == nil {
		return chain.SynthesizeMetadata(address)
	}
	meta, err := e.meta.TokenMetadata(ctx, address)
	if err != nil {
		e.logf("metadata lookup %s failed, using synthesized fallback: %v", address, err)
		return chain.SynthesizeMetadata(address)
	}
	return meta
}
