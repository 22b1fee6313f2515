package engine

import (
	"context"
	"errors"
	"fmt"

	"avax-launch-indexer/internal/curve"
	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// applyTrade handles a Buy or Sell event end to end: idempotency check,
// bonding event log append, token aggregate update, position tracking and
// rollups. The bonding event insert is the commit point: once a (tx hash,
// log index) is in the log, a redelivery of the same event is a no-op before
// any aggregate is touched.
func (e *Engine) applyTrade(ctx context.Context, ev *domain.Event, tt domain.TradeType, p *domain.TradePayload) error {
	if p == nil {
		return fmt.Errorf("%s event %s: missing payload", tt, ev.ID())
	}

	id := ev.ID()

	if e.deduper != nil {
		seen, err := e.deduper.Seen(ctx, id)
		if err != nil {
			// Deduper is best-effort; the event log below is authoritative.
			e.logf("dedupe check %s: %v", id, err)
		} else if seen {
			e.duplicate()
			return nil
		}
	}

	token, err := e.stores.Tokens.GetByTokenID(ctx, p.TokenID)
	if errors.Is(err, storage.ErrNotFound) {
		// Event for an untracked token. Delivery is not guaranteed gap-free,
		// so this is a deliberate skip, not a failure.
		e.logf("%s %s references unknown token id %d, skipping", tt, id, p.TokenID)
		e.skip("unknown_token")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load token id %d: %w", p.TokenID, err)
	}

	execPrice := curve.TradePrice(p.AvaxAmount, p.TokenAmount)

	var newRaised float64
	if tt == domain.TradeTypeBuy {
		newRaised = token.AvaxRaised + p.AvaxAmount
	} else {
		// Floored at zero: sell volume can nominally exceed buys under unit
		// drift, and the raise must never go negative.
		newRaised = token.AvaxRaised - p.AvaxAmount
		if newRaised < 0 {
			newRaised = 0
		}
	}

	progress := curve.Progress(newRaised, token.MigrationThreshold)
	curvePrice := curve.Price(newRaised, token.MigrationThreshold)

	be := &domain.BondingEvent{
		ID:               id,
		TxHash:           ev.TxHash,
		LogIndex:         ev.LogIndex,
		TokenAddress:     token.Address,
		User:             p.User,
		AvaxAmount:       p.AvaxAmount,
		TokenAmount:      p.TokenAmount,
		Price:            execPrice,
		ProtocolFee:      p.ProtocolFee,
		CreatorFee:       p.CreatorFee,
		ReferralFee:      p.ReferralFee,
		CumulativeRaised: newRaised,
		BondingProgress:  progress,
		TradeType:        tt,
		BlockNumber:      ev.BlockNumber,
		Timestamp:        ev.Timestamp,
	}

	if err := e.stores.Events.Insert(ctx, be); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			e.duplicate()
			return nil
		}
		return fmt.Errorf("append bonding event %s: %w", id, err)
	}

	token.AvaxRaised = newRaised
	token.BondingProgress = progress
	token.CurrentPrice = curvePrice
	token.MarketCap = curve.MarketCap(curvePrice, token.Supply)
	token.TotalVolume += p.AvaxAmount
	token.TradeCount++
	if tt == domain.TradeTypeBuy {
		token.BuyVolume += p.AvaxAmount
		token.BuyCount++
	} else {
		token.SellVolume += p.AvaxAmount
		token.SellCount++
	}
	token.LastTradeAt = ev.Timestamp
	token.UpdatedAt = ev.Timestamp

	e.advanceStatus(token, tt)

	windowPrice := execPrice
	if windowPrice <= 0 {
		windowPrice = curvePrice
	}
	w := e.window(token.Address)
	w.Observe(windowPrice, ev.Timestamp)
	if high, low, ok := w.Extremes(ev.Timestamp); ok {
		token.PriceHigh24h = high
		token.PriceLow24h = low
	}

	if err := e.stores.Tokens.Save(ctx, token); err != nil {
		return fmt.Errorf("save token %s: %w", token.Address, err)
	}

	realized, err := e.applyPosition(ctx, token, be, curvePrice)
	if err != nil {
		return err
	}

	if err := e.applyTradeRollups(ctx, be, realized, windowPrice); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.TradesIndexed.WithLabelValues(string(tt)).Inc()
	}
	return nil
}

// advanceStatus recomputes the migration status from progress. Buys only ever
// advance it. Sells may demote it when the DemoteOnSell policy is enabled,
// but MIGRATED is terminal either way.
func (e *Engine) advanceStatus(t *domain.TokenAggregate, tt domain.TradeType) {
	if t.Status == domain.StatusMigrated {
		return
	}

	next := e.statusForProgress(t.BondingProgress)

	if tt == domain.TradeTypeSell && !e.policy.DemoteOnSell {
		if statusRank(next) > statusRank(t.Status) {
			t.Status = next
		}
		return
	}
	t.Status = next
}

func (e *Engine) statusForProgress(progress float64) domain.MigrationStatus {
	switch {
	case progress >= 100:
		return domain.StatusMigrated
	case progress >= e.policy.CloseToMigrationProgress:
		return domain.StatusCloseToMigration
	default:
		return domain.StatusBonding
	}
}

func statusRank(s domain.MigrationStatus) int {
	switch s {
	case domain.StatusCloseToMigration:
		return 1
	case domain.StatusMigrated:
		return 2
	default:
		return 0
	}
}
