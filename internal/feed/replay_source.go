package feed

import (
	"context"
	"fmt"
	"sort"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// ReplaySource re-emits persisted state as an ordered event stream: one
// synthesized TokenCreated per known token, then the full bonding event log
// in chain order, then one synthesized LiquidityMigrated per migrated token.
// Feeding it through a fresh engine rebuilds every derived aggregate
// deterministically.
type ReplaySource struct {
	tokens storage.TokenStore
	events storage.BondingEventStore

	ch     chan *domain.Event
	cancel context.CancelFunc
}

// NewReplaySource creates a replay source over the given stores.
func NewReplaySource(tokens storage.TokenStore, events storage.BondingEventStore) *ReplaySource {
	return &ReplaySource{
		tokens: tokens,
		events: events,
		ch:     make(chan *domain.Event),
	}
}

// Compile-time interface check.
var _ Source = (*ReplaySource)(nil)

// Events starts emission and returns the channel. The channel closes when the
// log is exhausted.
func (s *ReplaySource) Events(ctx context.Context) (<-chan *domain.Event, error) {
	tokens, err := s.listTokens(ctx)
	if err != nil {
		return nil, err
	}

	log, err := s.events.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bonding events: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.emit(runCtx, tokens, log)
	return s.ch, nil
}

// Close stops emission.
func (s *ReplaySource) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// listTokens gathers every known token across all statuses, ordered by
// creation time so replayed creations match original order.
func (s *ReplaySource) listTokens(ctx context.Context) ([]*domain.TokenAggregate, error) {
	statuses := []domain.MigrationStatus{
		domain.StatusBonding,
		domain.StatusCloseToMigration,
		domain.StatusMigrated,
	}

	var tokens []*domain.TokenAggregate
	for _, status := range statuses {
		batch, err := s.tokens.ListByStatus(ctx, status, 0)
		if err != nil {
			return nil, fmt.Errorf("list tokens with status %s: %w", status, err)
		}
		tokens = append(tokens, batch...)
	}

	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].CreatedAt != tokens[j].CreatedAt {
			return tokens[i].CreatedAt < tokens[j].CreatedAt
		}
		return tokens[i].TokenID < tokens[j].TokenID
	})
	return tokens, nil
}

func (s *ReplaySource) emit(ctx context.Context, tokens []*domain.TokenAggregate, log []*domain.BondingEvent) {
	defer close(s.ch)

	byAddress := make(map[string]uint64, len(tokens))
	for _, t := range tokens {
		byAddress[t.Address] = t.TokenID

		ev := &domain.Event{
			Kind:      domain.KindTokenCreated,
			TxHash:    fmt.Sprintf("replay-create-%d", t.TokenID),
			Timestamp: t.CreatedAt,
			TokenCreated: &domain.TokenCreatedPayload{
				TokenID:              t.TokenID,
				CreatorAddress:       t.Creator,
				TokenContractAddress: t.Address,
				PairAddress:          t.PairAddress,
				Supply:               t.Supply,
				Decimals:             t.Decimals,
			},
		}
		if !s.send(ctx, ev) {
			return
		}
	}

	for _, be := range log {
		tokenID, ok := byAddress[be.TokenAddress]
		if !ok {
			// Event for a token that no longer has an aggregate row. The
			// engine would skip it anyway; drop it here.
			continue
		}

		payload := &domain.TradePayload{
			TokenID:     tokenID,
			User:        be.User,
			AvaxAmount:  be.AvaxAmount,
			TokenAmount: be.TokenAmount,
			ProtocolFee: be.ProtocolFee,
			CreatorFee:  be.CreatorFee,
			ReferralFee: be.ReferralFee,
		}

		ev := &domain.Event{
			BlockNumber: be.BlockNumber,
			TxHash:      be.TxHash,
			LogIndex:    be.LogIndex,
			Timestamp:   be.Timestamp,
		}
		if be.TradeType == domain.TradeTypeBuy {
			ev.Kind = domain.KindBuy
			ev.Buy = payload
		} else {
			ev.Kind = domain.KindSell
			ev.Sell = payload
		}

		if !s.send(ctx, ev) {
			return
		}
	}

	for _, t := range tokens {
		if t.Status != domain.StatusMigrated {
			continue
		}
		ev := &domain.Event{
			Kind:      domain.KindLiquidityMigrated,
			TxHash:    fmt.Sprintf("replay-migrate-%d", t.TokenID),
			Timestamp: t.MigratedAt,
			LiquidityMigrated: &domain.LiquidityMigratedPayload{
				TokenID:        t.TokenID,
				AmountDeployed: t.LiquidityOnMigration,
			},
		}
		if !s.send(ctx, ev) {
			return
		}
	}
}

func (s *ReplaySource) send(ctx context.Context, ev *domain.Event) bool {
	select {
	case s.ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
