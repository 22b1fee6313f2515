package engine

import (
	"context"
	"errors"
	"fmt"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// balanceEpsilon absorbs float drift when deciding a position is fully
// closed. Balances below it are treated as zero.
const balanceEpsilon = 1e-9

// applyPosition folds one trade into the (user, token) position and returns
// the realized PnL of the trade (zero for buys). Cost basis is the weighted
// average of all buys to date; sells realize against it without changing it.
func (e *Engine) applyPosition(ctx context.Context, token *domain.TokenAggregate, be *domain.BondingEvent, curvePrice float64) (float64, error) {
	pos, err := e.stores.Positions.Get(ctx, be.User, token.Address)
	if errors.Is(err, storage.ErrNotFound) {
		pos = &domain.UserPosition{
			User:         be.User,
			TokenAddress: token.Address,
			FirstTradeAt: be.Timestamp,
		}
	} else if err != nil {
		return 0, fmt.Errorf("load position %s/%s: %w", be.User, token.Address, err)
	}

	var realized float64

	switch be.TradeType {
	case domain.TradeTypeBuy:
		pos.Balance += be.TokenAmount
		pos.TotalBought += be.TokenAmount
		pos.TotalBuyValue += be.AvaxAmount
		pos.BuyCount++
		if pos.TotalBought > 0 {
			pos.AvgBuyPrice = pos.TotalBuyValue / pos.TotalBought
		}
		pos.IsOpen = pos.Balance > balanceEpsilon

	case domain.TradeTypeSell:
		sold := be.TokenAmount
		value := be.AvaxAmount
		if sold > pos.Balance {
			// A sell larger than the tracked balance means we missed earlier
			// buys. Clamp to the balance and scale the proceeds so the
			// realized figure stays proportionate to what we tracked.
			if sold > 0 {
				value = value * pos.Balance / sold
			}
			sold = pos.Balance
		}

		realized = value - pos.AvgBuyPrice*sold

		pos.Balance -= sold
		pos.TotalSold += sold
		pos.TotalSellValue += value
		pos.SellCount++
		if pos.TotalSold > 0 {
			pos.AvgSellPrice = pos.TotalSellValue / pos.TotalSold
		}
		pos.RealizedPnL += realized

		if pos.Balance <= balanceEpsilon {
			pos.Balance = 0
			if pos.IsOpen {
				pos.IsOpen = false
				if e.metrics != nil {
					e.metrics.PositionsClosed.Inc()
				}
			}
		}
	}

	if pos.IsOpen {
		pos.UnrealizedPnL = (curvePrice - pos.AvgBuyPrice) * pos.Balance
	} else {
		pos.UnrealizedPnL = 0
	}

	pos.LastTradeAt = be.Timestamp
	pos.UpdatedAt = be.Timestamp

	if err := e.stores.Positions.Save(ctx, pos); err != nil {
		return 0, fmt.Errorf("save position %s/%s: %w", be.User, token.Address, err)
	}
	return realized, nil
}
