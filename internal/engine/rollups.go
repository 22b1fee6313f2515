package engine

import (
	"context"
	"errors"
	"fmt"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

func (e *Engine) loadDaily(ctx context.Context, date string) (*domain.DailyStats, error) {
	daily, err := e.stores.Daily.Get(ctx, date)
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.DailyStats{Date: date}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load daily stats %s: %w", date, err)
	}
	return daily, nil
}

func (e *Engine) loadGlobal(ctx context.Context) (*domain.GlobalStats, error) {
	global, err := e.stores.Global.Get(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.GlobalStats{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load global stats: %w", err)
	}
	return global, nil
}

// applyTokenCreatedRollups counts a new token into the daily and global
// rollups. A token born with liquidity already deployed counts as migrated
// immediately instead of active.
func (e *Engine) applyTokenCreatedRollups(ctx context.Context, ts int64, lpDeployed bool) error {
	date := domain.DayKey(ts)

	daily, err := e.loadDaily(ctx, date)
	if err != nil {
		return err
	}
	daily.NewTokens++
	if lpDeployed {
		daily.TokensMigrated++
	}
	daily.UpdatedAt = ts
	if err := e.stores.Daily.Save(ctx, daily); err != nil {
		return fmt.Errorf("save daily stats %s: %w", date, err)
	}

	global, err := e.loadGlobal(ctx)
	if err != nil {
		return err
	}
	global.TotalTokens++
	if lpDeployed {
		global.MigratedTokens++
	} else {
		global.ActiveTokens++
	}
	global.UpdatedAt = ts
	if err := e.stores.Global.Save(ctx, global); err != nil {
		return fmt.Errorf("save global stats: %w", err)
	}
	return nil
}

// applyMigrationRollups moves one token from active to migrated in the
// rollups. Called at most once per token, guarded by the MigratedAt check in
// handleLiquidityMigrated.
func (e *Engine) applyMigrationRollups(ctx context.Context, ts int64, amountDeployed float64) error {
	date := domain.DayKey(ts)

	daily, err := e.loadDaily(ctx, date)
	if err != nil {
		return err
	}
	daily.TokensMigrated++
	daily.UpdatedAt = ts
	if err := e.stores.Daily.Save(ctx, daily); err != nil {
		return fmt.Errorf("save daily stats %s: %w", date, err)
	}

	global, err := e.loadGlobal(ctx)
	if err != nil {
		return err
	}
	global.MigratedTokens++
	if global.ActiveTokens > 0 {
		global.ActiveTokens--
	}
	global.TotalLiquidityDeployed += amountDeployed
	global.UpdatedAt = ts
	if err := e.stores.Global.Save(ctx, global); err != nil {
		return fmt.Errorf("save global stats: %w", err)
	}
	return nil
}

// applyTradeRollups folds one trade into the daily, global, per-user and
// per-hour rollups. The realized figure comes from the position layer and is
// nonzero only for sells.
func (e *Engine) applyTradeRollups(ctx context.Context, be *domain.BondingEvent, realized, price float64) error {
	fees := be.ProtocolFee + be.CreatorFee + be.ReferralFee
	isBuy := be.TradeType == domain.TradeTypeBuy

	if err := e.rollupDaily(ctx, be, realized, isBuy); err != nil {
		return err
	}
	if err := e.rollupGlobal(ctx, be, isBuy); err != nil {
		return err
	}
	if err := e.rollupActivity(ctx, be, realized, fees, isBuy); err != nil {
		return err
	}
	if err := e.rollupSession(ctx, be, realized, fees, isBuy); err != nil {
		return err
	}
	return e.rollupSnapshot(ctx, be, price)
}

func (e *Engine) rollupDaily(ctx context.Context, be *domain.BondingEvent, realized float64, isBuy bool) error {
	date := domain.DayKey(be.Timestamp)
	daily, err := e.loadDaily(ctx, date)
	if err != nil {
		return err
	}

	daily.TotalTrades++
	daily.TotalVolume += be.AvaxAmount
	if isBuy {
		daily.BuyCount++
		daily.BuyVolume += be.AvaxAmount
	} else {
		daily.SellCount++
		daily.SellVolume += be.AvaxAmount
	}
	daily.ProtocolFees += be.ProtocolFee
	daily.CreatorFees += be.CreatorFee
	daily.ReferralFees += be.ReferralFee

	// Only sells realize PnL. The empty user field marks "no candidate yet",
	// so the first realized sell of the day seeds both extremes.
	if !isBuy {
		if daily.BestTradeUser == "" || realized > daily.BestTradePnL {
			daily.BestTradePnL = realized
			daily.BestTradeUser = be.User
		}
		if daily.WorstTradeUser == "" || realized < daily.WorstTradePnL {
			daily.WorstTradePnL = realized
			daily.WorstTradeUser = be.User
		}
	}

	daily.UpdatedAt = be.Timestamp
	if err := e.stores.Daily.Save(ctx, daily); err != nil {
		return fmt.Errorf("save daily stats %s: %w", date, err)
	}
	return nil
}

func (e *Engine) rollupGlobal(ctx context.Context, be *domain.BondingEvent, isBuy bool) error {
	global, err := e.loadGlobal(ctx)
	if err != nil {
		return err
	}

	global.TotalTrades++
	global.TotalVolume += be.AvaxAmount
	if isBuy {
		global.BuyCount++
		global.BuyVolume += be.AvaxAmount
	} else {
		global.SellCount++
		global.SellVolume += be.AvaxAmount
	}
	global.ProtocolFees += be.ProtocolFee
	global.CreatorFees += be.CreatorFee
	global.ReferralFees += be.ReferralFee
	global.UpdatedAt = be.Timestamp

	if err := e.stores.Global.Save(ctx, global); err != nil {
		return fmt.Errorf("save global stats: %w", err)
	}
	return nil
}

func (e *Engine) rollupActivity(ctx context.Context, be *domain.BondingEvent, realized, fees float64, isBuy bool) error {
	act, err := e.stores.Activity.Get(ctx, be.User)
	if errors.Is(err, storage.ErrNotFound) {
		act = &domain.UserActivity{User: be.User, FirstTradeAt: be.Timestamp}
	} else if err != nil {
		return fmt.Errorf("load activity %s: %w", be.User, err)
	}

	act.TotalTrades++
	act.TotalVolume += be.AvaxAmount
	act.TotalFees += fees
	if isBuy {
		act.BuyCount++
		act.TotalInvested += be.AvaxAmount
	} else {
		act.SellCount++
		act.TotalReturned += be.AvaxAmount
		act.RealizedPnL += realized
		// Breakeven sells count as neither a win nor a loss.
		if realized > 0 {
			act.WinningTrades++
		} else if realized < 0 {
			act.LosingTrades++
		}
	}
	if act.TotalInvested > 0 {
		act.PortfolioROI = act.RealizedPnL / act.TotalInvested
	}
	act.LastTradeAt = be.Timestamp
	act.UpdatedAt = be.Timestamp

	if err := e.stores.Activity.Save(ctx, act); err != nil {
		return fmt.Errorf("save activity %s: %w", be.User, err)
	}
	return nil
}

func (e *Engine) rollupSession(ctx context.Context, be *domain.BondingEvent, realized, fees float64, isBuy bool) error {
	date := domain.DayKey(be.Timestamp)
	sess, err := e.stores.Sessions.Get(ctx, be.User, date)
	if errors.Is(err, storage.ErrNotFound) {
		sess = &domain.UserTradingSession{User: be.User, Date: date}
	} else if err != nil {
		return fmt.Errorf("load session %s/%s: %w", be.User, date, err)
	}

	sess.Trades++
	sess.Volume += be.AvaxAmount
	sess.Fees += fees
	if isBuy {
		sess.BuyCount++
	} else {
		sess.SellCount++
		sess.RealizedPnL += realized
		if sess.SellCount == 1 || realized > sess.BestTradePnL {
			sess.BestTradePnL = realized
		}
		if sess.SellCount == 1 || realized < sess.WorstTradePnL {
			sess.WorstTradePnL = realized
		}
	}
	sess.UpdatedAt = be.Timestamp

	if err := e.stores.Sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session %s/%s: %w", be.User, date, err)
	}
	return nil
}

func (e *Engine) rollupSnapshot(ctx context.Context, be *domain.BondingEvent, price float64) error {
	bucket := domain.HourBucket(be.Timestamp)
	snap, err := e.stores.Snapshots.Get(ctx, be.TokenAddress, bucket)
	if errors.Is(err, storage.ErrNotFound) {
		snap = &domain.PriceSnapshot{
			TokenAddress: be.TokenAddress,
			HourBucket:   bucket,
			Open:         price,
			High:         price,
			Low:          price,
		}
	} else if err != nil {
		return fmt.Errorf("load snapshot %s@%d: %w", be.TokenAddress, bucket, err)
	}

	snap.Price = price
	if price > snap.High {
		snap.High = price
	}
	if price < snap.Low {
		snap.Low = price
	}
	snap.Volume += be.AvaxAmount
	snap.TradeCount++
	snap.UpdatedAt = be.Timestamp

	if err := e.stores.Snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot %s@%d: %w", be.TokenAddress, bucket, err)
	}
	return nil
}
