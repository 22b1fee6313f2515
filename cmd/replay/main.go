// Package main replays the persisted bonding event log through a fresh
// engine into in-memory stores and compares the rebuilt rollups against the
// stored ones. Derived state is a pure function of the event log, so any
// difference points at drift in the live aggregates.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"avax-launch-indexer/internal/config"
	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/engine"
	"avax-launch-indexer/internal/feed"
	"avax-launch-indexer/internal/storage"
	"avax-launch-indexer/internal/storage/memory"
	pgstore "avax-launch-indexer/internal/storage/postgres"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", os.Getenv("INDEXER_CONFIG"), "Path to YAML config file")
	verify := flag.Bool("verify", true, "Compare rebuilt global stats against stored ones")
	flag.Parse()

	logger := log.New(os.Stdout, "[replay] ", log.LstdFlags|log.Lshortfile)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Stores.Backend != "postgres" {
		logger.Fatal("Replay needs a persistent backend; set stores.backend to postgres")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Println("Interrupted")
		cancel()
	}()

	pool, err := pgstore.NewPool(ctx, cfg.Stores.Postgres.DSN)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	tokens := pgstore.NewTokenStore(pool)
	events := pgstore.NewBondingEventStore(pool)
	storedGlobal := pgstore.NewGlobalStatsStore(pool)

	rebuilt := engine.Stores{
		Tokens:    memory.NewTokenStore(),
		Events:    memory.NewBondingEventStore(),
		Positions: memory.NewPositionStore(),
		Activity:  memory.NewActivityStore(),
		Daily:     memory.NewDailyStatsStore(),
		Global:    memory.NewGlobalStatsStore(),
		Snapshots: memory.NewSnapshotStore(),
		Sessions:  memory.NewSessionStore(),
	}

	eng := engine.NewEngine(engine.Options{
		Stores: rebuilt,
		Policy: engine.Policy{
			MigrationThreshold:       cfg.Engine.MigrationThreshold,
			CloseToMigrationProgress: cfg.Engine.CloseToMigrationProgress,
			DemoteOnSell:             cfg.Engine.DemoteOnSell,
		},
		Logger: logger,
	})

	source := feed.NewReplaySource(tokens, events)
	defer source.Close()

	stream, err := source.Events(ctx)
	if err != nil {
		logger.Fatalf("Failed to start replay: %v", err)
	}

	var processed, failed int
	for ev := range stream {
		if err := eng.HandleEvent(ctx, ev); err != nil {
			failed++
			logger.Printf("Handle %s %s: %v", ev.Kind, ev.ID(), err)
			continue
		}
		processed++
		if processed%10000 == 0 {
			logger.Printf("Replayed %d events", processed)
		}
	}

	logger.Printf("Replay done: %d events applied, %d failed", processed, failed)

	if !*verify {
		return
	}
	if err := compareGlobal(ctx, storedGlobal, rebuilt.Global, logger); err != nil {
		logger.Fatalf("Verification failed: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func compareGlobal(ctx context.Context, stored, rebuilt storage.GlobalStatsStore, logger *log.Logger) error {
	want, err := loadGlobal(ctx, stored)
	if err != nil {
		return fmt.Errorf("load stored global stats: %w", err)
	}
	got, err := loadGlobal(ctx, rebuilt)
	if err != nil {
		return fmt.Errorf("load rebuilt global stats: %w", err)
	}

	mismatches := 0
	check := func(field string, stored, rebuilt interface{}) {
		if stored != rebuilt {
			mismatches++
			logger.Printf("MISMATCH %s: stored=%v rebuilt=%v", field, stored, rebuilt)
		}
	}
	check("total_tokens", want.TotalTokens, got.TotalTokens)
	check("active_tokens", want.ActiveTokens, got.ActiveTokens)
	check("migrated_tokens", want.MigratedTokens, got.MigratedTokens)
	check("total_trades", want.TotalTrades, got.TotalTrades)
	check("buy_count", want.BuyCount, got.BuyCount)
	check("sell_count", want.SellCount, got.SellCount)
	check("total_volume", want.TotalVolume, got.TotalVolume)
	check("buy_volume", want.BuyVolume, got.BuyVolume)
	check("sell_volume", want.SellVolume, got.SellVolume)
	check("protocol_fees", want.ProtocolFees, got.ProtocolFees)
	check("creator_fees", want.CreatorFees, got.CreatorFees)
	check("referral_fees", want.ReferralFees, got.ReferralFees)
	check("total_liquidity_deployed", want.TotalLiquidityDeployed, got.TotalLiquidityDeployed)

	if mismatches > 0 {
		return fmt.Errorf("%d fields differ", mismatches)
	}
	logger.Println("Rebuilt global stats match stored ones")
	return nil
}

func loadGlobal(ctx context.Context, store storage.GlobalStatsStore) (*domain.GlobalStats, error) {
	stats, err := store.Get(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.GlobalStats{}, nil
	}
	return stats, err
}
