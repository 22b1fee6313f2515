// Package main runs the read-only HTTP API over the aggregate stores. It
// shares a database with the indexer but never writes: the engine is the
// single writer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"avax-launch-indexer/internal/api"
	"avax-launch-indexer/internal/config"
	"avax-launch-indexer/internal/observability"
	chstore "avax-launch-indexer/internal/storage/clickhouse"
	"avax-launch-indexer/internal/storage/memory"
	pgstore "avax-launch-indexer/internal/storage/postgres"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", os.Getenv("INDEXER_CONFIG"), "Path to YAML config file")
	addr := flag.String("addr", "", "API listen address (overrides config)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.API.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      api.NewServer(stores, logger).Handler(),
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		logger.Printf("Serving metrics on %s", cfg.Metrics.Addr)
		if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Printf("Metrics server error: %v", err)
		}
	}()

	go func() {
		logger.Printf("Serving API on %s", cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("API server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Printf("Received signal %v, shutting down...", sig)

	go func() {
		<-sigCh
		os.Exit(1)
	}()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Shutdown error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// buildStores opens the read side of the configured backend. No migrations
// run here; the indexer owns the schema.
func buildStores(ctx context.Context, cfg *config.Config) (api.Stores, func(), error) {
	if cfg.Stores.Backend == "memory" {
		return api.Stores{
			Tokens:    memory.NewTokenStore(),
			Events:    memory.NewBondingEventStore(),
			Positions: memory.NewPositionStore(),
			Activity:  memory.NewActivityStore(),
			Daily:     memory.NewDailyStatsStore(),
			Global:    memory.NewGlobalStatsStore(),
			Snapshots: memory.NewSnapshotStore(),
			Sessions:  memory.NewSessionStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Stores.Postgres.DSN)
	if err != nil {
		return api.Stores{}, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	stores := api.Stores{
		Tokens:    pgstore.NewTokenStore(pool),
		Events:    pgstore.NewBondingEventStore(pool),
		Positions: pgstore.NewPositionStore(pool),
		Activity:  pgstore.NewActivityStore(pool),
		Daily:     pgstore.NewDailyStatsStore(pool),
		Global:    pgstore.NewGlobalStatsStore(pool),
		Sessions:  pgstore.NewSessionStore(pool),
	}
	cleanup := func() { pool.Close() }

	if cfg.Stores.ClickHouse.DSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.Stores.ClickHouse.DSN)
		if err != nil {
			pool.Close()
			return api.Stores{}, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		stores.Snapshots = chstore.NewSnapshotStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	} else {
		stores.Snapshots = memory.NewSnapshotStore()
	}

	return stores, cleanup, nil
}
