// Package main runs the live indexer: it subscribes to launchpad factory
// logs over websocket, decodes them and feeds them through the aggregation
// engine into the configured stores.
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
	"github.com/redis/go-redis/v9"

	"avax-launch-indexer/internal/chain"
	"avax-launch-indexer/internal/config"
	"avax-launch-indexer/internal/dedupe"
	"avax-launch-indexer/internal/engine"
	"avax-launch-indexer/internal/feed"
	"avax-launch-indexer/internal/observability"
	chstore "avax-launch-indexer/internal/storage/clickhouse"
	"avax-launch-indexer/internal/storage/memory"
	"avax-launch-indexer/internal/storage/migrations"
	pgstore "avax-launch-indexer/internal/storage/postgres"
)

func main() {
	// Best effort: missing .env just means plain environment.
	godotenv.Load()

	configPath := flag.String("config", os.Getenv("INDEXER_CONFIG"), "Path to YAML config file")
	wsEndpoint := flag.String("ws-endpoint", "", "Avalanche C-Chain websocket endpoint (overrides config)")
	rpcEndpoint := flag.String("rpc-endpoint", "", "Avalanche C-Chain HTTP RPC endpoint (overrides config)")
	factory := flag.String("factory", "", "Launchpad factory contract address (overrides config)")
	flag.Parse()

	logger := log.New(os.Stdout, "[indexer] ", log.LstdFlags|log.Lshortfile)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *wsEndpoint != "" {
		cfg.Chain.WSEndpoint = *wsEndpoint
	}
	if *rpcEndpoint != "" {
		cfg.Chain.RPCEndpoint = *rpcEndpoint
	}
	if *factory != "" {
		cfg.Chain.FactoryAddress = *factory
	}
	if cfg.Chain.WSEndpoint == "" {
		logger.Fatal("--ws-endpoint (or chain.ws_endpoint) is required")
	}
	if cfg.Chain.FactoryAddress == "" {
		logger.Fatal("--factory (or chain.factory_address) is required")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
		select {
		case <-sigCh:
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out, forcing exit")
			os.Exit(1)
		}
	}()

	metrics := observability.NewMetrics("")

	stores, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	deduper, dedupeCleanup, err := buildDeduper(cfg)
	if err != nil {
		logger.Fatalf("Failed to create deduper: %v", err)
	}
	defer dedupeCleanup()

	var metadata engine.MetadataSource
	if cfg.Chain.RPCEndpoint != "" {
		metadata, err = chain.NewRPCMetadataSource(cfg.Chain.RPCEndpoint)
		if err != nil {
			logger.Fatalf("Failed to create metadata source: %v", err)
		}
	}

	eng := engine.NewEngine(engine.Options{
		Stores: stores,
		Policy: engine.Policy{
			MigrationThreshold:       cfg.Engine.MigrationThreshold,
			CloseToMigrationProgress: cfg.Engine.CloseToMigrationProgress,
			DemoteOnSell:             cfg.Engine.DemoteOnSell,
		},
		Deduper:  deduper,
		Metadata: metadata,
		Metrics:  metrics,
		Logger:   logger,
	})

	source, err := feed.NewWSSource(cfg.Chain.WSEndpoint, cfg.Chain.FactoryAddress,
		feed.WithWSMetrics(metrics),
		feed.WithWSLogger(logger),
	)
	if err != nil {
		logger.Fatalf("Failed to create feed: %v", err)
	}
	defer source.Close()

	go serveMetrics(cfg.Metrics.Addr, logger)

	events, err := source.Events(ctx)
	if err != nil {
		logger.Fatalf("Failed to subscribe: %v", err)
	}
	logger.Printf("Indexing factory %s via %s", cfg.Chain.FactoryAddress, cfg.Chain.WSEndpoint)

	for {
		select {
		case <-ctx.Done():
			logger.Println("Shutdown complete")
			return
		case ev, ok := <-events:
			if !ok {
				logger.Println("Feed closed")
				return
			}
			if err := eng.HandleEvent(ctx, ev); err != nil {
				logger.Printf("Handle %s %s: %v", ev.Kind, ev.ID(), err)
			}
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// buildStores wires the aggregate stores for the configured backend. The
// postgres backend also runs migrations and puts snapshots in ClickHouse
// when a DSN is configured.
func buildStores(ctx context.Context, cfg *config.Config) (engine.Stores, func(), error) {
	if cfg.Stores.Backend == "memory" {
		return memoryStores(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Stores.Postgres.DSN)
	if err != nil {
		return engine.Stores{}, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return engine.Stores{}, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	stores := engine.Stores{
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
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Stores.ClickHouse.DSN)
		if err != nil {
			pool.Close()
			return engine.Stores{}, nil, fmt.Errorf("run clickhouse migrations: %w", err)
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

func memoryStores() engine.Stores {
	return engine.Stores{
		Tokens:    memory.NewTokenStore(),
		Events:    memory.NewBondingEventStore(),
		Positions: memory.NewPositionStore(),
		Activity:  memory.NewActivityStore(),
		Daily:     memory.NewDailyStatsStore(),
		Global:    memory.NewGlobalStatsStore(),
		Snapshots: memory.NewSnapshotStore(),
		Sessions:  memory.NewSessionStore(),
	}
}

func buildDeduper(cfg *config.Config) (dedupe.Deduper, func(), error) {
	switch cfg.Dedupe.Backend {
	case "none":
		return nil, func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Dedupe.Redis.Addr,
			Password: cfg.Dedupe.Redis.Password,
			DB:       cfg.Dedupe.Redis.DB,
		})
		return dedupe.NewRedisDeduper(client, "", cfg.Dedupe.TTL), func() { client.Close() }, nil
	default:
		d := dedupe.NewMemoryDeduper(cfg.Dedupe.TTL, cfg.Dedupe.TTL)
		return d, func() { d.Close() }, nil
	}
}

func serveMetrics(addr string, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	logger.Printf("Serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("Metrics server error: %v", err)
	}
}
