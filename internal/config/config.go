// Package config loads indexer configuration from a YAML file, with
// environment variable expansion for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"avax-launch-indexer/internal/curve"
)

type Config struct {
	Chain   ChainConfig   `yaml:"chain"`
	Engine  EngineConfig  `yaml:"engine"`
	Stores  StoresConfig  `yaml:"stores"`
	Dedupe  DedupeConfig  `yaml:"dedupe"`
	API     APIConfig     `yaml:"api"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type ChainConfig struct {
	// WSEndpoint is the Avalanche C-Chain websocket endpoint for log
	// subscriptions.
	WSEndpoint string `yaml:"ws_endpoint"`
	// RPCEndpoint is the HTTP JSON-RPC endpoint for metadata calls.
	RPCEndpoint string `yaml:"rpc_endpoint"`
	// FactoryAddress is the launchpad factory contract.
	FactoryAddress string `yaml:"factory_address"`
}

type EngineConfig struct {
	MigrationThreshold       float64 `yaml:"migration_threshold"`
	CloseToMigrationProgress float64 `yaml:"close_to_migration_progress"`
	DemoteOnSell             bool    `yaml:"demote_on_sell"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type ClickHouseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StoresConfig struct {
	// Backend selects the aggregate store implementation: memory|postgres.
	Backend    string           `yaml:"backend"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

type DedupeConfig struct {
	// Backend selects the duplicate check: none|memory|redis.
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

type APIConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads the config file, expands ${VAR} references from the environment
// and fills in defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config suitable for local development against in-memory
// stores.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Engine.MigrationThreshold <= 0 {
		c.Engine.MigrationThreshold = curve.DefaultMigrationThreshold
	}
	if c.Engine.CloseToMigrationProgress <= 0 {
		c.Engine.CloseToMigrationProgress = curve.CloseToMigrationProgress
	}
	if c.Stores.Backend == "" {
		c.Stores.Backend = "memory"
	}
	if c.Dedupe.Backend == "" {
		c.Dedupe.Backend = "memory"
	}
	if c.Dedupe.TTL <= 0 {
		c.Dedupe.TTL = 15 * time.Minute
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if c.API.ReadTimeout <= 0 {
		c.API.ReadTimeout = 10 * time.Second
	}
	if c.API.WriteTimeout <= 0 {
		c.API.WriteTimeout = 10 * time.Second
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Stores.Backend {
	case "memory":
	case "postgres":
		if c.Stores.Postgres.DSN == "" {
			return fmt.Errorf("stores.postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown stores backend %q", c.Stores.Backend)
	}

	switch c.Dedupe.Backend {
	case "none", "memory":
	case "redis":
		if c.Dedupe.Redis.Addr == "" {
			return fmt.Errorf("dedupe.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown dedupe backend %q", c.Dedupe.Backend)
	}

	return nil
}
