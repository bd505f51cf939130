package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/market-terminal/internal/config"
)

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Schema creates the quote_snapshots table. Rows are keyed by poll cycle
// and ticker so replays of a cycle insert nothing.
const Schema = `
CREATE TABLE IF NOT EXISTS quote_snapshots (
	cycle_id        UUID        NOT NULL,
	ticker          TEXT        NOT NULL,
	event_ticker    TEXT,
	taken_at        TIMESTAMPTZ NOT NULL,
	yes_bid         SMALLINT,
	yes_ask         SMALLINT,
	no_bid          SMALLINT,
	no_ask          SMALLINT,
	last_price      SMALLINT,
	chance          SMALLINT,
	spread          SMALLINT,
	has_wide_spread BOOLEAN     NOT NULL,
	volume_24h      BIGINT,
	open_interest   BIGINT,
	PRIMARY KEY (cycle_id, ticker)
);
CREATE INDEX IF NOT EXISTS quote_snapshots_ticker_taken_at
	ON quote_snapshots (ticker, taken_at DESC);
`

// EnsureSchema applies Schema.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
