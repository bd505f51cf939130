// Package writer records poll cycle quotes to Postgres.
//
// Each snapshot becomes one row per market in quote_snapshots, keyed by
// (cycle_id, ticker). Writes are append-only and batched with pgx.Batch;
// a replayed cycle conflicts and is counted rather than rewritten.
package writer
