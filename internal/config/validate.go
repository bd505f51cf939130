package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

// Validate checks that all required fields are set and values are valid.
func (c *TerminalConfig) Validate() error {
	u, err := url.Parse(c.API.RestURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.rest_url must be an absolute URL, got %q", c.API.RestURL)
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if c.Titles.Concurrency < 1 {
		return errors.New("titles.concurrency must be >= 1")
	}

	if c.Normalize.WideSpreadCents < 1 || c.Normalize.WideSpreadCents > 100 {
		return fmt.Errorf("normalize.wide_spread_cents must be between 1 and 100, got %d", c.Normalize.WideSpreadCents)
	}
	if c.Normalize.IlliquidSpreadCents < 1 || c.Normalize.IlliquidSpreadCents > 100 {
		return fmt.Errorf("normalize.illiquid_spread_cents must be between 1 and 100, got %d", c.Normalize.IlliquidSpreadCents)
	}
	for _, m := range c.Normalize.ComboMarkers {
		if m == "" {
			return errors.New("normalize.combo_markers must not contain empty markers")
		}
	}

	if c.Browse.DefaultLimit < 1 || c.Browse.GroupedLimit < 1 || c.Browse.EventMarketsLimit < 1 {
		return errors.New("browse limits must be >= 1")
	}
	if c.Browse.CandleWindowDays < 1 {
		return errors.New("browse.candle_window_days must be >= 1")
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	if c.Stream.ClientBuffer < 1 {
		return errors.New("stream.client_buffer must be >= 1")
	}

	if c.Poller.Concurrency < 1 {
		return errors.New("poller.concurrency must be >= 1")
	}

	if c.Recorder.Enabled {
		if !c.Poller.Enabled {
			return errors.New("recorder.enabled requires poller.enabled")
		}
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
		if c.Recorder.BatchSize < 1 {
			return errors.New("recorder.batch_size must be >= 1")
		}
		if c.Recorder.BufferSize < 1 {
			return errors.New("recorder.buffer_size must be >= 1")
		}
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
