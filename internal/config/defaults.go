package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL             = "https://api.elections.kalshi.com/trade-api/v2"
	DefaultAPITimeout          = 30 * time.Second
	DefaultRetryBackoff        = 1 * time.Second
	DefaultTitleTimeout        = 5 * time.Second
	DefaultTitleConcurrency    = 8
	DefaultTitleCacheTTL       = 6 * time.Hour
	DefaultWideSpreadCents     = 20
	DefaultIlliquidSpreadCents = 20
	DefaultComboMarker         = "MULTIGAME"
	DefaultStatus              = "open"
	DefaultLimit               = 24
	DefaultGroupedLimit        = 100
	DefaultEventMarketsLimit   = 100
	DefaultMVEFilter           = "exclude"
	DefaultCandleWindowDays    = 30
	DefaultServerAddr          = ":8080"
	DefaultReadTimeout         = 10 * time.Second
	DefaultWriteTimeout        = 30 * time.Second
	DefaultShutdownTimeout     = 10 * time.Second
	DefaultPingInterval        = 15 * time.Second
	DefaultStreamWriteTimeout  = 10 * time.Second
	DefaultClientBuffer        = 16
	DefaultPollInterval        = 30 * time.Second
	DefaultPollConcurrency     = 10
	DefaultDBPort              = 5432
	DefaultDBSSLMode           = "prefer"
	DefaultMaxConns            = 10
	DefaultMinConns            = 2
	DefaultBatchSize           = 1000
	DefaultFlushInterval       = 1 * time.Second
	DefaultBufferSize          = 10000
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
)

func (c *TerminalConfig) applyDefaults() {
	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}

	// Titles defaults
	if c.Titles.Timeout == 0 {
		c.Titles.Timeout = DefaultTitleTimeout
	}
	if c.Titles.Concurrency == 0 {
		c.Titles.Concurrency = DefaultTitleConcurrency
	}
	if c.Titles.CacheTTL == 0 {
		c.Titles.CacheTTL = DefaultTitleCacheTTL
	}

	// Normalize defaults
	if c.Normalize.WideSpreadCents == 0 {
		c.Normalize.WideSpreadCents = DefaultWideSpreadCents
	}
	if c.Normalize.IlliquidSpreadCents == 0 {
		c.Normalize.IlliquidSpreadCents = DefaultIlliquidSpreadCents
	}
	if len(c.Normalize.ComboMarkers) == 0 {
		c.Normalize.ComboMarkers = []string{DefaultComboMarker}
	}

	// Browse defaults
	if c.Browse.DefaultStatus == "" {
		c.Browse.DefaultStatus = DefaultStatus
	}
	if c.Browse.DefaultLimit == 0 {
		c.Browse.DefaultLimit = DefaultLimit
	}
	if c.Browse.GroupedLimit == 0 {
		c.Browse.GroupedLimit = DefaultGroupedLimit
	}
	if c.Browse.EventMarketsLimit == 0 {
		c.Browse.EventMarketsLimit = DefaultEventMarketsLimit
	}
	if c.Browse.MVEFilter == "" {
		c.Browse.MVEFilter = DefaultMVEFilter
	}
	if c.Browse.CandleWindowDays == 0 {
		c.Browse.CandleWindowDays = DefaultCandleWindowDays
	}

	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Stream defaults
	if c.Stream.PingInterval == 0 {
		c.Stream.PingInterval = DefaultPingInterval
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = DefaultStreamWriteTimeout
	}
	if c.Stream.ClientBuffer == 0 {
		c.Stream.ClientBuffer = DefaultClientBuffer
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.Concurrency == 0 {
		c.Poller.Concurrency = DefaultPollConcurrency
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Recorder defaults
	if c.Recorder.BatchSize == 0 {
		c.Recorder.BatchSize = DefaultBatchSize
	}
	if c.Recorder.FlushInterval == 0 {
		c.Recorder.FlushInterval = DefaultFlushInterval
	}
	if c.Recorder.BufferSize == 0 {
		c.Recorder.BufferSize = DefaultBufferSize
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
