package config

import "time"

// TerminalConfig is the root configuration for the terminal backend.
type TerminalConfig struct {
	API       APIConfig       `yaml:"api"`
	Titles    TitlesConfig    `yaml:"titles"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Browse    BrowseConfig    `yaml:"browse"`
	Server    ServerConfig    `yaml:"server"`
	Stream    StreamConfig    `yaml:"stream"`
	Poller    PollerConfig    `yaml:"poller"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Log       LogConfig       `yaml:"log"`
}

// APIConfig holds Kalshi REST API settings. Retries are off unless
// max_retries is set.
type APIConfig struct {
	RestURL      string        `yaml:"rest_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// TitlesConfig holds event/series title lookup settings.
type TitlesConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// NormalizeConfig holds the pricing heuristics and combo detection tokens.
type NormalizeConfig struct {
	WideSpreadCents     int      `yaml:"wide_spread_cents"`
	IlliquidSpreadCents int      `yaml:"illiquid_spread_cents"`
	ComboMarkers        []string `yaml:"combo_markers"`
}

// BrowseConfig holds listing defaults.
type BrowseConfig struct {
	DefaultStatus     string `yaml:"default_status"`
	DefaultLimit      int    `yaml:"default_limit"`
	GroupedLimit      int    `yaml:"grouped_limit"`
	EventMarketsLimit int    `yaml:"event_markets_limit"`
	MVEFilter         string `yaml:"mve_filter"`
	CandleWindowDays  int    `yaml:"candle_window_days"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StreamConfig holds WebSocket hub settings.
type StreamConfig struct {
	PingInterval time.Duration `yaml:"ping_interval"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ClientBuffer int           `yaml:"client_buffer"`
}

// PollerConfig holds snapshot poller settings.
type PollerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
	Watchlist   []string      `yaml:"watchlist"`
}

// RedisConfig enables the title cache when URL is set.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// DatabaseConfig holds the Postgres connection used by the recorder.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RecorderConfig holds quote snapshot writer settings.
type RecorderConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
