// terminal serves the market terminal API, the live snapshot stream and,
// when enabled, records poll cycles to Postgres.
//
// Usage: go run ./cmd/terminal --config configs/terminal.example.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/market-terminal/internal/api"
	"github.com/rickgao/market-terminal/internal/cache"
	"github.com/rickgao/market-terminal/internal/config"
	"github.com/rickgao/market-terminal/internal/database"
	"github.com/rickgao/market-terminal/internal/market"
	"github.com/rickgao/market-terminal/internal/poller"
	"github.com/rickgao/market-terminal/internal/server"
	"github.com/rickgao/market-terminal/internal/stream"
	"github.com/rickgao/market-terminal/internal/titles"
	"github.com/rickgao/market-terminal/internal/version"
	"github.com/rickgao/market-terminal/internal/writer"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults only when empty)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(os.Stdout, cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	logger.Info("starting terminal",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"api_url", cfg.API.RestURL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("terminal failed", "error", err)
		os.Exit(1)
	}
	logger.Info("terminal stopped")
}

func loadConfig(path string) (*config.TerminalConfig, error) {
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.LoadAndValidate(path)
}

func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func run(ctx context.Context, cfg *config.TerminalConfig, logger *slog.Logger) error {
	rest := api.NewClient(cfg.API.RestURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
	)

	resolverOpts := []titles.Option{
		titles.WithLogger(logger),
		titles.WithTimeout(cfg.Titles.Timeout),
		titles.WithConcurrency(cfg.Titles.Concurrency),
	}
	if cfg.Redis.URL != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		resolverOpts = append(resolverOpts, titles.WithCache(cache.NewTitleCache(rdb, cfg.Titles.CacheTTL)))
		logger.Info("title cache enabled", "ttl", cfg.Titles.CacheTTL)
	}
	resolver := titles.NewResolver(rest, resolverOpts...)

	svc := market.NewService(cfg.MarketConfig(), rest, resolver, logger)

	hub := stream.NewHub(stream.Config{
		PingInterval: cfg.Stream.PingInterval,
		WriteTimeout: cfg.Stream.WriteTimeout,
		ClientBuffer: cfg.Stream.ClientBuffer,
	}, logger)
	defer hub.Close()

	var snapshots server.SnapshotSource
	if cfg.Poller.Enabled {
		handlers := []poller.SnapshotHandler{hub}

		if cfg.Recorder.Enabled {
			w, closeWriter, err := startRecorder(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeWriter()
			handlers = append(handlers, w)
		}

		p := poller.New(poller.Config{
			Interval:    cfg.Poller.Interval,
			Concurrency: cfg.Poller.Concurrency,
			Timeout:     cfg.API.Timeout,
			GroupLimit:  cfg.Browse.GroupedLimit,
			Watchlist:   cfg.Poller.Watchlist,
		}, svc, logger, handlers...)
		if err := p.Start(ctx); err != nil {
			return fmt.Errorf("start poller: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			p.Stop(stopCtx)
		}()
		snapshots = p
	}

	srv := server.New(server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, svc, hub, snapshots, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// startRecorder connects to Postgres and starts the quote writer. The
// returned func stops the writer and closes the pool.
func startRecorder(ctx context.Context, cfg *config.TerminalConfig, logger *slog.Logger) (*writer.QuoteWriter, func(), error) {
	db := cfg.Database.Postgres
	logger.Info("connecting to database",
		"host", db.Host,
		"port", db.Port,
		"database", db.Name,
	)

	pool, err := database.Connect(ctx, db)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	w := writer.NewQuoteWriter(writer.Config{
		BatchSize:     cfg.Recorder.BatchSize,
		FlushInterval: cfg.Recorder.FlushInterval,
		BufferSize:    cfg.Recorder.BufferSize,
	}, pool, logger)
	if err := w.Start(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("start quote writer: %w", err)
	}

	closeFn := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := w.Stop(stopCtx); err != nil {
			logger.Warn("quote writer stop failed", "error", err)
		}
		stats := w.Stats()
		logger.Info("quote writer totals",
			"inserts", stats.Inserts,
			"conflicts", stats.Conflicts,
			"errors", stats.Errors,
			"dropped", stats.Dropped,
		)
		pool.Close()
	}
	return w, closeFn, nil
}
