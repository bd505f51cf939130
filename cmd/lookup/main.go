// lookup resolves a pasted Kalshi URL or ticker and prints what it names as
// JSON.
//
// Usage:
//
//	go run ./cmd/lookup https://kalshi.com/markets/kxfed/fed-decision/kxfed-26dec
//	go run ./cmd/lookup --orderbook --candles KXFED-26DEC-T4.00
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rickgao/market-terminal/internal/api"
	"github.com/rickgao/market-terminal/internal/config"
	"github.com/rickgao/market-terminal/internal/market"
	"github.com/rickgao/market-terminal/internal/model"
	"github.com/rickgao/market-terminal/internal/titles"
)

type output struct {
	Resolution   *market.Resolution  `json:"resolution"`
	Orderbook    *model.Orderbook    `json:"orderbook,omitempty"`
	Candlesticks []model.Candlestick `json:"candlesticks,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "path to config file (defaults only when empty)")
	withBook := flag.Bool("orderbook", false, "include the orderbook of the market (or an event's lead market)")
	withCandles := flag.Bool("candles", false, "include recent candlesticks of the market (or an event's lead market)")
	verbose := flag.Bool("verbose", false, "log upstream requests")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: lookup [flags] <url-or-ticker>")
		os.Exit(2)
	}
	input := strings.Join(flag.Args(), " ")

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadAndValidate(*configPath); err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rest := api.NewClient(cfg.API.RestURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
	)
	resolver := titles.NewResolver(rest,
		titles.WithLogger(logger),
		titles.WithTimeout(cfg.Titles.Timeout),
		titles.WithConcurrency(cfg.Titles.Concurrency),
	)
	svc := market.NewService(cfg.MarketConfig(), rest, resolver, logger)

	out, err := lookup(ctx, svc, input, *withBook, *withCandles)
	if err != nil {
		logger.Error("lookup failed", "input", input, "error", err)
		os.Exit(1)
	}
	if err := writeJSON(os.Stdout, out); err != nil {
		logger.Error("write output", "error", err)
		os.Exit(1)
	}
}

// lookup resolves input and optionally loads the book and recent history
// of the market it names. For an event that is its highest-volume market.
func lookup(ctx context.Context, svc market.Service, input string, withBook, withCandles bool) (*output, error) {
	res, err := svc.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	out := &output{Resolution: res}

	target := res.Market
	if target == nil && res.Event != nil {
		target = market.LeadMarket(res.Event.Markets)
	}
	if target == nil {
		return out, nil
	}

	if withBook {
		if out.Orderbook, err = svc.GetOrderbook(ctx, target.Ticker); err != nil {
			return nil, fmt.Errorf("orderbook: %w", err)
		}
	}
	if withCandles {
		q := market.CandlestickQuery{Ticker: target.Ticker}
		if target.SeriesTicker != nil {
			q.SeriesTicker = *target.SeriesTicker
		}
		if out.Candlesticks, err = svc.GetMarketCandlesticks(ctx, q); err != nil {
			return nil, fmt.Errorf("candlesticks: %w", err)
		}
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
