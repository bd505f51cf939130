// Package titles resolves event and series titles used to enrich market
// display names. Lookups are best effort: any failure yields an empty title.
package titles

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/market-terminal/internal/api"
)

// Default resolver settings.
const (
	DefaultTimeout     = 5 * time.Second
	DefaultConcurrency = 8
)

// Fetcher is the subset of the API client the resolver needs.
type Fetcher interface {
	GetEvent(ctx context.Context, eventTicker string, nested bool) (*api.RawEvent, error)
	GetSeries(ctx context.Context, seriesTicker string) (*api.RawSeries, error)
}

// Cache stores resolved titles. ok is false on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (title string, ok bool, err error)
	Set(ctx context.Context, key, title string) error
}

// Resolver looks up titles with a per-lookup timeout and an optional cache.
type Resolver struct {
	fetcher     Fetcher
	cache       Cache
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache sets a read-through title cache.
func WithCache(c Cache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

// WithTimeout sets the per-lookup timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithConcurrency limits parallel lookups in batch calls.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver backed by f.
func NewResolver(f Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:     f,
		timeout:     DefaultTimeout,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EventTitle returns the event's title, or "" when it cannot be resolved.
func (r *Resolver) EventTitle(ctx context.Context, eventTicker string) string {
	return r.lookup(ctx, "event:"+eventTicker, eventTicker, func(ctx context.Context) (string, error) {
		ev, err := r.fetcher.GetEvent(ctx, eventTicker, false)
		if err != nil || ev == nil {
			return "", err
		}
		return ev.Title, nil
	})
}

// SeriesTitle returns the series' title, or "" when it cannot be resolved.
func (r *Resolver) SeriesTitle(ctx context.Context, seriesTicker string) string {
	return r.lookup(ctx, "series:"+seriesTicker, seriesTicker, func(ctx context.Context) (string, error) {
		s, err := r.fetcher.GetSeries(ctx, seriesTicker)
		if err != nil || s == nil {
			return "", err
		}
		return s.Title, nil
	})
}

// EventTitles resolves many event titles in parallel. Only resolved
// tickers appear in the result.
func (r *Resolver) EventTitles(ctx context.Context, eventTickers []string) map[string]string {
	return r.batch(ctx, eventTickers, r.EventTitle)
}

// SeriesTitles resolves many series titles in parallel. Only resolved
// tickers appear in the result.
func (r *Resolver) SeriesTitles(ctx context.Context, seriesTickers []string) map[string]string {
	return r.batch(ctx, seriesTickers, r.SeriesTitle)
}

func (r *Resolver) lookup(ctx context.Context, key, ticker string, fetch func(context.Context) (string, error)) string {
	if ticker == "" {
		return ""
	}

	if r.cache != nil {
		title, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.Debug("title cache read failed", "key", key, "err", err)
		} else if ok {
			return title
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	title, err := fetch(lookupCtx)
	if err != nil {
		r.logger.Debug("title lookup failed", "ticker", ticker, "err", err)
		return ""
	}
	if title == "" {
		return ""
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, title); err != nil {
			r.logger.Debug("title cache write failed", "key", key, "err", err)
		}
	}
	return title
}

func (r *Resolver) batch(ctx context.Context, tickers []string, resolve func(context.Context, string) string) map[string]string {
	titles := make(map[string]string)
	seen := make(map[string]struct{}, len(tickers))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.concurrency)

	for _, ticker := range tickers {
		if ticker == "" {
			continue
		}
		if _, dup := seen[ticker]; dup {
			continue
		}
		seen[ticker] = struct{}{}

		g.Go(func() error {
			title := resolve(ctx, ticker)
			if title == "" {
				return nil
			}
			mu.Lock()
			titles[ticker] = title
			mu.Unlock()
			return nil
		})
	}

	// Lookups never return errors; failures are already logged.
	_ = g.Wait()
	return titles
}
