package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/market-terminal/internal/market"
	"github.com/rickgao/market-terminal/internal/model"
)

// Source provides the market data polled each cycle. market.Service
// satisfies it.
type Source interface {
	GetGroupedMarkets(ctx context.Context, opts market.ListOptions) (*market.GroupedPage, error)
	GetMarket(ctx context.Context, ticker string) (*model.Market, error)
}

// SnapshotHandler receives completed snapshots.
type SnapshotHandler interface {
	HandleSnapshot(snapshot model.Snapshot) error
}

// SnapshotHandlerFunc is a function adapter for SnapshotHandler.
type SnapshotHandlerFunc func(model.Snapshot) error

func (f SnapshotHandlerFunc) HandleSnapshot(s model.Snapshot) error {
	return f(s)
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 30s)
	Concurrency int           // Max concurrent watchlist requests (default: 10)
	Timeout     time.Duration // Per-request timeout (default: 10s)
	GroupLimit  int           // Markets per grouped page, 0 for the service default
	Watchlist   []string      // Market tickers refreshed every cycle
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    30 * time.Second,
		Concurrency: 10,
		Timeout:     10 * time.Second,
	}
}

// Poller periodically builds market snapshots.
type Poller struct {
	cfg      Config
	source   Source
	handlers []SnapshotHandler
	logger   *slog.Logger
	now      func() time.Time

	latestMu sync.RWMutex
	latest   *model.Snapshot

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, source Source, logger *slog.Logger, handlers ...SnapshotHandler) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Poller{
		cfg:      cfg,
		source:   source,
		handlers: handlers,
		logger:   logger,
		now:      time.Now,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("snapshot poller started",
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
		"watchlist", len(p.cfg.Watchlist),
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("snapshot poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Latest returns the most recent snapshot, if any cycle has completed.
func (p *Poller) Latest() (model.Snapshot, bool) {
	p.latestMu.RLock()
	defer p.latestMu.RUnlock()
	if p.latest == nil {
		return model.Snapshot{}, false
	}
	return *p.latest, true
}

func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.cycle(p.ctx)

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.cycle(p.ctx)
		}
	}
}

// cycle polls once and dispatches the result. A failed cycle is logged and
// dropped; the next tick starts fresh.
func (p *Poller) cycle(ctx context.Context) {
	snapshot, err := p.Poll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("poll cycle failed", "err", err)
		}
		return
	}

	p.latestMu.Lock()
	p.latest = &snapshot
	p.latestMu.Unlock()

	for _, h := range p.handlers {
		if err := h.HandleSnapshot(snapshot); err != nil {
			p.logger.Warn("snapshot handler failed",
				"cycle_id", snapshot.CycleID,
				"err", err,
			)
		}
	}
}

// Poll builds one snapshot. It fails only when nothing at all could be
// loaded; individual watchlist failures are logged and skipped.
func (p *Poller) Poll(ctx context.Context) (model.Snapshot, error) {
	start := p.now()
	snapshot := model.Snapshot{
		CycleID: uuid.New(),
		TakenAt: start,
	}

	var groupErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		reqCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()

		page, err := p.source.GetGroupedMarkets(reqCtx, market.ListOptions{Limit: p.cfg.GroupLimit})
		if err != nil {
			groupErr = err
			return
		}
		snapshot.Events = page.Events
	}()

	snapshot.Markets = p.pollWatchlist(ctx)
	wg.Wait()

	if groupErr != nil {
		if len(snapshot.Markets) == 0 {
			return model.Snapshot{}, groupErr
		}
		p.logger.Warn("grouped markets failed", "err", groupErr)
	}
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}

	p.logger.Info("poll cycle complete",
		"cycle_id", snapshot.CycleID,
		"events", len(snapshot.Events),
		"watchlist", len(snapshot.Markets),
		"duration", time.Since(start),
	)
	return snapshot, nil
}

// pollWatchlist fetches watchlist markets concurrently, keeping watchlist
// order and leaving out the ones that failed.
func (p *Poller) pollWatchlist(ctx context.Context) []model.Market {
	if len(p.cfg.Watchlist) == 0 {
		return nil
	}

	results := make([]*model.Market, len(p.cfg.Watchlist))
	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup
	var failed atomic.Int64

	for i, ticker := range p.cfg.Watchlist {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			reqCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
			defer cancel()

			m, err := p.source.GetMarket(reqCtx, ticker)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					p.logger.Warn("failed to poll market", "ticker", ticker, "err", err)
				}
				failed.Add(1)
				return
			}
			results[i] = m
		}()
	}

	wg.Wait()

	markets := make([]model.Market, 0, len(results))
	for _, m := range results {
		if m != nil {
			markets = append(markets, *m)
		}
	}

	if n := failed.Load(); n > 0 {
		p.logger.Debug("watchlist refresh incomplete", "failed", n, "fetched", len(markets))
	}
	return markets
}
