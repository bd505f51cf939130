package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rickgao/market-terminal/internal/model"
)

// ErrBufferFull is returned by HandleSnapshot when the input buffer cannot
// take another snapshot's rows.
var ErrBufferFull = errors.New("quote writer buffer full")

const insertQuote = `
	INSERT INTO quote_snapshots (
		cycle_id, ticker, event_ticker, taken_at,
		yes_bid, yes_ask, no_bid, no_ask, last_price,
		chance, spread, has_wide_spread, volume_24h, open_interest
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (cycle_id, ticker) DO NOTHING
`

// DB is the subset of *pgxpool.Pool the writer needs.
type DB interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Config holds writer configuration.
type Config struct {
	BatchSize     int           // Rows per insert batch (default: 1000)
	FlushInterval time.Duration // Max time a row waits in the batch (default: 1s)
	BufferSize    int           // Queued rows before snapshots are dropped (default: 10000)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     1000,
		FlushInterval: time.Second,
		BufferSize:    10000,
	}
}

// Metrics tracks writer activity.
type Metrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
	Dropped   int64 // Rows rejected because the buffer was full
}

type quoteRow struct {
	CycleID       uuid.UUID
	Ticker        string
	EventTicker   *string
	TakenAt       time.Time
	YesBid        *int
	YesAsk        *int
	NoBid         *int
	NoAsk         *int
	LastPrice     *int
	Chance        *int
	Spread        *int
	HasWideSpread bool
	Volume24h     *int64
	OpenInterest  *int64
}

// QuoteWriter batches snapshot quotes into quote_snapshots.
type QuoteWriter struct {
	cfg    Config
	db     DB
	logger *slog.Logger

	input chan quoteRow

	batch   []quoteRow
	batchMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// NewQuoteWriter creates a new QuoteWriter.
func NewQuoteWriter(cfg Config, db DB, logger *slog.Logger) *QuoteWriter {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	return &QuoteWriter{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  make(chan quoteRow, cfg.BufferSize),
		batch:  make([]quoteRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming rows and writing to the database.
func (w *QuoteWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go w.consumeLoop()
	go w.flushLoop()

	w.logger.Info("quote writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop drains queued rows and writes what is left. ctx bounds both the wait
// for the loops and the final flush. Rows whose loop write was cut short by
// the shutdown are retried in the final flush.
func (w *QuoteWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping quote writer")

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("quote writer stop timed out")
		return ctx.Err()
	}

drain:
	for {
		select {
		case row := <-w.input:
			w.append(row)
		default:
			break drain
		}
	}
	if err := w.flush(ctx); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}

	w.logger.Info("quote writer stopped")
	return nil
}

// HandleSnapshot queues one row per distinct market in s. Either every row
// is queued or none are.
func (w *QuoteWriter) HandleSnapshot(s model.Snapshot) error {
	rows := transform(s)
	if len(rows) > cap(w.input)-len(w.input) {
		w.batchMu.Lock()
		w.metrics.Dropped += int64(len(rows))
		w.batchMu.Unlock()
		return ErrBufferFull
	}
	for _, row := range rows {
		select {
		case w.input <- row:
		default:
			w.batchMu.Lock()
			w.metrics.Dropped++
			w.batchMu.Unlock()
		}
	}
	return nil
}

// Stats returns current metrics.
func (w *QuoteWriter) Stats() Metrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *QuoteWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case row := <-w.input:
			if w.append(row) {
				w.flush(w.ctx)
			}
		}
	}
}

func (w *QuoteWriter) flushLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.flush(w.ctx)
		}
	}
}

// append adds row to the batch and reports whether the batch is full.
func (w *QuoteWriter) append(row quoteRow) bool {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	w.batch = append(w.batch, row)
	return len(w.batch) >= w.cfg.BatchSize
}

// transform flattens a snapshot into rows, watchlist markets first. A market
// appearing in both the watchlist and a grouped event is written once.
func transform(s model.Snapshot) []quoteRow {
	seen := make(map[string]struct{})
	var rows []quoteRow

	add := func(m *model.Market) {
		if _, dup := seen[m.Ticker]; dup {
			return
		}
		seen[m.Ticker] = struct{}{}
		rows = append(rows, quoteRow{
			CycleID:       s.CycleID,
			Ticker:        m.Ticker,
			EventTicker:   m.EventTicker,
			TakenAt:       s.TakenAt,
			YesBid:        m.Quote.YesBid,
			YesAsk:        m.Quote.YesAsk,
			NoBid:         m.Quote.NoBid,
			NoAsk:         m.Quote.NoAsk,
			LastPrice:     m.LastPrice,
			Chance:        m.Quote.Chance,
			Spread:        m.Quote.Spread,
			HasWideSpread: m.Quote.HasWideSpread,
			Volume24h:     m.Volume24h,
			OpenInterest:  m.OpenInterest,
		})
	}

	for i := range s.Markets {
		add(&s.Markets[i])
	}
	for i := range s.Events {
		for j := range s.Events[i].Outcomes {
			add(&s.Events[i].Outcomes[j].Market)
		}
	}
	return rows
}

func (w *QuoteWriter) flush(ctx context.Context) error {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return nil
	}

	batch := w.batch
	w.batch = make([]quoteRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			w.requeue(batch)
			w.logger.Debug("batch insert canceled, rows requeued", "count", len(batch))
			return err
		}
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return err
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed quotes",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
	return nil
}

// requeue puts rows back ahead of anything appended since they were taken.
func (w *QuoteWriter) requeue(rows []quoteRow) {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	w.batch = append(rows, w.batch...)
}

func (w *QuoteWriter) batchInsert(ctx context.Context, rows []quoteRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertQuote,
			r.CycleID, r.Ticker, r.EventTicker, r.TakenAt,
			r.YesBid, r.YesAsk, r.NoBid, r.NoAsk, r.LastPrice,
			r.Chance, r.Spread, r.HasWideSpread, r.Volume24h, r.OpenInterest,
		)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
