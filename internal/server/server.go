// Package server exposes the market service as JSON over HTTP and mounts
// the live stream.
//
// Routes:
//
//	GET /health
//	GET /api/markets                         ?cursor&status&limit
//	GET /api/markets/grouped                 ?cursor&status&limit
//	GET /api/markets/{ticker}
//	GET /api/markets/{ticker}/orderbook
//	GET /api/markets/{ticker}/candlesticks   ?series_ticker&start_ts&end_ts&period_interval
//	GET /api/events                          ?cursor&status&limit&series_ticker&with_nested_markets
//	GET /api/events/{ticker}
//	GET /api/events/{ticker}/markets
//	GET /api/resolve                         ?input
//	GET /api/snapshot
//	GET /ws
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rickgao/market-terminal/internal/market"
	"github.com/rickgao/market-terminal/internal/model"
	"github.com/rickgao/market-terminal/internal/version"
)

// SnapshotSource returns the latest poll snapshot. *poller.Poller satisfies it.
type SnapshotSource interface {
	Latest() (model.Snapshot, bool)
}

// Config holds HTTP server configuration.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server serves the terminal API.
type Server struct {
	httpServer *http.Server
	svc        market.Service
	snapshots  SnapshotSource
	logger     *slog.Logger
}

// New creates a Server. stream and snapshots may be nil, in which case
// their routes are not registered.
func New(cfg Config, svc market.Service, stream http.Handler, snapshots SnapshotSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		svc:       svc,
		snapshots: snapshots,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/markets", s.handleMarkets)
	mux.HandleFunc("GET /api/markets/grouped", s.handleGroupedMarkets)
	mux.HandleFunc("GET /api/markets/{ticker}", s.handleMarket)
	mux.HandleFunc("GET /api/markets/{ticker}/orderbook", s.handleOrderbook)
	mux.HandleFunc("GET /api/markets/{ticker}/candlesticks", s.handleCandlesticks)

	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/events/{ticker}", s.handleEvent)
	mux.HandleFunc("GET /api/events/{ticker}/markets", s.handleEventMarkets)

	mux.HandleFunc("GET /api/resolve", s.handleResolve)

	if snapshots != nil {
		mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	}
	if stream != nil {
		mux.Handle("GET /ws", stream)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      logging(logger)(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("http server listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured address and serves.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}
