package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rickgao/market-terminal/internal/api"
	"github.com/rickgao/market-terminal/internal/market"
)

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := s.svc.GetMarkets(r.Context(), opts)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGroupedMarkets(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := s.svc.GetGroupedMarkets(r.Context(), opts)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.GetMarket(r.Context(), r.PathValue("ticker"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleOrderbook(w http.ResponseWriter, r *http.Request) {
	ob, err := s.svc.GetOrderbook(r.Context(), r.PathValue("ticker"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ob)
}

func (s *Server) handleCandlesticks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := market.CandlestickQuery{
		SeriesTicker: q.Get("series_ticker"),
		Ticker:       r.PathValue("ticker"),
	}

	var err error
	if query.StartTs, err = int64Param(q.Get("start_ts"), "start_ts"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if query.EndTs, err = int64Param(q.Get("end_ts"), "end_ts"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	period, err := int64Param(q.Get("period_interval"), "period_interval")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query.PeriodInterval = int(period)

	candles, err := s.svc.GetMarketCandlesticks(r.Context(), query)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ticker":       query.Ticker,
		"candlesticks": candles,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	list, err := parseListOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	opts := market.EventListOptions{
		Cursor:       list.Cursor,
		Status:       list.Status,
		Limit:        list.Limit,
		SeriesTicker: q.Get("series_ticker"),
	}
	if v := q.Get("with_nested_markets"); v != "" {
		nested, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid with_nested_markets")
			return
		}
		opts.WithNestedMarkets = nested
	}

	page, err := s.svc.GetEvents(r.Context(), opts)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	ev, err := s.svc.GetEvent(r.Context(), ticker)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if ev == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("event %s not found", ticker))
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleEventMarkets(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	markets, err := s.svc.GetEventMarkets(r.Context(), ticker)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event_ticker": ticker,
		"markets":      markets,
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Resolve(r.Context(), r.URL.Query().Get("input"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.snapshots.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// writeServiceError maps service errors onto status codes. Anything not
// attributable to the caller is reported as a bad gateway.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, market.ErrNotFound), api.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, market.ErrEmptyInput), errors.Is(err, market.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		s.logger.Debug("request canceled", "path", r.URL.Path)
	default:
		s.logger.Warn("upstream request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func parseListOptions(r *http.Request) (market.ListOptions, error) {
	q := r.URL.Query()
	opts := market.ListOptions{
		Cursor: q.Get("cursor"),
		Status: q.Get("status"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("invalid limit %q", v)
		}
		opts.Limit = n
	}
	return opts, nil
}

func int64Param(v, name string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
