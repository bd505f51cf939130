package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rickgao/market-terminal/internal/market"
	"github.com/rickgao/market-terminal/internal/model"
)

// stubService embeds the interface so only the methods lookup uses need
// bodies.
type stubService struct {
	market.Service
	res        *market.Resolution
	bookTicker string
	candleQ    market.CandlestickQuery
}

func (s *stubService) Resolve(ctx context.Context, input string) (*market.Resolution, error) {
	return s.res, nil
}

func (s *stubService) GetOrderbook(ctx context.Context, ticker string) (*model.Orderbook, error) {
	s.bookTicker = ticker
	return &model.Orderbook{Ticker: ticker, Yes: []model.PriceLevel{}, No: []model.PriceLevel{}}, nil
}

func (s *stubService) GetMarketCandlesticks(ctx context.Context, q market.CandlestickQuery) ([]model.Candlestick, error) {
	s.candleQ = q
	return []model.Candlestick{{Ts: 1700000000}}, nil
}

func vol(v int64) *int64 { return &v }

func TestLookup_EventUsesLeadMarket(t *testing.T) {
	series := "KXFED"
	svc := &stubService{res: &market.Resolution{
		Ticker: "KXFED-26DEC",
		Kind:   model.KindEvent,
		Event: &model.Event{
			EventTicker: "KXFED-26DEC",
			Markets: []model.Market{
				{Ticker: "KXFED-26DEC-T4.00", Volume: vol(10)},
				{Ticker: "KXFED-26DEC-T4.25", Volume: vol(900), SeriesTicker: &series},
			},
		},
	}}

	out, err := lookup(context.Background(), svc, "kxfed-26dec", true, true)
	if err != nil {
		t.Fatalf("lookup() error = %v", err)
	}
	if svc.bookTicker != "KXFED-26DEC-T4.25" {
		t.Errorf("orderbook ticker = %q, want KXFED-26DEC-T4.25", svc.bookTicker)
	}
	if svc.candleQ.Ticker != "KXFED-26DEC-T4.25" || svc.candleQ.SeriesTicker != "KXFED" {
		t.Errorf("candlestick query = %+v", svc.candleQ)
	}
	if out.Orderbook == nil || len(out.Candlesticks) != 1 {
		t.Errorf("output = %+v", out)
	}
}

func TestLookup_SeriesSkipsExtras(t *testing.T) {
	svc := &stubService{res: &market.Resolution{
		Ticker: "KXFED",
		Kind:   model.KindSeries,
		Events: []model.Event{{EventTicker: "KXFED-26DEC"}},
	}}

	out, err := lookup(context.Background(), svc, "KXFED", true, true)
	if err != nil {
		t.Fatalf("lookup() error = %v", err)
	}
	if svc.bookTicker != "" {
		t.Errorf("orderbook loaded for series: %q", svc.bookTicker)
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, out); err != nil {
		t.Fatalf("writeJSON() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if _, ok := decoded["orderbook"]; ok {
		t.Error("orderbook key present for series lookup")
	}
}
