// Package market is the data surface the terminal's collaborators consume:
// normalized markets, events, grouped browse pages, orderbooks and price
// history, all loaded from the upstream API on every call.
package market

import (
	"context"
	"errors"

	"github.com/rickgao/market-terminal/internal/model"
)

// ErrNotFound is returned when a ticker resolves to nothing upstream.
var ErrNotFound = errors.New("not found")

// ErrEmptyInput is returned by Resolve for blank input.
var ErrEmptyInput = errors.New("empty ticker input")

// ErrInvalidQuery is returned for a candlestick query that cannot be sent.
var ErrInvalidQuery = errors.New("invalid query")

// Service loads and normalizes market data.
type Service interface {
	// GetMarkets returns one page of normalized markets.
	GetMarkets(ctx context.Context, opts ListOptions) (*MarketPage, error)

	// GetMarket returns a single normalized market.
	GetMarket(ctx context.Context, ticker string) (*model.Market, error)

	// GetEvent returns an event with its markets, or nil when the event
	// does not exist.
	GetEvent(ctx context.Context, eventTicker string) (*model.Event, error)

	// GetEvents returns one page of events.
	GetEvents(ctx context.Context, opts EventListOptions) (*EventPage, error)

	// GetEventMarkets returns the open markets of an event.
	GetEventMarkets(ctx context.Context, eventTicker string) ([]model.Market, error)

	// GetGroupedMarkets returns one page of markets grouped by event.
	GetGroupedMarkets(ctx context.Context, opts ListOptions) (*GroupedPage, error)

	// GetOrderbook returns both sides of a market's book.
	GetOrderbook(ctx context.Context, ticker string) (*model.Orderbook, error)

	// GetMarketCandlesticks returns OHLC history for a market.
	GetMarketCandlesticks(ctx context.Context, q CandlestickQuery) ([]model.Candlestick, error)

	// Resolve turns a pasted URL or ticker into the market or event it names.
	Resolve(ctx context.Context, input string) (*Resolution, error)
}

// ListOptions selects a page of markets. Zero values select defaults.
type ListOptions struct {
	Cursor string
	Status string
	Limit  int
}

// EventListOptions selects a page of events. Zero values select defaults.
type EventListOptions struct {
	Cursor            string
	Status            string
	Limit             int
	SeriesTicker      string
	WithNestedMarkets bool
}

// MarketPage is one page of markets.
type MarketPage struct {
	Cursor  string         `json:"cursor"`
	Markets []model.Market `json:"markets"`
}

// EventPage is one page of events.
type EventPage struct {
	Cursor string        `json:"cursor"`
	Events []model.Event `json:"events"`
}

// GroupedPage is one page of markets grouped by event. Ungrouped counts the
// markets left out because they carry no event ticker.
type GroupedPage struct {
	Cursor    string               `json:"cursor"`
	Events    []model.GroupedEvent `json:"events"`
	Ungrouped int                  `json:"ungrouped"`
}

// CandlestickQuery selects price history. An empty SeriesTicker is derived
// from Ticker; a zero time range selects the recent window.
type CandlestickQuery struct {
	SeriesTicker   string
	Ticker         string
	StartTs        int64
	EndTs          int64
	PeriodInterval int
}

// Resolution is what a pasted ticker or URL turned out to be. Exactly one
// of Market, Event or Events is set, matching Kind.
type Resolution struct {
	Input  string           `json:"input"`
	Ticker string           `json:"ticker"`
	Kind   model.TickerKind `json:"kind"`
	Market *model.Market    `json:"market,omitempty"`
	Event  *model.Event     `json:"event,omitempty"`
	Events []model.Event    `json:"events,omitempty"`
}
