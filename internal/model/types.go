package model

import (
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Pricing
// -----------------------------------------------------------------------------

// Quote is the derived pricing view of a market. Bids and asks are copied
// from the upstream record and never synthesized.
type Quote struct {
	YesBid        *int `json:"yes_bid"`
	YesAsk        *int `json:"yes_ask"`
	NoBid         *int `json:"no_bid"`
	NoAsk         *int `json:"no_ask"`
	Chance        *int `json:"chance"` // Implied probability, 0-100
	Spread        *int `json:"spread"` // YesAsk - YesBid
	HasWideSpread bool `json:"has_wide_spread"`
}

// -----------------------------------------------------------------------------
// Markets and events
// -----------------------------------------------------------------------------

// Market is the canonical, normalized market. Built once per API response.
type Market struct {
	Ticker        string  `json:"ticker"`
	Title         string  `json:"title"` // Raw upstream title
	DisplayTitle  string  `json:"display_title"`
	DisplayDetail *string `json:"display_detail"`
	Subtitle      *string `json:"subtitle"`
	YesSubTitle   *string `json:"yes_sub_title"`
	NoSubTitle    *string `json:"no_sub_title"`
	EventTitle    *string `json:"event_title"`
	SeriesTitle   *string `json:"series_title"`
	IsCombo       bool    `json:"is_combo"`

	Quote     Quote `json:"quote"`
	LastPrice *int  `json:"last_price"`

	Volume       *int64 `json:"volume"` // 24h volume, falling back to lifetime volume
	Volume24h    *int64 `json:"volume_24h"`
	OpenInterest *int64 `json:"open_interest"`
	Liquidity    *int64 `json:"liquidity"`

	OpenTime       *string `json:"open_time"`
	CloseTime      *string `json:"close_time"`
	ExpirationTime *string `json:"expiration_time"`
	Status         *string `json:"status"`
	Result         *string `json:"result"`

	Category     *string `json:"category"`
	EventTicker  *string `json:"event_ticker"`
	SeriesTicker *string `json:"series_ticker"`

	RulesPrimary    *string `json:"rules_primary"`
	RulesSecondary  *string `json:"rules_secondary"`
	SettlementValue *string `json:"settlement_value"`
	Resolution      *string `json:"resolution"`
	MarketType      *string `json:"market_type"`
}

// Event is an event together with its normalized markets.
type Event struct {
	EventTicker       string   `json:"event_ticker"`
	Title             string   `json:"title"`
	SubTitle          *string  `json:"sub_title"`
	Category          *string  `json:"category"`
	SeriesTicker      *string  `json:"series_ticker"`
	MutuallyExclusive *bool    `json:"mutually_exclusive"`
	StrikeDate        *string  `json:"strike_date"`
	Markets           []Market `json:"markets"`
}

// MarketOutcome is one betting option within a grouped event, backed by
// exactly one market.
type MarketOutcome struct {
	Ticker       string `json:"ticker"`
	Name         string `json:"name"`
	Probability  int    `json:"probability"` // 0-100
	YesPrice     int    `json:"yes_price"`   // Cents to buy YES
	NoPrice      int    `json:"no_price"`    // Cents to buy NO
	YesBid       *int   `json:"yes_bid"`
	YesAsk       *int   `json:"yes_ask"`
	NoBid        *int   `json:"no_bid"`
	NoAsk        *int   `json:"no_ask"`
	Volume24h    *int64 `json:"volume_24h"`
	OpenInterest *int64 `json:"open_interest"`
	Liquidity    *int64 `json:"liquidity"`
	IsIlliquid   bool   `json:"is_illiquid"`
	Market       Market `json:"market"`
}

// GroupedEvent gathers the markets sharing an event ticker.
type GroupedEvent struct {
	EventTicker  string          `json:"event_ticker"`
	Title        string          `json:"title"`
	Subtitle     *string         `json:"subtitle"`
	Category     *string         `json:"category"`
	SeriesTicker *string         `json:"series_ticker"`
	CloseTime    *string         `json:"close_time"`
	Outcomes     []MarketOutcome `json:"outcomes"`
	TotalVolume  int64           `json:"total_volume"`
	IsBinary     bool            `json:"is_binary"`
}

// -----------------------------------------------------------------------------
// Orderbook and history
// -----------------------------------------------------------------------------

// PriceLevel represents a single price level in an orderbook.
type PriceLevel struct {
	Price int `json:"price"` // Cents
	Size  int `json:"size"`
}

// Orderbook holds resting bids on both sides. Sides are never nil.
type Orderbook struct {
	Ticker string       `json:"ticker"`
	Yes    []PriceLevel `json:"yes"`
	No     []PriceLevel `json:"no"`
}

// Candlestick is one OHLC bucket. Prices are cents; nil means no trades.
type Candlestick struct {
	Ts       int64  `json:"ts"` // Period end, Unix seconds
	Open     *int   `json:"open"`
	High     *int   `json:"high"`
	Low      *int   `json:"low"`
	Close    *int   `json:"close"`
	Volume   *int64 `json:"volume"`
	Previous *int   `json:"previous"`
}

// -----------------------------------------------------------------------------
// Tickers and snapshots
// -----------------------------------------------------------------------------

// TickerKind classifies a ticker by specificity.
type TickerKind string

const (
	KindSeries TickerKind = "series"
	KindEvent  TickerKind = "event"
	KindMarket TickerKind = "market"
)

// Snapshot is the result of one poll cycle.
type Snapshot struct {
	CycleID uuid.UUID      `json:"cycle_id"`
	TakenAt time.Time      `json:"taken_at"`
	Events  []GroupedEvent `json:"events"`
	Markets []Market       `json:"markets"` // Watchlist markets
}
