package api

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// MarketsResponse from GET /markets
type MarketsResponse struct {
	Markets []RawMarket `json:"markets"`
	Cursor  string      `json:"cursor"`
}

// RawMarket is a market exactly as the Kalshi API returns it.
// Only Ticker and Title are reliably populated; everything else may be
// missing or null depending on market type and API revision.
type RawMarket struct {
	Ticker       string  `json:"ticker"`
	EventTicker  *string `json:"event_ticker"`
	SeriesTicker *string `json:"series_ticker"`
	MarketType   *string `json:"market_type"`
	Title        string  `json:"title"`
	Subtitle     *string `json:"subtitle"`
	YesSubTitle  *string `json:"yes_sub_title"`
	NoSubTitle   *string `json:"no_sub_title"`
	Category     *string `json:"category"`
	Status       *string `json:"status"`
	Result       *string `json:"result"`

	// Prices in cents
	YesBid    *int `json:"yes_bid"`
	YesAsk    *int `json:"yes_ask"`
	NoBid     *int `json:"no_bid"`
	NoAsk     *int `json:"no_ask"`
	LastPrice *int `json:"last_price"`

	// Prices as strings (sub-penny)
	YesBidDollars    *string `json:"yes_bid_dollars"`
	YesAskDollars    *string `json:"yes_ask_dollars"`
	NoBidDollars     *string `json:"no_bid_dollars"`
	NoAskDollars     *string `json:"no_ask_dollars"`
	LastPriceDollars *string `json:"last_price_dollars"`

	// Volume
	Volume       *int64 `json:"volume"`
	Volume24h    *int64 `json:"volume_24h"`
	OpenInterest *int64 `json:"open_interest"`
	Liquidity    *int64 `json:"liquidity"`

	// Timestamps (ISO 8601)
	OpenTime       *string `json:"open_time"`
	CloseTime      *string `json:"close_time"`
	ExpirationTime *string `json:"expiration_time"`
	CreatedTime    *string `json:"created_time"`

	// Rules and settlement
	RulesPrimary    *string     `json:"rules_primary"`
	RulesSecondary  *string     `json:"rules_secondary"`
	Resolution      *string     `json:"resolution"`
	SettlementValue *FlexString `json:"settlement_value"`
}

// SingleMarketResponse from GET /markets/{ticker}
type SingleMarketResponse struct {
	Market RawMarket `json:"market"`
}

// EventsResponse from GET /events
type EventsResponse struct {
	Events []RawEvent `json:"events"`
	Cursor string     `json:"cursor"`
}

// RawEvent represents an event from the Kalshi API. Markets is only
// populated when the request asked for nested markets.
type RawEvent struct {
	EventTicker       string      `json:"event_ticker"`
	SeriesTicker      *string     `json:"series_ticker"`
	Title             string      `json:"title"`
	SubTitle          *string     `json:"sub_title"`
	Category          *string     `json:"category"`
	MutuallyExclusive *bool       `json:"mutually_exclusive"`
	StrikeDate        *string     `json:"strike_date"`
	Markets           []RawMarket `json:"markets"`
}

// SingleEventResponse from GET /events/{event_ticker}
type SingleEventResponse struct {
	Event RawEvent `json:"event"`
	// Newer API revisions return nested markets next to the event.
	Markets []RawMarket `json:"markets"`
}

// SeriesResponse from GET /series/{series_ticker}
type SeriesResponse struct {
	Series RawSeries `json:"series"`
}

// RawSeries represents a series from the Kalshi API.
type RawSeries struct {
	Ticker    string   `json:"ticker"`
	Title     string   `json:"title"`
	Category  string   `json:"category"`
	Frequency string   `json:"frequency"`
	Tags      []string `json:"tags"`
}

// OrderbookResponse from GET /markets/{ticker}/orderbook
type OrderbookResponse struct {
	Orderbook RawOrderbook `json:"orderbook"`
}

// RawOrderbook holds levels as [price_cents, quantity] pairs. Either side
// is null when it has no resting orders.
type RawOrderbook struct {
	Yes [][]int `json:"yes"`
	No  [][]int `json:"no"`
}

// CandlesticksResponse from GET /series/{series}/markets/{ticker}/candlesticks
type CandlesticksResponse struct {
	Ticker       string           `json:"ticker"`
	Candlesticks []RawCandlestick `json:"candlesticks"`
}

// RawCandlestick accepts both the flat shape (ts, open, ...) and the nested
// shape (end_period_ts, price.open, ...) the API has used over time.
type RawCandlestick struct {
	Ts       *int64 `json:"ts"`
	Open     *int   `json:"open"`
	High     *int   `json:"high"`
	Low      *int   `json:"low"`
	Close    *int   `json:"close"`
	Previous *int   `json:"previous"`
	Volume   *int64 `json:"volume"`

	EndPeriodTs  *int64         `json:"end_period_ts"`
	Price        *RawPriceStats `json:"price"`
	YesBid       *RawPriceStats `json:"yes_bid"`
	YesAsk       *RawPriceStats `json:"yes_ask"`
	OpenInterest *int64         `json:"open_interest"`
}

// RawPriceStats is one OHLC block of a nested candlestick.
type RawPriceStats struct {
	Open     *int `json:"open"`
	High     *int `json:"high"`
	Low      *int `json:"low"`
	Close    *int `json:"close"`
	Previous *int `json:"previous"`
}

// GetMarketsOptions configures a GetMarkets request.
type GetMarketsOptions struct {
	Limit        int
	Cursor       string
	EventTicker  string
	SeriesTicker string
	Tickers      []string
	Status       string
	MVEFilter    string // "exclude" hides multivariate combo markets
}

// GetEventsOptions configures a GetEvents request.
type GetEventsOptions struct {
	Limit             int
	Cursor            string
	SeriesTicker      string
	Status            string
	WithNestedMarkets bool
}

// CandlesticksOptions configures a GetCandlesticks request.
type CandlesticksOptions struct {
	StartTs        int64
	EndTs          int64
	PeriodInterval int // minutes: 1, 60 or 1440
}

// FlexString decodes a JSON string or number into a string.
// settlement_value has been served as both.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}
