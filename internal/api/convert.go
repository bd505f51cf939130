package api

import (
	"math"
	"strconv"
	"strings"

	"github.com/rickgao/market-terminal/internal/model"
)

// DollarsToCents converts a dollar string to whole cents.
// "0.52" -> 52, "0.5260" -> 53 (rounded). ok is false for empty or invalid
// input, and for anything outside the $0-$1 contract range.
func DollarsToCents(dollars string) (cents int, ok bool) {
	dollars = strings.TrimSpace(dollars)
	if dollars == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(dollars, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f > 1 {
		return 0, false
	}

	return int(math.Round(f * 100)), true
}

// PickCents returns the cents field when present, otherwise the dollar
// string converted to cents, otherwise nil.
func PickCents(cents *int, dollars *string) *int {
	if cents != nil {
		v := *cents
		return &v
	}
	if dollars == nil {
		return nil
	}
	if v, ok := DollarsToCents(*dollars); ok {
		return &v
	}
	return nil
}

// Prices returns the market's bid/ask/last in cents, reconciling the cents
// and sub-penny dollar fields.
func (m *RawMarket) Prices() (yesBid, yesAsk, noBid, noAsk, last *int) {
	return PickCents(m.YesBid, m.YesBidDollars),
		PickCents(m.YesAsk, m.YesAskDollars),
		PickCents(m.NoBid, m.NoBidDollars),
		PickCents(m.NoAsk, m.NoAskDollars),
		PickCents(m.LastPrice, m.LastPriceDollars)
}

// ToOrderbook converts an OrderbookResponse to model.Orderbook.
// Null sides become empty slices; malformed levels are skipped.
func (o *OrderbookResponse) ToOrderbook(ticker string) model.Orderbook {
	return model.Orderbook{
		Ticker: ticker,
		Yes:    toLevels(o.Orderbook.Yes),
		No:     toLevels(o.Orderbook.No),
	}
}

func toLevels(raw [][]int) []model.PriceLevel {
	levels := make([]model.PriceLevel, 0, len(raw))
	for _, level := range raw {
		if len(level) >= 2 {
			levels = append(levels, model.PriceLevel{
				Price: level[0],
				Size:  level[1],
			})
		}
	}
	return levels
}

// ToModel converts a RawCandlestick to model.Candlestick, preferring the
// flat fields and falling back to the nested price block.
func (c *RawCandlestick) ToModel() model.Candlestick {
	out := model.Candlestick{
		Open:     c.Open,
		High:     c.High,
		Low:      c.Low,
		Close:    c.Close,
		Previous: c.Previous,
		Volume:   c.Volume,
	}

	switch {
	case c.Ts != nil:
		out.Ts = *c.Ts
	case c.EndPeriodTs != nil:
		out.Ts = *c.EndPeriodTs
	}

	if p := c.Price; p != nil {
		out.Open = firstInt(out.Open, p.Open)
		out.High = firstInt(out.High, p.High)
		out.Low = firstInt(out.Low, p.Low)
		out.Close = firstInt(out.Close, p.Close)
		out.Previous = firstInt(out.Previous, p.Previous)
	}

	return out
}

// ToCandlesticks converts a slice of raw candlesticks.
func ToCandlesticks(raw []RawCandlestick) []model.Candlestick {
	out := make([]model.Candlestick, 0, len(raw))
	for i := range raw {
		out = append(out, raw[i].ToModel())
	}
	return out
}

func firstInt(a, b *int) *int {
	if a != nil {
		return a
	}
	return b
}
