// Package quote derives the pricing view of a market from its raw bids,
// asks and last trade.
package quote

import (
	"math"

	"github.com/rickgao/market-terminal/internal/model"
)

// DefaultWideSpreadCents is the spread above which a quote is flagged wide.
const DefaultWideSpreadCents = 20

// Input holds the raw prices a quote is built from, in cents. Any field may be nil.
type Input struct {
	YesBid         *int
	YesAsk         *int
	NoBid          *int
	NoAsk          *int
	LastTradePrice *int
}

// Builder builds quotes with a configurable wide-spread threshold.
// The zero value uses DefaultWideSpreadCents.
type Builder struct {
	WideSpreadCents int
}

// NewBuilder returns a Builder using the given threshold. A threshold of 0
// or less selects the default.
func NewBuilder(wideSpreadCents int) Builder {
	return Builder{WideSpreadCents: wideSpreadCents}
}

// Build computes a quote with the default threshold.
func Build(in Input) model.Quote {
	return Builder{}.Build(in)
}

// Build computes the quote for in. Asks are copied, never synthesized.
func (b Builder) Build(in Input) model.Quote {
	q := model.Quote{
		YesBid: clone(in.YesBid),
		YesAsk: clone(in.YesAsk),
		NoBid:  clone(in.NoBid),
		NoAsk:  clone(in.NoAsk),
		Chance: chance(in),
	}

	if in.YesBid != nil && in.YesAsk != nil {
		spread := *in.YesAsk - *in.YesBid
		q.Spread = &spread
	}

	q.HasWideSpread = q.Spread == nil || *q.Spread > b.threshold()
	return q
}

func (b Builder) threshold() int {
	if b.WideSpreadCents <= 0 {
		return DefaultWideSpreadCents
	}
	return b.WideSpreadCents
}

// chance picks the implied probability: midpoint, then last trade, then
// the first single-sided price available.
func chance(in Input) *int {
	var v float64
	switch {
	case in.YesBid != nil && in.YesAsk != nil:
		v = float64(*in.YesBid+*in.YesAsk) / 2
	case in.LastTradePrice != nil:
		v = float64(*in.LastTradePrice)
	case in.YesBid != nil:
		v = float64(*in.YesBid)
	case in.YesAsk != nil:
		v = float64(*in.YesAsk)
	case in.NoAsk != nil:
		v = float64(100 - *in.NoAsk)
	case in.NoBid != nil:
		v = float64(100 - *in.NoBid)
	default:
		return nil
	}

	c := Clamp(int(math.Floor(v + 0.5)))
	return &c
}

// Clamp bounds v to the probability range [0, 100].
func Clamp(v int) int {
	return min(100, max(0, v))
}

func clone(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
