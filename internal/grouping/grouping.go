// Package grouping gathers normalized markets into events with ranked
// outcomes.
package grouping

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/rickgao/market-terminal/internal/model"
	"github.com/rickgao/market-terminal/internal/quote"
)

// DefaultIlliquidSpreadCents is the yes spread above which an outcome is illiquid.
const DefaultIlliquidSpreadCents = 20

var winPattern = regexp.MustCompile(`(?i)(?:will|if)\s+(.+?)\s+win`)

// Grouper groups markets by event ticker. The zero value is ready to use.
type Grouper struct {
	IlliquidSpreadCents int
}

// New returns a Grouper with the given illiquidity threshold. A threshold
// of 0 or less selects the default.
func New(illiquidSpreadCents int) *Grouper {
	return &Grouper{IlliquidSpreadCents: illiquidSpreadCents}
}

// Group groups markets by event ticker. Markets without an event ticker are
// left out; use Partition to see them.
func (g *Grouper) Group(markets []model.Market) []model.GroupedEvent {
	events, _ := g.Partition(markets)
	return events
}

// Partition groups markets by event ticker and returns the markets that
// could not be grouped, in input order.
//
// Outcomes are ranked by probability and events by total 24h volume, both
// descending. Ties keep input order.
func (g *Grouper) Partition(markets []model.Market) (events []model.GroupedEvent, ungrouped []model.Market) {
	var order []string
	byEvent := make(map[string][]model.Market)

	for _, m := range markets {
		if m.EventTicker == nil || *m.EventTicker == "" {
			ungrouped = append(ungrouped, m)
			continue
		}
		key := *m.EventTicker
		if _, ok := byEvent[key]; !ok {
			order = append(order, key)
		}
		byEvent[key] = append(byEvent[key], m)
	}

	events = make([]model.GroupedEvent, 0, len(order))
	for _, key := range order {
		events = append(events, g.buildEvent(key, byEvent[key]))
	}

	slices.SortStableFunc(events, func(a, b model.GroupedEvent) int {
		return cmp.Compare(b.TotalVolume, a.TotalVolume)
	})

	return events, ungrouped
}

func (g *Grouper) buildEvent(eventTicker string, markets []model.Market) model.GroupedEvent {
	first := markets[0]

	outcomes := make([]model.MarketOutcome, 0, len(markets))
	var total int64
	for _, m := range markets {
		o := g.Outcome(m)
		if o.Volume24h != nil {
			total += *o.Volume24h
		}
		outcomes = append(outcomes, o)
	}

	slices.SortStableFunc(outcomes, func(a, b model.MarketOutcome) int {
		return cmp.Compare(b.Probability, a.Probability)
	})

	return model.GroupedEvent{
		EventTicker:  eventTicker,
		Title:        eventTitle(first.EventTitle, outcomes),
		Category:     first.Category,
		SeriesTicker: first.SeriesTicker,
		CloseTime:    first.CloseTime,
		Outcomes:     outcomes,
		TotalVolume:  total,
		IsBinary:     len(outcomes) == 1,
	}
}

// eventTitle keeps the upstream event title unless it is missing or the
// generic "Combo", in which case it is inferred from the ranked outcomes.
func eventTitle(upstream *string, outcomes []model.MarketOutcome) string {
	var title string
	if upstream != nil {
		title = *upstream
	}
	if title != "" && title != "Combo" {
		return title
	}

	switch {
	case len(outcomes) == 2:
		return outcomes[0].Name + " vs " + outcomes[1].Name
	case len(outcomes) > 0:
		return outcomes[0].Name
	}
	return title
}

// Outcome converts one market into an event outcome.
func (g *Grouper) Outcome(m model.Market) model.MarketOutcome {
	q := m.Quote
	yesPrice := firstOf(0, q.YesAsk, q.YesBid, m.LastPrice)

	var noPrice int
	switch {
	case q.NoAsk != nil:
		noPrice = *q.NoAsk
	case q.YesBid != nil:
		noPrice = 100 - *q.YesBid
	default:
		noPrice = 100 - yesPrice
	}

	return model.MarketOutcome{
		Ticker:       m.Ticker,
		Name:         OutcomeName(m),
		Probability:  Probability(m),
		YesPrice:     yesPrice,
		NoPrice:      noPrice,
		YesBid:       q.YesBid,
		YesAsk:       q.YesAsk,
		NoBid:        q.NoBid,
		NoAsk:        q.NoAsk,
		Volume24h:    m.Volume24h,
		OpenInterest: m.OpenInterest,
		Liquidity:    m.Liquidity,
		IsIlliquid:   g.IsIlliquid(m),
		Market:       m,
	}
}

// OutcomeName infers a short outcome label such as a candidate name.
func OutcomeName(m model.Market) string {
	if m.YesSubTitle != nil && *m.YesSubTitle != "" {
		return *m.YesSubTitle
	}
	if match := winPattern.FindStringSubmatch(m.Title); match != nil {
		if name := strings.TrimSpace(match[1]); name != "" {
			return name
		}
	}
	if m.Subtitle != nil && *m.Subtitle != "" && *m.Subtitle != m.Title {
		return *m.Subtitle
	}
	if m.DisplayTitle != "" {
		return m.DisplayTitle
	}
	return m.Title
}

// Probability is the quote's chance, or the best single price when the
// quote has none, bounded to [0, 100].
func Probability(m model.Market) int {
	if m.Quote.Chance != nil {
		return quote.Clamp(*m.Quote.Chance)
	}
	return quote.Clamp(firstOf(0, m.Quote.YesAsk, m.Quote.YesBid, m.LastPrice))
}

// IsIlliquid reports whether nobody is bidding or the yes spread is wider
// than the threshold. A missing ask counts as 100.
func (g *Grouper) IsIlliquid(m model.Market) bool {
	bid := m.Quote.YesBid
	if bid == nil || *bid == 0 {
		return true
	}
	ask := firstOf(100, m.Quote.YesAsk)
	return ask-*bid > g.threshold()
}

func (g *Grouper) threshold() int {
	if g.IlliquidSpreadCents <= 0 {
		return DefaultIlliquidSpreadCents
	}
	return g.IlliquidSpreadCents
}

// Flatten returns the markets wrapped by each outcome, event by event.
// Regrouping the result yields the same partition.
func Flatten(events []model.GroupedEvent) []model.Market {
	var markets []model.Market
	for _, e := range events {
		for _, o := range e.Outcomes {
			markets = append(markets, o.Market)
		}
	}
	return markets
}

func firstOf(fallback int, values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return fallback
}
