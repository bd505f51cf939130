// Package normalize maps raw upstream market records onto the canonical
// model.Market.
package normalize

import (
	"strings"

	"github.com/rickgao/market-terminal/internal/api"
	"github.com/rickgao/market-terminal/internal/model"
	"github.com/rickgao/market-terminal/internal/quote"
)

// DefaultComboMarker is the ticker token the exchange uses for multi-game combos.
const DefaultComboMarker = "MULTIGAME"

const (
	comboTitle  = "Combo"
	comboDetail = "Multi-leg combo"
)

// TitleContext carries optional event and series titles used to replace
// generic display titles. Empty means unknown.
type TitleContext struct {
	EventTitle  string
	SeriesTitle string
}

// Normalizer converts raw markets. It holds only configuration and is safe
// for concurrent use.
type Normalizer struct {
	ComboMarkers []string
	Quotes       quote.Builder
}

// New returns a Normalizer. With no markers DefaultComboMarker is used.
func New(quotes quote.Builder, comboMarkers ...string) *Normalizer {
	if len(comboMarkers) == 0 {
		comboMarkers = []string{DefaultComboMarker}
	}
	return &Normalizer{
		ComboMarkers: comboMarkers,
		Quotes:       quotes,
	}
}

// IsCombo reports whether raw is a multi-leg combo market.
func (n *Normalizer) IsCombo(raw *api.RawMarket) bool {
	title := strings.ToLower(strings.TrimSpace(raw.Title))
	if (strings.HasPrefix(title, "yes ") || strings.HasPrefix(title, "no ")) && strings.Contains(title, ",") {
		return true
	}
	for _, marker := range n.ComboMarkers {
		if marker != "" && strings.Contains(raw.Ticker, marker) {
			return true
		}
	}
	return false
}

// Normalize builds the canonical market for raw.
func (n *Normalizer) Normalize(raw api.RawMarket, tc TitleContext) model.Market {
	isCombo := n.IsCombo(&raw)
	eventTitle := strings.TrimSpace(tc.EventTitle)
	seriesTitle := strings.TrimSpace(tc.SeriesTitle)

	yesBid, yesAsk, noBid, noAsk, last := raw.Prices()

	m := model.Market{
		Ticker:       raw.Ticker,
		Title:        raw.Title,
		DisplayTitle: displayTitle(&raw, isCombo, eventTitle, seriesTitle),
		Subtitle:     clone(raw.Subtitle),
		YesSubTitle:  clone(raw.YesSubTitle),
		NoSubTitle:   clone(raw.NoSubTitle),
		EventTitle:   nonEmpty(eventTitle),
		SeriesTitle:  nonEmpty(seriesTitle),
		IsCombo:      isCombo,

		Quote: n.Quotes.Build(quote.Input{
			YesBid:         yesBid,
			YesAsk:         yesAsk,
			NoBid:          noBid,
			NoAsk:          noAsk,
			LastTradePrice: last,
		}),
		LastPrice: last,

		Volume24h:    clone(raw.Volume24h),
		OpenInterest: clone(raw.OpenInterest),
		Liquidity:    clone(raw.Liquidity),

		OpenTime:       clone(raw.OpenTime),
		CloseTime:      clone(raw.CloseTime),
		ExpirationTime: clone(raw.ExpirationTime),
		Status:         clone(raw.Status),
		Result:         clone(raw.Result),

		Category:     clone(raw.Category),
		EventTicker:  clone(raw.EventTicker),
		SeriesTicker: clone(raw.SeriesTicker),

		RulesPrimary:   clone(raw.RulesPrimary),
		RulesSecondary: clone(raw.RulesSecondary),
		Resolution:     clone(raw.Resolution),
		MarketType:     clone(raw.MarketType),
	}

	if isCombo {
		detail := comboDetail
		m.DisplayDetail = &detail
	}

	switch {
	case raw.Volume24h != nil:
		m.Volume = clone(raw.Volume24h)
	case raw.Volume != nil:
		m.Volume = clone(raw.Volume)
	}

	if raw.SettlementValue != nil {
		sv := string(*raw.SettlementValue)
		m.SettlementValue = &sv
	}

	return m
}

// NormalizeAll normalizes a batch, looking titles up by each market's event
// and series ticker.
func (n *Normalizer) NormalizeAll(raws []api.RawMarket, eventTitles, seriesTitles map[string]string) []model.Market {
	markets := make([]model.Market, 0, len(raws))
	for _, raw := range raws {
		var tc TitleContext
		if raw.EventTicker != nil {
			tc.EventTitle = eventTitles[*raw.EventTicker]
		}
		if raw.SeriesTicker != nil {
			tc.SeriesTitle = seriesTitles[*raw.SeriesTicker]
		}
		markets = append(markets, n.Normalize(raw, tc))
	}
	return markets
}

// displayTitle resolves the human-facing title. Combos never show their raw
// title; a market with no usable text falls back to its ticker.
func displayTitle(raw *api.RawMarket, isCombo bool, eventTitle, seriesTitle string) string {
	title := strings.TrimSpace(raw.Title)
	subtitle := trimmed(raw.Subtitle)
	yesSubTitle := trimmed(raw.YesSubTitle)

	display := title
	switch {
	case isCombo:
		display = comboTitle
	case yesSubTitle != "" && yesSubTitle != title:
		display = yesSubTitle
	case subtitle != "" && subtitle != title:
		display = subtitle
	}

	if display == title || display == comboTitle || display == "" {
		if eventTitle != "" && eventTitle != comboTitle {
			display = eventTitle
		} else if seriesTitle != "" {
			display = seriesTitle
		}
	}

	if isCombo && display == title {
		display = comboTitle
	}
	if display == "" {
		return raw.Ticker
	}
	return display
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
