package config

import (
	"slices"

	"github.com/rickgao/market-terminal/internal/market"
)

// MarketConfig maps the browse and normalize blocks onto the market service
// configuration shared by every binary.
func (c *TerminalConfig) MarketConfig() market.Config {
	return market.Config{
		DefaultStatus:       c.Browse.DefaultStatus,
		DefaultLimit:        c.Browse.DefaultLimit,
		GroupedLimit:        c.Browse.GroupedLimit,
		EventMarketsLimit:   c.Browse.EventMarketsLimit,
		MVEFilter:           c.Browse.MVEFilter,
		CandleWindowDays:    c.Browse.CandleWindowDays,
		WideSpreadCents:     c.Normalize.WideSpreadCents,
		IlliquidSpreadCents: c.Normalize.IlliquidSpreadCents,
		ComboMarkers:        slices.Clone(c.Normalize.ComboMarkers),
	}
}
