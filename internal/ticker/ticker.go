// Package ticker extracts exchange tickers from pasted input and classifies
// them by specificity.
package ticker

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/rickgao/market-terminal/internal/model"
)

var (
	tickerShape = regexp.MustCompile(`^[A-Z][A-Z0-9-]+$`)
	dateSuffix  = regexp.MustCompile(`^\d{2}[A-Z]{3}\d{0,2}$`)
)

// Parse returns the canonical ticker for a pasted URL or raw ticker string.
//
// Exchange URLs nest series, event and market below /markets/, so the last
// ticker-shaped segment after "markets" is the most specific ticker. Input
// that is not an absolute URL is treated as a literal ticker.
func Parse(input string) string {
	trimmed := strings.TrimSpace(input)

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.ToUpper(trimmed)
	}

	segments := pathSegments(u.Path)
	idx := -1
	for i, seg := range segments {
		if seg == "markets" {
			idx = i
			break
		}
	}
	if idx == -1 {
		return strings.ToUpper(trimmed)
	}

	after := segments[idx+1:]
	for i := len(after) - 1; i >= 0; i-- {
		upper := strings.ToUpper(after[i])
		if tickerShape.MatchString(upper) {
			return upper
		}
	}
	if len(after) > 0 {
		return strings.ToUpper(after[0])
	}
	return strings.ToUpper(trimmed)
}

func pathSegments(path string) []string {
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// Classify reports whether ticker names a series, an event or a market by
// counting hyphen-separated parts. It is a structural heuristic only.
func Classify(ticker string) model.TickerKind {
	switch parts := strings.Split(ticker, "-"); {
	case len(parts) >= 3:
		return model.KindMarket
	case len(parts) == 2:
		return model.KindEvent
	default:
		return model.KindSeries
	}
}

// HasDateSuffix reports whether the second part of ticker looks like an
// event date such as 26FEB or 24JAN01.
func HasDateSuffix(ticker string) bool {
	parts := strings.Split(ticker, "-")
	return len(parts) >= 2 && dateSuffix.MatchString(parts[1])
}

// SeriesPrefix returns the series part of an event or market ticker.
func SeriesPrefix(ticker string) string {
	series, _, _ := strings.Cut(ticker, "-")
	return series
}

// EventPrefix returns the event ticker a market ticker belongs to, or the
// input unchanged when it has fewer than three parts.
func EventPrefix(ticker string) string {
	parts := strings.Split(ticker, "-")
	if len(parts) < 3 {
		return ticker
	}
	return parts[0] + "-" + parts[1]
}
