package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// DefaultPeriodInterval is the candlestick width (minutes) used when none is given.
const DefaultPeriodInterval = 60

// GetSeries fetches a series by ticker.
func (c *Client) GetSeries(ctx context.Context, seriesTicker string) (*RawSeries, error) {
	var resp SeriesResponse
	if err := c.get(ctx, "/series/"+url.PathEscape(seriesTicker), nil, &resp); err != nil {
		return nil, fmt.Errorf("get series %s: %w", seriesTicker, err)
	}
	return &resp.Series, nil
}

// GetCandlesticks fetches OHLC history for a market within a series.
func (c *Client) GetCandlesticks(ctx context.Context, seriesTicker, ticker string, opts CandlesticksOptions) ([]RawCandlestick, error) {
	period := opts.PeriodInterval
	if period <= 0 {
		period = DefaultPeriodInterval
	}

	query := url.Values{}
	query.Set("start_ts", strconv.FormatInt(opts.StartTs, 10))
	query.Set("end_ts", strconv.FormatInt(opts.EndTs, 10))
	query.Set("period_interval", strconv.Itoa(period))
	query.Set("include_latest_before_start", "true")

	path := "/series/" + url.PathEscape(seriesTicker) + "/markets/" + url.PathEscape(ticker) + "/candlesticks"

	var resp CandlesticksResponse
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("get candlesticks %s: %w", ticker, err)
	}
	return resp.Candlesticks, nil
}
