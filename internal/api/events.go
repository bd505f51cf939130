package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// GetEvents fetches a page of events.
func (c *Client) GetEvents(ctx context.Context, opts GetEventsOptions) (*EventsResponse, error) {
	query := url.Values{}

	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	setIfNotEmpty(query, "cursor", opts.Cursor)
	setIfNotEmpty(query, "series_ticker", opts.SeriesTicker)
	setIfNotEmpty(query, "status", opts.Status)
	query.Set("with_nested_markets", strconv.FormatBool(opts.WithNestedMarkets))

	var resp EventsResponse
	if err := c.get(ctx, "/events", query, &resp); err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}

	return &resp, nil
}

// GetEvent fetches a single event by ticker. With nested set, the event's
// markets are included in RawEvent.Markets regardless of which of the two
// response layouts the API used.
func (c *Client) GetEvent(ctx context.Context, eventTicker string, nested bool) (*RawEvent, error) {
	var query url.Values
	if nested {
		query = url.Values{"with_nested_markets": {"true"}}
	}

	var resp SingleEventResponse
	if err := c.get(ctx, "/events/"+url.PathEscape(eventTicker), query, &resp); err != nil {
		return nil, fmt.Errorf("get event %s: %w", eventTicker, err)
	}

	event := resp.Event
	if len(event.Markets) == 0 && len(resp.Markets) > 0 {
		event.Markets = resp.Markets
	}
	return &event, nil
}
