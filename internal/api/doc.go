// Package api provides a read-only client for the public Kalshi REST API.
//
// REST endpoints:
//   - Production: https://api.elections.kalshi.com/trade-api/v2
//   - Demo: https://demo-api.kalshi.co/trade-api/v2
//
// Responses are decoded into Raw* types that mirror the wire format,
// nulls included. Converting them into canonical model types is the job of
// the normalize and grouping packages.
package api
