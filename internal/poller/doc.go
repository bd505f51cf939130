// Package poller implements the snapshot poller.
//
// The poller:
//   - Loads the grouped browse page every interval
//   - Refreshes watchlist markets with bounded concurrency
//   - Stamps each cycle with a fresh cycle ID
//   - Hands the snapshot to every handler (stream hub, quote writer)
package poller
