// Package model defines the canonical types shared by the terminal.
//
// Conventions:
//   - Prices: integer cents (0-100)
//   - Nullable upstream fields stay pointers; nil means the API did not say
//   - Timestamps from the API are kept as the ISO 8601 strings it sent
//
// Values are never mutated after construction and carry no back pointers,
// so they can be copied and shared between goroutines freely.
package model
