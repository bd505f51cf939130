// Package database manages the Postgres pool used to record quote
// snapshots and owns the recorder schema.
package database
