// Package sqlite provides durable storage for the ledger and the
// vector index, backed by a single SQLite database file.
package sqlite
