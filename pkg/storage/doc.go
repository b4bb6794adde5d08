// Package storage defines the Sink that persists CallLogs and helpers
// shared across sink implementations.
//
// Sinks (jsonl, tabular, snapshot, memory, postgres, sqlite) live in
// subpackages. Every sink makes a record durable before Write returns, so
// an interrupted run loses at most the call in flight. Write may be called
// from several goroutines; implementations serialize it.
package storage
