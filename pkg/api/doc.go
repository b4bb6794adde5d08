// Package api defines the persisted record of the benchmark: one CallLog
// per (task, model) pair.
//
// A CallLog combines the identifying fields of the task that produced it,
// the ModelSpec it was sent to, and the ResponseContract the adapter
// returned, plus the configuration that was in effect. CallLogs are
// append-only: sinks write them and nothing mutates them afterwards.
//
// Core types:
//   - [Task]: one GenerationRequest with its experiment and prompt identity
//   - [CallLog]: the persisted outcome of one Task on one model
//   - [RecordError]: a CallLog that violates a record invariant
//
// The package performs no I/O. JSON field names match the line-delimited
// log format consumed by downstream analysis.
package api
