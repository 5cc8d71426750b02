// Package repositories implements SQLite persistence for request history.
//
// Key Implementations:
//   - [RequestRepository] : insert, lookup, listing and pruning of finished requests
//   - [HistoryRecorder] : adapter used by the pipeline to record each terminal request
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table counters kept in dedicated sequence tables.
//
// The pipeline never reads from these tables; history exists for the CLI only.
package repositories
