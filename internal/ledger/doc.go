// Package ledger persists realignment runs and per-clip outcomes in SQLite.
//
// Each run gets a row keyed by its run id with counters updated as it
// finishes. Every processed group appends an outcome row (done, empty,
// failed or planned) carrying the output path, segment count, frame rate,
// expected and measured durations, and the failure kind when one occurred.
// The most recent outcome per clip drives `run --resume`, and the run rows
// feed the `status` command.
//
// The store opens the database in WAL mode and retries writes that hit
// SQLITE_BUSY with a short exponential backoff.
package ledger
