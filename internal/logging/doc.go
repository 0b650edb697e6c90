// Package logging assembles structured slog loggers and formatting helpers used
// across the realigner.
//
// It owns the console/JSON handlers, routes output to stdout and the persistent
// log file, and exposes context-aware helpers so pipeline code automatically
// tags log lines with the run ID, stage, and split/dialogue/utterance group.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
