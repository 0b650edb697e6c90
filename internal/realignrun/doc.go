// Package realignrun hosts the process-level wiring around a realignment run.
//
// It installs signal handling, opens a per-invocation log file under the log
// directory (with a realigner.log pointer to the newest one), prunes old logs,
// runs the preflight checks, opens the ledger, and hands control to
// realign.Runner.
package realignrun
