// Package main hosts the realigner CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, then dispatches to the
// internal packages: run drives a realignment pass, check reports readiness,
// status summarizes the ledger, and config scaffolds or validates the TOML
// settings file. Keep the heavy lifting in internal packages and surface it
// here through flags and rendering only.
package main
