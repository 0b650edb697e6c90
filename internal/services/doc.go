// Package services defines shared utilities consumed by the realignment
// pipeline and its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and the current
//     split/dialogue/utterance group for logging.
//   - Structured error markers plus the Wrap helper so extraction and
//     assembly failures can be told apart with errors.Is.
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform.
package services
