// Package realign runs the realignment pipeline.
//
// A Processor turns one timestamps.Group into one output clip. It moves
// through four states: COLLECT cuts every row of the group into a segment
// inside a private workspace, ASSEMBLE relocates or concatenates those
// segments into the output clip, CLEANUP removes the workspace, and DONE
// reports the result. CLEANUP runs on every path, including failures.
//
// A Runner drives the Processor over every group of the realignment table,
// one group at a time in (split, dialogue, utterance) order. It holds an
// exclusive file lock for the duration of the run, stamps a run id onto
// the context, records each outcome in the ledger, and stops at the first
// failure. Runs can be limited to one split, resumed from the ledger, or
// planned without invoking ffmpeg.
package realign
