// Package preflight provides readiness checks for the binaries, files and
// directories the realigner depends on.
//
// These checks run in two contexts:
//   - `realigner run` calls RunAll before touching any clip and refuses to
//     start when a check fails.
//   - `realigner check` prints every result as a table.
package preflight
