// Package preflight provides readiness checks for the filesystem paths
// and embedded data that Vigil depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs any failures before
//     the pipeline begins accepting events.
//   - The CLI "vigil status" command renders the results so operators
//     can see why a daemon refuses to ingest.
//
// Checks never block: everything inspected is local.
package preflight
