// Package preflight provides readiness checks for the external tools and
// services the pipeline depends on.
//
// These checks run in two contexts:
//   - The daemon runs Check at startup and logs the outcome, retrying the
//     Tandoor probe with backoff so a daemon that boots before Tandoor does
//     not report a dead dependency.
//   - The CLI "yt2tandoor status" command renders the same results as a
//     dependency table.
//
// Every check returns a Result rather than an error so callers can display
// partial failures without aborting.
package preflight
