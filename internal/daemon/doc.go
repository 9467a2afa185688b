// Package daemon coordinates the long-running yt2tandoor process.
//
// It wires configuration, queue storage, the workflow manager, and the
// optional HTTP API into a single lifecycle with flock-based locking to
// prevent multiple instances. The daemon owns submission (URL validation and
// bounded queue admission), exposes queue maintenance helpers, and caches the
// dependency readiness snapshot surfaced by status queries.
//
// Keep orchestration logic here: individual pipeline stages live in their
// respective packages while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
