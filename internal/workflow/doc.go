// Package workflow advances queue items through the configured processing
// stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// items into registered stage handlers (download, transcribe, extract,
// publish) while capturing progress and failure metadata. It also aggregates
// queue stats, calls stage health checks, and emits queue-level notifications
// when processing starts or completes.
//
// A single runner goroutine owns the pipeline, so at most one item is in
// flight at any time. Submissions only append to the queue; the runner picks
// items oldest-first, which preserves FIFO ordering across stages. A failed
// item is marked failed and the runner moves on, so one bad video never
// stalls the queue.
//
// Add new lifecycle stages by extending StageSet, updating the queue status
// enums, and teaching the manager how to transition items; this package is
// the authoritative home for that coordination logic.
package workflow
