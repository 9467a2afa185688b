// Package notifications delivers pipeline events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Enumerated event types cover the pipeline milestones (job queued,
// queue started, recipe published, errors, queue completed) so callers emit
// consistent messages without duplicating HTTP glue. Per-event enable toggles
// and an identical-message dedup window live here so emitters never gate
// themselves.
//
// Extend this package if you need alternative transports; all workflow code
// depends only on the simple Service interface.
package notifications
