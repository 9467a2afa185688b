// Package services defines shared utilities consumed by the pipeline stage
// handlers and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp queue item IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification and user-facing messages uniform across stages.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays consistent across the pipeline.
package services
