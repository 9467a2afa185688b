// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates internal queue models into transport-friendly DTOs
// so CLI commands and HTTP consumers render the same shapes without coupling
// to internal types.
//
// # Key Types
//
// QueueItem: transport representation of a queue entry with progress, result
// paths, and the extracted recipe document.
//
// WorkflowStatus: daemon running state, queue stats, stage health, and last item.
//
// DaemonStatus: aggregated runtime information including dependency checks.
//
// SubmitRequest/SubmitResponse: queue admission payloads shared by IPC Submit
// and POST /api/queue.
//
// # Converters
//
// FromQueueItem: queue.Item -> QueueItem; the stored recipe JSON is passed
// through as json.RawMessage to avoid double-encoding.
//
// FromStatusSummary: workflow.StatusSummary -> WorkflowStatus.
//
// FromPreflightResults: preflight.Result -> DependencyStatus.
//
// StageHealthSlice: deterministic ordering of stage health map.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (queue.Status) are exposed as lowercase strings. Timestamps use
// RFC3339 with milliseconds.
package api
