// Package llm provides an OpenRouter chat client for recipe extraction.
//
// This package is used by:
//   - Extract stage: turn a video transcript into a schema.org recipe document
//
// # Extraction Logic
//
// The client sends the transcript and source URL to a configured LLM model
// with a fixed system prompt describing the expected schema.org Recipe shape.
// The response is expected to be a JSON object, optionally wrapped in
// markdown code fences; fences are stripped before parsing. Parse failures
// carry an excerpt of the raw response for diagnosis.
//
// # Configuration
//
// Requires api_key, model, and optionally base_url, referer, title, timeout.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.ExtractRecipe: transcript-specific extraction (for the extract stage).
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Context cancellation aborts retries immediately.
package llm
