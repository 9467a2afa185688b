// Package extract implements the recipe-extraction pipeline stage. It feeds
// the transcript to the configured LLM and stores the structured recipe
// document on the queue item for the publish stage.
package extract
