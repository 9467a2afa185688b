// Package transcriptcache persists Whisper transcripts keyed by canonical
// video ID so resubmitted videos skip download and transcription.
//
// Each transcript lives in its own file under the configured cache directory,
// which keeps entries individually inspectable and lets users prune them with
// ordinary shell tools. Writes go through a temp file and rename so a crashed
// daemon never leaves a truncated transcript behind.
package transcriptcache
