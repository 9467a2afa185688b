// Package whisper wraps the whisper CLI for audio transcription.
//
// The service invokes the binary with txt output, reads the transcript file
// whisper writes next to the audio, and returns the trimmed text. Model and
// language come from configuration; unrecognized language hints are dropped
// so whisper falls back to auto-detection.
package whisper
