// Package transcribe implements the speech-to-text pipeline stage. Items that
// arrived with a cached transcript pass straight through; everything else runs
// through Whisper with a periodic progress ticker so long transcriptions stay
// visible in queue status.
package transcribe
