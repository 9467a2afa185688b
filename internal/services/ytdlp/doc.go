// Package ytdlp wraps the yt-dlp binary for audio and thumbnail downloads.
//
// This package handles:
//   - Audio extraction from a video URL (title-named output file)
//   - Thumbnail retrieval, preferring the YouTube image CDN and falling back
//     to yt-dlp's own thumbnail extraction for other platforms
//
// Audio download failures are fatal to the pipeline; thumbnail lookups are
// advisory and report "not found" separately from hard errors.
package ytdlp
