// Package download implements the first pipeline stage: it resolves the
// transcript cache for the item's canonical video ID and, on a miss, fetches
// the audio track (and a thumbnail, best effort) into the item's staging
// directory with yt-dlp.
package download
