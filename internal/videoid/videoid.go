// Package videoid derives stable identifiers from video URLs so transcripts
// and queue items can be keyed independently of URL formatting.
package videoid

import (
	"regexp"
	"strings"
)

// hostPatterns maps supported video hosts to their ID extraction patterns.
// Non-YouTube hosts carry a short prefix so identifiers from different
// platforms cannot collide.
var hostPatterns = []struct {
	re     *regexp.Regexp
	prefix string
}{
	{regexp.MustCompile(`(?:v=|youtu\.be/|shorts/)([\w-]{11})`), ""},
	{regexp.MustCompile(`instagram\.com/(?:reel|p)/([\w-]+)`), "ig_"},
	{regexp.MustCompile(`tiktok\.com/.*/video/(\d+)`), "tt_"},
}

// videoURLPattern accepts any supported platform URL, including TikTok short
// links that carry no extractable ID. Admission checks use this; ID
// derivation is stricter.
var videoURLPattern = regexp.MustCompile(`(?i)^https?://(?:` +
	`(?:www\.)?youtube\.com/(?:watch\?.*v=|shorts/)` +
	`|youtu\.be/` +
	`|(?:www\.)?instagram\.com/(?:reel|p)/` +
	`|(?:www\.)?tiktok\.com/@[\w.]+/video/` +
	`|vm\.tiktok\.com/` +
	`)[\w/?=&%-]+`)

// Canonical extracts a stable video identifier from a supported host URL.
// It returns false when the URL does not match any supported host, in which
// case callers fall back to URL-keyed behavior without transcript caching.
func Canonical(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}
	for _, pattern := range hostPatterns {
		if match := pattern.re.FindStringSubmatch(rawURL); match != nil {
			return pattern.prefix + match[1], true
		}
	}
	return "", false
}

// IsVideoURL reports whether the URL points at a supported video platform.
// Queue admission rejects anything else before it reaches the downloader.
func IsVideoURL(rawURL string) bool {
	return videoURLPattern.MatchString(strings.TrimSpace(rawURL))
}

// IsYouTube reports whether the URL points at a YouTube video. YouTube
// exposes predictable thumbnail URLs, so downloads can skip yt-dlp for them.
func IsYouTube(rawURL string) bool {
	return strings.Contains(rawURL, "youtube") || strings.Contains(rawURL, "youtu.be")
}
