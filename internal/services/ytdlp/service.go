package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Command is the yt-dlp binary name resolved from PATH.
const Command = "yt-dlp"

const (
	// DefaultAudioFormat is the extraction format passed to yt-dlp.
	DefaultAudioFormat = "mp3"

	defaultCDNBaseURL = "https://img.youtube.com"
	cdnTimeout        = 10 * time.Second
	fallbackTimeout   = 30 * time.Second

	// minThumbnailBytes filters out the placeholder images the CDN serves for
	// missing resolutions.
	minThumbnailBytes = 1000
)

// audioExtensions lists the formats yt-dlp may produce, in pickup order.
var audioExtensions = []string{"mp3", "m4a", "webm", "opus", "wav"}

var thumbnailExtensions = []string{"jpg", "png", "webp"}

// cdnVariants are tried best-resolution first.
var cdnVariants = []string{"maxresdefault", "sddefault", "hqdefault"}

// Config captures runtime settings for yt-dlp operations.
type Config struct {
	// Binary overrides the yt-dlp binary (defaults to Command).
	Binary string
	// AudioFormat is the target extraction format (defaults to DefaultAudioFormat).
	AudioFormat string
}

// Service downloads audio and thumbnails for video URLs.
type Service struct {
	cfg           Config
	httpClient    *http.Client
	cdnBaseURL    string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a yt-dlp service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = Command
	}
	if cfg.AudioFormat == "" {
		cfg.AudioFormat = DefaultAudioFormat
	}
	return &Service{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cdnTimeout},
		cdnBaseURL: defaultCDNBaseURL,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// WithHTTPClient overrides the thumbnail HTTP client (for testing).
func (s *Service) WithHTTPClient(client *http.Client) {
	if client != nil {
		s.httpClient = client
	}
}

// WithCDNBaseURL overrides the YouTube thumbnail CDN base URL (for testing).
func (s *Service) WithCDNBaseURL(baseURL string) {
	if baseURL != "" {
		s.cdnBaseURL = strings.TrimRight(baseURL, "/")
	}
}

// DownloadAudio fetches a video's audio track into outputDir and returns the
// path of the downloaded file. The filename carries the video title, so
// callers can derive a display title from the base name.
func (s *Service) DownloadAudio(ctx context.Context, rawURL, outputDir string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", errors.New("download audio: url required")
	}
	if outputDir == "" {
		return "", errors.New("download audio: output dir required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("download audio: ensure output dir: %w", err)
	}

	args := []string{
		"-x",
		"--audio-format", s.cfg.AudioFormat,
		"-o", filepath.Join(outputDir, "%(title)s.%(ext)s"),
		"--no-playlist",
		rawURL,
	}
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return "", fmt.Errorf("download audio: %w", err)
	}

	for _, ext := range audioExtensions {
		matches, err := filepath.Glob(filepath.Join(outputDir, "*."+ext))
		if err != nil {
			return "", fmt.Errorf("download audio: scan output: %w", err)
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", errors.New("download audio: no audio file found after download")
}

// DownloadThumbnail fetches the best available thumbnail for a video into
// outputDir. YouTube IDs are resolved against the image CDN first,
// highest resolution first; everything else (and CDN misses) falls back to
// yt-dlp's own thumbnail extraction. It returns the written path, or "" with
// a nil error when no thumbnail exists. Thumbnails are decorative, so callers
// usually log failures and move on.
func (s *Service) DownloadThumbnail(ctx context.Context, rawURL, videoID, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("download thumbnail: ensure output dir: %w", err)
	}

	if videoID != "" && !strings.HasPrefix(videoID, "ig_") && !strings.HasPrefix(videoID, "tt_") {
		for _, variant := range cdnVariants {
			path, ok := s.fetchCDNThumbnail(ctx, videoID, variant, outputDir)
			if ok {
				return path, nil
			}
		}
	}

	fallbackCtx, cancel := context.WithTimeout(ctx, fallbackTimeout)
	defer cancel()
	args := []string{
		"--write-thumbnail",
		"--skip-download",
		"-o", filepath.Join(outputDir, "thumb"),
		rawURL,
	}
	if err := s.run(fallbackCtx, s.cfg.Binary, args...); err != nil {
		return "", fmt.Errorf("download thumbnail: %w", err)
	}
	for _, ext := range thumbnailExtensions {
		matches, err := filepath.Glob(filepath.Join(outputDir, "thumb*."+ext))
		if err != nil {
			return "", fmt.Errorf("download thumbnail: scan output: %w", err)
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", nil
}

// fetchCDNThumbnail tries one CDN resolution variant. Failures are treated as
// misses so the caller can continue down the variant list.
func (s *Service) fetchCDNThumbnail(ctx context.Context, videoID, variant, outputDir string) (string, bool) {
	endpoint := fmt.Sprintf("%s/vi/%s/%s.jpg", s.cdnBaseURL, videoID, variant)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", false
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) <= minThumbnailBytes {
		return "", false
	}
	path := filepath.Join(outputDir, videoID+".jpg")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", false
	}
	return path, true
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
