package download

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/services"
	"yt2tandoor/internal/services/ytdlp"
	"yt2tandoor/internal/stage"
	"yt2tandoor/internal/transcriptcache"
	"yt2tandoor/internal/videoid"
)

// Fetcher is the subset of the yt-dlp service the download stage uses.
type Fetcher interface {
	DownloadAudio(ctx context.Context, rawURL, outputDir string) (string, error)
	DownloadThumbnail(ctx context.Context, rawURL, videoID, outputDir string) (string, error)
}

// Downloader resolves the transcript cache and fetches media for queue items.
type Downloader struct {
	store   *queue.Store
	cfg     *config.Config
	logger  *slog.Logger
	fetcher Fetcher
	cache   *transcriptcache.Cache
}

// NewDownloader constructs the download handler using default dependencies.
func NewDownloader(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Downloader {
	fetcher := ytdlp.NewService(ytdlp.Config{
		Binary:      cfg.YtDlpBinary(),
		AudioFormat: cfg.Downloader.AudioFormat,
	})
	cache := transcriptcache.New(cfg.Paths.CacheDir, logger)
	return NewDownloaderWithDependencies(cfg, store, logger, fetcher, cache)
}

// NewDownloaderWithDependencies allows injecting collaborators (used in tests).
func NewDownloaderWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, fetcher Fetcher, cache *transcriptcache.Cache) *Downloader {
	return &Downloader{
		store:   store,
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "download"),
		fetcher: fetcher,
		cache:   cache,
	}
}

func (d *Downloader) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Downloading"
	}
	item.ProgressMessage = "Starting download"
	item.ProgressPercent = 0
	item.ErrorMessage = ""

	// The staging path is keyed by video ID, so derive it before the
	// directory is created.
	if item.VideoID == "" {
		if id, ok := videoid.Canonical(item.VideoURL); ok {
			item.VideoID = id
		}
	}

	stagingDir := item.StagingRoot(d.cfg.Paths.StagingDir)
	if stagingDir == "" {
		return services.Wrap(
			services.ErrConfiguration,
			"download",
			"resolve staging dir",
			"Staging directory not configured; set paths.staging_dir to a writable location",
			nil,
		)
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"download",
			"ensure staging dir",
			"Failed to create staging directory; check paths.staging_dir permissions",
			err,
		)
	}
	logger.Info(
		"starting download preparation",
		logging.String("video_url", strings.TrimSpace(item.VideoURL)),
		logging.String("staging_dir", stagingDir),
	)
	return nil
}

func (d *Downloader) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)

	stagingDir := item.StagingRoot(d.cfg.Paths.StagingDir)
	logger.Info(
		"starting download",
		logging.String("video_url", strings.TrimSpace(item.VideoURL)),
		logging.String(logging.FieldVideoID, item.VideoID),
		logging.Bool("bypass_cache", item.BypassCache),
	)

	cached := false
	if !item.BypassCache && d.cache != nil {
		if _, ok := d.cache.Lookup(item.VideoID); ok {
			cached = true
			item.TranscriptCached = true
			item.TranscriptPath = d.cache.Path(item.VideoID)
			item.SetProgress("Downloading", "Using cached transcript", 50)
			d.persistProgress(ctx, item)
			logger.Info(
				"transcript cache hit",
				logging.String(logging.FieldVideoID, item.VideoID),
				logging.String("transcript_path", item.TranscriptPath),
			)
		}
	}

	if !cached {
		d.updateProgress(ctx, item, "Fetching audio track", 10)
		downloadCtx := ctx
		if timeout := time.Duration(d.cfg.Downloader.DownloadTimeout) * time.Second; timeout > 0 {
			var cancel context.CancelFunc
			downloadCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		audioPath, err := d.fetcher.DownloadAudio(downloadCtx, item.VideoURL, stagingDir)
		if err != nil {
			return services.Wrap(
				services.ErrExternalTool,
				"download",
				"fetch audio",
				"Audio download failed; check the video URL and yt-dlp installation",
				err,
			)
		}
		item.AudioPath = audioPath
		if title := titleFromAudioPath(audioPath); title != "" {
			item.Title = title
		}
		logger.Info(
			"audio download finished",
			logging.String("audio_path", audioPath),
			logging.String("title", strings.TrimSpace(item.Title)),
		)
	}

	d.fetchThumbnail(ctx, item, stagingDir)

	message := "Audio downloaded"
	if cached {
		message = "Using cached transcript"
	}
	item.SetProgressComplete("Downloaded", message)
	return nil
}

// fetchThumbnail grabs artwork for the eventual recipe page. Thumbnails are
// decorative; failures are logged and the pipeline moves on.
func (d *Downloader) fetchThumbnail(ctx context.Context, item *queue.Item, stagingDir string) {
	logger := logging.WithContext(ctx, d.logger)
	thumbCtx := ctx
	if timeout := time.Duration(d.cfg.Downloader.ThumbnailTimeout) * time.Second; timeout > 0 {
		var cancel context.CancelFunc
		thumbCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	path, err := d.fetcher.DownloadThumbnail(thumbCtx, item.VideoURL, item.VideoID, stagingDir)
	if err != nil {
		logger.Warn("thumbnail download failed", logging.Error(err))
		return
	}
	if path == "" {
		logger.Debug("no thumbnail available")
		return
	}
	item.ThumbnailPath = path
	logger.Info("thumbnail downloaded", logging.String("thumbnail_path", path))
}

// HealthCheck verifies yt-dlp availability and staging configuration.
func (d *Downloader) HealthCheck(ctx context.Context) stage.Health {
	const name = "download"
	if d.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Paths.StagingDir) == "" {
		return stage.Unhealthy(name, "staging directory not configured")
	}
	if d.fetcher == nil {
		return stage.Unhealthy(name, "yt-dlp service unavailable")
	}
	binary := strings.TrimSpace(d.cfg.YtDlpBinary())
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("%s not found in PATH", binary))
	}
	return stage.Healthy(name)
}

func (d *Downloader) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.ProgressMessage = message
	item.ProgressPercent = percent
	d.persistProgress(ctx, item)
}

func (d *Downloader) persistProgress(ctx context.Context, item *queue.Item) {
	if d.store == nil {
		return
	}
	if err := d.store.UpdateProgress(ctx, item); err != nil {
		logging.WithContext(ctx, d.logger).Warn("failed to persist download progress", logging.Error(err))
	}
}

// titleFromAudioPath derives a display title from the downloaded file. yt-dlp
// names the file after the video title, so the stem is already human readable.
func titleFromAudioPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}
