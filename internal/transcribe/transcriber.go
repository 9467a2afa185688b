package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/services"
	"yt2tandoor/internal/services/whisper"
	"yt2tandoor/internal/stage"
	"yt2tandoor/internal/transcriptcache"
)

// Engine is the transcription backend the stage drives.
type Engine interface {
	Transcribe(ctx context.Context, audioPath, outputDir string) (string, error)
	Model() string
}

// Transcriber turns downloaded audio into transcript text.
type Transcriber struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	engine Engine
	cache  *transcriptcache.Cache
}

// NewTranscriber constructs the transcribe handler using default dependencies.
func NewTranscriber(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Transcriber {
	engine := whisper.NewService(whisper.Config{
		Binary:   cfg.WhisperBinary(),
		Model:    cfg.Transcriber.Model,
		Language: cfg.Transcriber.Language,
	})
	cache := transcriptcache.New(cfg.Paths.CacheDir, logger)
	return NewTranscriberWithDependencies(cfg, store, logger, engine, cache)
}

// NewTranscriberWithDependencies allows injecting collaborators (used in tests).
func NewTranscriberWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, engine Engine, cache *transcriptcache.Cache) *Transcriber {
	return &Transcriber{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "transcribe"),
		engine: engine,
		cache:  cache,
	}
}

func (t *Transcriber) Prepare(ctx context.Context, item *queue.Item) error {
	if item.ProgressStage == "" {
		item.ProgressStage = "Transcribing"
	}
	item.ProgressMessage = "Starting transcription"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)

	if item.TranscriptCached {
		if _, err := os.Stat(item.TranscriptPath); err != nil {
			return services.Wrap(services.ErrValidation, "transcribe", "verify cached transcript",
				"Cached transcript is no longer readable; resubmit the video to regenerate it", err)
		}
		logger.Info("skipping transcription for cached transcript",
			logging.String(logging.FieldVideoID, item.VideoID),
			logging.String("transcript_path", item.TranscriptPath),
		)
		item.SetProgressComplete("Transcribed", "Using cached transcript")
		return nil
	}

	if strings.TrimSpace(item.AudioPath) == "" {
		return services.Wrap(services.ErrValidation, "transcribe", "locate audio",
			"No audio file recorded for this item; rerun the download stage", nil)
	}
	if _, err := os.Stat(item.AudioPath); err != nil {
		return services.Wrap(services.ErrValidation, "transcribe", "locate audio",
			"Audio file is missing from staging; rerun the download stage", err)
	}

	stagingDir := item.StagingRoot(t.cfg.Paths.StagingDir)
	logger.Info("starting transcription",
		logging.String("audio_path", item.AudioPath),
		logging.String("model", t.engine.Model()),
	)
	t.updateProgress(ctx, item, fmt.Sprintf("Transcribing with Whisper (%s model)", t.engine.Model()), 10)

	// Whisper gives no incremental output we can parse, so a ticker keeps the
	// queue row moving while the external process runs.
	progressCtx, stopProgress := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go t.emitProgress(progressCtx, &wg, item)

	transcribeCtx := ctx
	if timeout := time.Duration(t.cfg.Transcriber.TranscribeTimeout) * time.Second; timeout > 0 {
		var cancel context.CancelFunc
		transcribeCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	transcript, err := t.engine.Transcribe(transcribeCtx, item.AudioPath, stagingDir)
	stopProgress()
	wg.Wait()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "transcribe", "run whisper",
			"Transcription failed; check the whisper installation and model name", err)
	}
	if strings.TrimSpace(transcript) == "" {
		return services.Wrap(services.ErrExternalTool, "transcribe", "read transcript",
			"Whisper produced an empty transcript; the audio may be silent or corrupted", nil)
	}

	transcriptPath := filepath.Join(stagingDir, t.transcriptName(item))
	if err := os.WriteFile(transcriptPath, []byte(transcript), 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "write transcript",
			"Failed to write transcript to staging; check paths.staging_dir permissions", err)
	}
	item.TranscriptPath = transcriptPath

	// Cache writes are unconditional so a bypassed read still refreshes the
	// cache for the next submission of the same video.
	if t.cache != nil && item.VideoID != "" {
		if err := t.cache.Store(item.VideoID, transcript); err != nil {
			logger.Warn("failed to cache transcript",
				logging.String(logging.FieldVideoID, item.VideoID),
				logging.Error(err),
			)
		}
	}

	logger.Info("transcription complete",
		logging.String("transcript_path", transcriptPath),
		logging.Int("transcript_chars", len(transcript)),
	)
	item.SetProgressComplete("Transcribed", "Transcription complete")
	return nil
}

// emitProgress updates the queue row on a fixed interval until cancelled.
func (t *Transcriber) emitProgress(ctx context.Context, wg *sync.WaitGroup, item *queue.Item) {
	defer wg.Done()
	interval := time.Duration(t.cfg.Transcriber.ProgressInterval) * time.Second
	if interval <= 0 {
		return
	}
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := time.Since(start)
			minutes := int(elapsed.Minutes())
			seconds := int(elapsed.Seconds()) % 60
			snapshot := *item
			snapshot.ProgressMessage = fmt.Sprintf("Transcribing... (%dm %02ds elapsed)", minutes, seconds)
			if t.store == nil {
				continue
			}
			if err := t.store.UpdateProgress(ctx, &snapshot); err != nil {
				logging.WithContext(ctx, t.logger).Warn("failed to persist transcription progress", logging.Error(err))
				continue
			}
			logging.WithContext(ctx, t.logger).Info("transcription in progress",
				logging.String("progress_message", snapshot.ProgressMessage),
			)
		}
	}
}

// transcriptName keys the transcript by video ID when one exists, falling back
// to the audio file stem for URLs we could not canonicalize.
func (t *Transcriber) transcriptName(item *queue.Item) string {
	base := strings.TrimSpace(item.VideoID)
	if base == "" {
		stem := filepath.Base(item.AudioPath)
		base = strings.TrimSuffix(stem, filepath.Ext(stem))
	}
	return base + ".transcript"
}

// HealthCheck verifies whisper availability.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcribe"
	if t.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if t.engine == nil {
		return stage.Unhealthy(name, "whisper service unavailable")
	}
	binary := strings.TrimSpace(t.cfg.WhisperBinary())
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("%s not found in PATH", binary))
	}
	return stage.Healthy(name)
}

func (t *Transcriber) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.ProgressMessage = message
	item.ProgressPercent = percent
	if t.store == nil {
		return
	}
	if err := t.store.UpdateProgress(ctx, item); err != nil {
		logging.WithContext(ctx, t.logger).Warn("failed to persist transcription progress", logging.Error(err))
	}
}
