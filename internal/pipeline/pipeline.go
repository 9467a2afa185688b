// Package pipeline composes the four processing stages in execution order.
// The daemon registers them on the workflow manager; the process command runs
// them in the foreground through stageexec.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/download"
	"yt2tandoor/internal/extract"
	"yt2tandoor/internal/notifications"
	"yt2tandoor/internal/publish"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/stage"
	"yt2tandoor/internal/stageexec"
	"yt2tandoor/internal/transcribe"
	"yt2tandoor/internal/workflow"
)

// Stage names in execution order.
const (
	StageDownload   = "download"
	StageTranscribe = "transcribe"
	StageExtract    = "extract"
	StagePublish    = "publish"
)

// Definition pairs a named stage handler with the statuses it moves between.
type Definition struct {
	Name       string
	Handler    stage.Handler
	Processing queue.Status
	Done       queue.Status
}

// StagesFor builds the pipeline stages with their default collaborators, in
// execution order.
func StagesFor(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) ([]Definition, error) {
	publisher, err := publish.NewPublisher(cfg, store, logger, notifier)
	if err != nil {
		return nil, fmt.Errorf("build publish stage: %w", err)
	}
	return []Definition{
		{
			Name:       StageDownload,
			Handler:    download.NewDownloader(cfg, store, logger),
			Processing: queue.StatusDownloading,
			Done:       queue.StatusDownloaded,
		},
		{
			Name:       StageTranscribe,
			Handler:    transcribe.NewTranscriber(cfg, store, logger),
			Processing: queue.StatusTranscribing,
			Done:       queue.StatusTranscribed,
		},
		{
			Name:       StageExtract,
			Handler:    extract.NewExtractor(cfg, store, logger),
			Processing: queue.StatusExtracting,
			Done:       queue.StatusExtracted,
		},
		{
			Name:       StagePublish,
			Handler:    publisher,
			Processing: queue.StatusPublishing,
			Done:       queue.StatusCompleted,
		},
	}, nil
}

// Set converts ordered definitions into the workflow manager's stage set.
func Set(defs []Definition) workflow.StageSet {
	var set workflow.StageSet
	for _, def := range defs {
		switch def.Name {
		case StageDownload:
			set.Download = def.Handler
		case StageTranscribe:
			set.Transcribe = def.Handler
		case StageExtract:
			set.Extract = def.Handler
		case StagePublish:
			set.Publish = def.Handler
		}
	}
	return set
}

// RunOptions controls a foreground single-item run.
type RunOptions struct {
	// Observer, when set, is invoked before each stage starts.
	Observer func(stage string, item *queue.Item)
	// StopAfter names the last stage to run; empty runs the full pipeline.
	StopAfter string
}

// RunItem executes the pipeline stages for one item in the foreground,
// stopping at the first failure.
func RunItem(ctx context.Context, store *queue.Store, logger *slog.Logger, notifier notifications.Service, defs []Definition, item *queue.Item, opts RunOptions) error {
	for _, def := range defs {
		if opts.Observer != nil {
			opts.Observer(def.Name, item)
		}
		if err := stageexec.Run(ctx, stageexec.Options{
			Logger:     logger,
			Store:      store,
			Notifier:   notifier,
			Handler:    def.Handler,
			StageName:  def.Name,
			Processing: def.Processing,
			Done:       def.Done,
			Item:       item,
		}); err != nil {
			return err
		}
		if opts.StopAfter != "" && def.Name == opts.StopAfter {
			return nil
		}
	}
	return nil
}
