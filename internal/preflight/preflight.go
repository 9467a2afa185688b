package preflight

import (
	"context"
	"log/slog"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/deps"
)

// Result reports the outcome of a single readiness check. Command is only
// set for binary checks; service and filesystem checks leave it empty.
type Result struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Check evaluates every dependency the pipeline needs: required binaries,
// staging disk space, Tandoor reachability, and the LLM API. The Tandoor
// probe retries with backoff for up to defaultTandoorWait; bound ctx to
// shorten it.
func Check(ctx context.Context, cfg *config.Config, logger *slog.Logger) []Result {
	if cfg == nil {
		return nil
	}

	results := CheckBinaries(cfg)
	results = append(results, CheckStaging(cfg.Paths.StagingDir, cfg.Paths.MinFreeGiB))
	results = append(results, CheckTandoor(ctx, cfg, logger, defaultTandoorWait))
	results = append(results, CheckLLM(ctx, cfg.GetLLM()))
	return results
}

// CheckBinaries reports on the external executables the pipeline shells out
// to. Both the daemon and the CLI status command use this so the two
// surfaces agree on the requirements list.
func CheckBinaries(cfg *config.Config) []Result {
	requirements := []deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.YtDlpBinary(),
			Description: "Required for audio and thumbnail download",
		},
		{
			Name:        "whisper",
			Command:     cfg.WhisperBinary(),
			Description: "Required for transcription",
		},
	}

	statuses := deps.CheckBinaries(requirements)
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		results = append(results, Result{
			Name:        status.Name,
			Command:     status.Command,
			Description: status.Description,
			Optional:    status.Optional,
			Available:   status.Available,
			Detail:      status.Detail,
		})
	}
	return results
}

// AllAvailable reports whether every required check passed. Optional
// failures do not block.
func AllAvailable(results []Result) bool {
	for _, result := range results {
		if result.Optional {
			continue
		}
		if !result.Available {
			return false
		}
	}
	return true
}
