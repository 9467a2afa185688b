package api

import (
	"context"
	"fmt"
	"strings"

	"yt2tandoor/internal/staging"
)

// StagingSegmentsProvider surfaces the directory names the queue stages
// items under, so cleanup never touches a directory a stage may still be
// writing to.
type StagingSegmentsProvider interface {
	StagingSegments(ctx context.Context) (known, active map[string]struct{}, err error)
}

type CleanStagingRequest struct {
	StagingDir string
	CleanAll   bool
	Segments   StagingSegmentsProvider
}

type CleanStagingResult struct {
	Configured bool
	Scope      string
	Cleanup    staging.CleanResult
}

// CleanStagingDirectories applies staging cleanup policy used by CLI commands.
func CleanStagingDirectories(ctx context.Context, req CleanStagingRequest) (CleanStagingResult, error) {
	stagingDir := strings.TrimSpace(req.StagingDir)
	if stagingDir == "" {
		return CleanStagingResult{Configured: false}, nil
	}

	if req.CleanAll {
		return CleanStagingResult{
			Configured: true,
			Scope:      "staging",
			Cleanup:    staging.CleanStale(ctx, stagingDir, 0, nil),
		}, nil
	}

	if req.Segments == nil {
		return CleanStagingResult{}, fmt.Errorf("staging segments provider is required when clean_all is false")
	}
	known, active, err := req.Segments.StagingSegments(ctx)
	if err != nil {
		return CleanStagingResult{}, err
	}
	return CleanStagingResult{
		Configured: true,
		Scope:      "orphaned staging",
		Cleanup:    staging.CleanOrphaned(ctx, stagingDir, known, active, nil),
	}, nil
}
