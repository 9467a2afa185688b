package api

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"yt2tandoor/internal/preflight"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/stage"
	"yt2tandoor/internal/workflow"
)

// FromQueueItem converts a queue record to its API representation.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}

	dto := QueueItem{
		ID:       item.ID,
		VideoURL: item.VideoURL,
		VideoID:  item.VideoID,
		Title:    item.Title,
		Status:   string(item.Status),
		Progress: QueueProgress{
			Stage:   item.ProgressStage,
			Percent: item.ProgressPercent,
			Message: item.ProgressMessage,
		},
		ErrorMessage:      item.ErrorMessage,
		ServingsOverride:  item.ServingsOverride,
		BypassCache:       item.BypassCache,
		ForcePublish:      item.ForcePublish,
		TranscriptCached:  item.TranscriptCached,
		AudioPath:         item.AudioPath,
		TranscriptPath:    item.TranscriptPath,
		RecipeName:        item.RecipeName,
		RecipeID:          item.RecipeID,
		RecipeURL:         item.RecipeURL,
		FallbackPath:      item.FallbackPath,
		DuplicateRecipeID: item.DuplicateRecipeID,
		NeedsReview:       item.NeedsReview,
		ReviewReason:      item.ReviewReason,
	}

	if dto.Progress.Stage == "" {
		dto.Progress.Stage = queue.StatusLabel(item.Status)
	}
	if item.Status == queue.StatusCompleted && !item.NeedsReview {
		dto.Progress.Stage = queue.StatusLabel(queue.StatusCompleted)
		dto.Progress.Percent = 100
	}

	if !item.CreatedAt.IsZero() {
		dto.CreatedAt = item.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if raw := strings.TrimSpace(item.RecipeData); raw != "" {
		dto.Recipe = json.RawMessage(raw)
	}
	return dto
}

// FromQueueItems converts a slice of queue records into API DTOs.
func FromQueueItems(items []*queue.Item) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		Running:     summary.Running,
		QueueStats:  MergeQueueStats(summary.QueueStats),
		StageHealth: StageHealthSlice(summary.StageHealth),
	}

	if summary.LastError != "" {
		wf.LastError = summary.LastError
	}
	if summary.LastItem != nil {
		last := FromQueueItem(summary.LastItem)
		wf.LastItem = &last
	}
	return wf
}

// MergeQueueStats produces a string-keyed representation of queue stats.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FromPreflightResults converts preflight check results into dependency DTOs.
func FromPreflightResults(results []preflight.Result) []DependencyStatus {
	if len(results) == 0 {
		return nil
	}
	out := make([]DependencyStatus, 0, len(results))
	for _, res := range results {
		out = append(out, DependencyStatus{
			Name:        res.Name,
			Command:     res.Command,
			Description: res.Description,
			Optional:    res.Optional,
			Available:   res.Available,
			Detail:      res.Detail,
		})
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
