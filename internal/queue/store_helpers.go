package queue

import (
	"fmt"
	"strings"
	"time"
)

const itemColumns = `id, video_url, video_id, title, status, error_message,
    created_at, updated_at, progress_stage, progress_percent, progress_message,
    servings_override, bypass_cache, force_publish, transcript_cached,
    audio_path, thumbnail_path, transcript_path, recipe_data, recipe_name,
    recipe_id, recipe_url, fallback_path, duplicate_recipe_id,
    needs_review, review_reason, last_heartbeat`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(scanner rowScanner) (*Item, error) {
	var (
		item              Item
		videoID           *string
		title             *string
		status            string
		errorMessage      *string
		createdAt         string
		updatedAt         string
		progressStage     *string
		progressPercent   *float64
		progressMessage   *string
		bypassCache       int
		forcePublish      int
		transcriptCached  int
		audioPath         *string
		thumbnailPath     *string
		transcriptPath    *string
		recipeData        *string
		recipeName        *string
		recipeURL         *string
		fallbackPath      *string
		needsReview       int
		reviewReason      *string
		lastHeartbeatText *string
	)

	if err := scanner.Scan(
		&item.ID,
		&item.VideoURL,
		&videoID,
		&title,
		&status,
		&errorMessage,
		&createdAt,
		&updatedAt,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&item.ServingsOverride,
		&bypassCache,
		&forcePublish,
		&transcriptCached,
		&audioPath,
		&thumbnailPath,
		&transcriptPath,
		&recipeData,
		&recipeName,
		&item.RecipeID,
		&recipeURL,
		&fallbackPath,
		&item.DuplicateRecipeID,
		&needsReview,
		&reviewReason,
		&lastHeartbeatText,
	); err != nil {
		return nil, err
	}

	parsedStatus, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("scan item %d: unknown status %q", item.ID, status)
	}
	item.Status = parsedStatus
	item.VideoID = stringValue(videoID)
	item.Title = stringValue(title)
	item.ErrorMessage = stringValue(errorMessage)
	item.ProgressStage = stringValue(progressStage)
	item.ProgressMessage = stringValue(progressMessage)
	if progressPercent != nil {
		item.ProgressPercent = *progressPercent
	}
	item.BypassCache = bypassCache != 0
	item.ForcePublish = forcePublish != 0
	item.TranscriptCached = transcriptCached != 0
	item.AudioPath = stringValue(audioPath)
	item.ThumbnailPath = stringValue(thumbnailPath)
	item.TranscriptPath = stringValue(transcriptPath)
	item.RecipeData = stringValue(recipeData)
	item.RecipeName = stringValue(recipeName)
	item.RecipeURL = stringValue(recipeURL)
	item.FallbackPath = stringValue(fallbackPath)
	item.NeedsReview = needsReview != 0
	item.ReviewReason = stringValue(reviewReason)

	var err error
	if item.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, fmt.Errorf("scan item %d created_at: %w", item.ID, err)
	}
	if item.UpdatedAt, err = parseTimeString(updatedAt); err != nil {
		return nil, fmt.Errorf("scan item %d updated_at: %w", item.ID, err)
	}
	if lastHeartbeatText != nil && *lastHeartbeatText != "" {
		heartbeat, err := parseTimeString(*lastHeartbeatText)
		if err != nil {
			return nil, fmt.Errorf("scan item %d last_heartbeat: %w", item.ID, err)
		}
		item.LastHeartbeat = &heartbeat
	}

	return &item, nil
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
