package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NewJobParams carries the submission fields for a new queue item.
type NewJobParams struct {
	VideoURL         string
	VideoID          string
	Title            string
	ServingsOverride int
	BypassCache      bool
	ForcePublish     bool
}

// NewJob admits a video into the queue. Admission is bounded: when the number
// of pending items has reached the configured capacity the submission is
// rejected with ErrQueueFull, and a video that is already pending or in flight
// is rejected with ErrAlreadyQueued. Items currently being processed do not
// count against capacity. The returned position is 1-based among pending
// items, so callers can report how far back the new submission landed.
func (s *Store) NewJob(ctx context.Context, params NewJobParams) (*Item, int, error) {
	ctx = ensureContext(ctx)
	videoURL := strings.TrimSpace(params.VideoURL)
	if videoURL == "" {
		return nil, 0, errors.New("video url is required")
	}
	videoID := strings.TrimSpace(params.VideoID)

	var id int64
	var position int
	insert := func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin insert tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var active int
		row := tx.QueryRowContext(
			ctx,
			`SELECT COUNT(1) FROM queue_items
             WHERE status NOT IN (?, ?) AND (video_url = ? OR (? != '' AND video_id = ?))`,
			StatusCompleted,
			StatusFailed,
			videoURL,
			videoID,
			videoID,
		)
		if err := row.Scan(&active); err != nil {
			return fmt.Errorf("check active duplicates: %w", err)
		}
		if active > 0 {
			return ErrAlreadyQueued
		}

		var pending int
		row = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM queue_items WHERE status = ?`, StatusPending)
		if err := row.Scan(&pending); err != nil {
			return fmt.Errorf("count pending: %w", err)
		}
		if s.capacity > 0 && pending >= s.capacity {
			return fmt.Errorf("%w (max %d pending)", ErrQueueFull, s.capacity)
		}

		timestamp := time.Now().UTC().Format(time.RFC3339Nano)
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO queue_items (
                video_url, video_id, title, status, created_at, updated_at,
                progress_stage, progress_percent, progress_message,
                servings_override, bypass_cache, force_publish
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			videoURL,
			nullableString(videoID),
			nullableString(strings.TrimSpace(params.Title)),
			StatusPending,
			timestamp,
			timestamp,
			nil,
			0.0,
			nil,
			params.ServingsOverride,
			boolToInt(params.BypassCache),
			boolToInt(params.ForcePublish),
		)
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		position = pending + 1

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit insert: %w", err)
		}
		return nil
	}

	if err := retryOnBusy(ctx, insert); err != nil {
		return nil, 0, err
	}

	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return item, position, nil
}

// GetByID fetches a queue item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// FindByVideoID returns the most recent item matching a canonical video ID.
func (s *Store) FindByVideoID(ctx context.Context, videoID string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items WHERE video_id = ? ORDER BY id DESC LIMIT 1`,
		videoID,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by video id: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing queue item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_items
         SET video_url = ?, video_id = ?, title = ?, status = ?, error_message = ?,
             updated_at = ?, progress_stage = ?, progress_percent = ?, progress_message = ?,
             servings_override = ?, bypass_cache = ?, force_publish = ?, transcript_cached = ?,
             audio_path = ?, thumbnail_path = ?, transcript_path = ?,
             recipe_data = ?, recipe_name = ?, recipe_id = ?, recipe_url = ?,
             fallback_path = ?, duplicate_recipe_id = ?, last_heartbeat = ?,
             needs_review = ?, review_reason = ?
         WHERE id = ?`,
		item.VideoURL,
		nullableString(item.VideoID),
		nullableString(item.Title),
		item.Status,
		nullableString(item.ErrorMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		item.ServingsOverride,
		boolToInt(item.BypassCache),
		boolToInt(item.ForcePublish),
		boolToInt(item.TranscriptCached),
		nullableString(item.AudioPath),
		nullableString(item.ThumbnailPath),
		nullableString(item.TranscriptPath),
		nullableString(item.RecipeData),
		nullableString(item.RecipeName),
		item.RecipeID,
		nullableString(item.RecipeURL),
		nullableString(item.FallbackPath),
		item.DuplicateRecipeID,
		nullableTime(item.LastHeartbeat),
		boolToInt(item.NeedsReview),
		nullableString(item.ReviewReason),
		item.ID,
	); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// UpdateProgress persists only the progress fields for an item, leaving status
// and heartbeat untouched so concurrent heartbeat writes are not clobbered.
func (s *Store) UpdateProgress(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_items
         SET progress_stage = ?, progress_percent = ?, progress_message = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// ItemsByStatus returns items matching a status ordered by creation time.
func (s *Store) ItemsByStatus(ctx context.Context, status Status) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE status = ? ORDER BY created_at`, status)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// List returns queue items filtered by status set (or all items when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextForStatuses returns the oldest item matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + itemColumns + ` FROM queue_items WHERE status IN (` + placeholders + `) ORDER BY created_at LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed items from the queue.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all items from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed items from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}
