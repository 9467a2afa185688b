package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"yt2tandoor/internal/api"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/queueaccess"
	"yt2tandoor/internal/staging"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the job queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueClearCompletedCommand(ctx))
	queueCmd.AddCommand(newQueueClearFailedCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueCleanCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAccess(func(access queueaccess.Access) error {
				items, err := access.List(cmd.Context(), listStatuses)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, map[string]any{"items": items})
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				items = api.SortQueueItemsNewestFirst(items)
				table := renderTable(
					[]string{"ID", "Title", "Status", "Progress", "Created"},
					buildQueueListRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show details for one queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withQueueAccess(func(access queueaccess.Access) error {
				item, err := access.Describe(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("queue item %d not found", ids[0])
				}
				if jsonOutput {
					return writeJSON(cmd, item)
				}
				printQueueItemDetail(cmd, *item)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func printQueueItemDetail(cmd *cobra.Command, item api.QueueItem) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:        %d\n", item.ID)
	fmt.Fprintf(out, "URL:       %s\n", item.VideoURL)
	if item.VideoID != "" {
		fmt.Fprintf(out, "Video ID:  %s\n", item.VideoID)
	}
	if item.Title != "" {
		fmt.Fprintf(out, "Title:     %s\n", item.Title)
	}
	fmt.Fprintf(out, "Status:    %s\n", item.Status)
	if item.Progress.Stage != "" {
		fmt.Fprintf(out, "Progress:  %s (%.0f%%)\n", item.Progress.Stage, item.Progress.Percent)
	}
	if item.Progress.Message != "" {
		fmt.Fprintf(out, "Message:   %s\n", item.Progress.Message)
	}
	fmt.Fprintf(out, "Cached:    %s\n", yesNo(item.TranscriptCached))
	if item.ServingsOverride > 0 {
		fmt.Fprintf(out, "Servings:  %d\n", item.ServingsOverride)
	}
	if item.RecipeName != "" {
		fmt.Fprintf(out, "Recipe:    %s\n", item.RecipeName)
	}
	if item.RecipeURL != "" {
		fmt.Fprintf(out, "URL:       %s\n", item.RecipeURL)
	}
	if item.NeedsReview {
		fmt.Fprintf(out, "Review:    %s\n", item.ReviewReason)
	}
	if item.FallbackPath != "" {
		fmt.Fprintf(out, "Fallback:  %s\n", item.FallbackPath)
	}
	if item.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:     %s\n", item.ErrorMessage)
	}
	if summary, ok := api.SummarizeRecipe(item); ok {
		fmt.Fprintf(out, "Extracted: %s (%d ingredients, %d steps)\n", summary.Name, summary.Ingredients, summary.Steps)
	}
	fmt.Fprintf(out, "Created:   %s\n", item.CreatedAt)
	fmt.Fprintf(out, "Updated:   %s\n", item.UpdatedAt)
}

func buildQueueListRows(items []api.QueueItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		title := item.Title
		if title == "" {
			title = item.VideoURL
		}
		progress := item.Progress.Stage
		if item.Progress.Percent > 0 {
			progress = fmt.Sprintf("%s (%.0f%%)", item.Progress.Stage, item.Progress.Percent)
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			truncateCell(title, 46),
			item.Status,
			progress,
			item.CreatedAt,
		})
	}
	return rows
}

func truncateCell(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAccess(func(access queueaccess.Access) error {
				removed, err := access.ClearAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d queue items\n", removed)
				return nil
			})
		},
	}
}

func newQueueClearCompletedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove completed queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAccess(func(access queueaccess.Access) error {
				removed, err := access.ClearCompleted(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d completed items\n", removed)
				return nil
			})
		},
	}
}

func newQueueClearFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Remove failed queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAccess(func(access queueaccess.Access) error {
				removed, err := access.ClearFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d failed items\n", removed)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "retry [id...]",
		Short: "Retry failed queue items",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withQueueAccess(func(access queueaccess.Access) error {
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					updated, err := access.RetryAll(cmd.Context())
					if err != nil {
						return err
					}
					if jsonOutput {
						return writeJSON(cmd, map[string]any{"updated": updated})
					}
					fmt.Fprintf(out, "Retried %d failed items\n", updated)
					return nil
				}

				result, err := api.RetryFailedItemsByID(cmd.Context(), access, ids)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeQueueRetryResultJSON(cmd, result)
				}
				printQueueRetryResult(out, result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "remove <id...>",
		Short: "Remove specific queue items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withQueueAccess(func(access queueaccess.Access) error {
				result, err := api.RemoveItemsByID(cmd.Context(), access, ids)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeQueueRemoveResultJSON(cmd, result)
				}
				printQueueRemoveResult(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Return in-flight items to their stage start",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAccess(func(access queueaccess.Access) error {
				updated, err := access.ResetStuck(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d items\n", updated)
				return nil
			})
		},
	}
}

func newQueueCleanCommand(ctx *commandContext) *cobra.Command {
	var cleanAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove orphaned staging directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withQueueAccess(func(access queueaccess.Access) error {
				dirs, err := staging.ListDirectories(cfg.Paths.StagingDir)
				if err != nil {
					return fmt.Errorf("inspect staging directory: %w", err)
				}
				sizes := make(map[string]int64, len(dirs))
				for _, dir := range dirs {
					sizes[dir.Path] = dir.Size
				}

				result, err := api.CleanStagingDirectories(cmd.Context(), api.CleanStagingRequest{
					StagingDir: cfg.Paths.StagingDir,
					CleanAll:   cleanAll,
					Segments:   access,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !result.Configured {
					fmt.Fprintln(out, "Staging directory not configured")
					return nil
				}
				for _, cleanupErr := range result.Cleanup.Errors {
					fmt.Fprintf(out, "Failed to remove %s: %v\n", cleanupErr.Path, cleanupErr.Error)
				}
				var freed int64
				for _, path := range result.Cleanup.Removed {
					freed += sizes[path]
				}
				fmt.Fprintf(out, "Removed %d %s directories (%d bytes freed)\n", len(result.Cleanup.Removed), result.Scope, freed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove every staging directory, including in-flight ones")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show queue health summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := fetchQueueHealth(cmd, ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, health)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\nPending: %d\nProcessing: %d\nFailed: %d\nReview: %d\nCompleted: %d\n",
				health.Total, health.Pending, health.Processing, health.Failed, health.Review, health.Completed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

// fetchQueueHealth prefers the daemon's view and falls back to the database
// when the daemon is offline.
func fetchQueueHealth(cmd *cobra.Command, ctx *commandContext) (queue.HealthSummary, error) {
	if client, err := ctx.dialClient(); err == nil {
		defer client.Close()
		resp, err := client.QueueHealth()
		if err != nil {
			return queue.HealthSummary{}, err
		}
		return queue.HealthSummary{
			Total:      resp.Total,
			Pending:    resp.Pending,
			Processing: resp.Processing,
			Failed:     resp.Failed,
			Completed:  resp.Completed,
			Review:     resp.Review,
		}, nil
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return queue.HealthSummary{}, err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return queue.HealthSummary{}, fmt.Errorf("%w: %v", errQueueHealthUnavailable, err)
	}
	defer store.Close()
	return store.Health(cmd.Context())
}

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid item id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func writeQueueRemoveResultJSON(cmd *cobra.Command, result api.RemoveItemsResult) error {
	type jsonItem struct {
		ID      int64  `json:"id"`
		Outcome string `json:"outcome"`
	}
	items := make([]jsonItem, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, jsonItem{ID: item.ID, Outcome: string(item.Outcome)})
	}
	return writeJSON(cmd, map[string]any{"items": items})
}

func printQueueRemoveResult(out io.Writer, result api.RemoveItemsResult) {
	for _, item := range result.Items {
		switch item.Outcome {
		case api.RemoveItemNotFound:
			fmt.Fprintf(out, "Item %d not found\n", item.ID)
		case api.RemoveItemRemoved:
			fmt.Fprintf(out, "Item %d removed\n", item.ID)
		}
	}
}

func writeQueueRetryResultJSON(cmd *cobra.Command, result api.RetryItemsResult) error {
	type jsonItem struct {
		ID      int64  `json:"id"`
		Outcome string `json:"outcome"`
	}
	items := make([]jsonItem, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, jsonItem{ID: item.ID, Outcome: string(item.Outcome)})
	}
	return writeJSON(cmd, map[string]any{"items": items})
}

func printQueueRetryResult(out io.Writer, result api.RetryItemsResult) {
	for _, item := range result.Items {
		switch item.Outcome {
		case api.RetryItemNotFound:
			fmt.Fprintf(out, "Item %d not found\n", item.ID)
		case api.RetryItemNotFailed:
			fmt.Fprintf(out, "Item %d is not in a retryable state (only failed items can be retried)\n", item.ID)
		case api.RetryItemUpdated:
			fmt.Fprintf(out, "Item %d reset for retry\n", item.ID)
		}
	}
}

var errQueueHealthUnavailable = errors.New("queue health unavailable")
