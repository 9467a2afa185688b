package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"yt2tandoor/internal/api"
	"yt2tandoor/internal/transcriptcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the transcript cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(ctx)
			if err != nil {
				return err
			}
			entries, err := cache.List()
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeCacheListJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Transcript cache is empty")
				return nil
			}
			const stampLayout = "2006-01-02 15:04"
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cached transcripts: %d\n", len(entries))
			for _, entry := range entries {
				cached := "unknown"
				if !entry.CachedAt.IsZero() {
					cached = entry.CachedAt.Local().Format(stampLayout)
				}
				fmt.Fprintf(out, "  - %s (%d bytes, cached %s)\n", entry.VideoID, entry.Size, cached)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output cache entries as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var videoID string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(ctx)
			if err != nil {
				return err
			}
			if id := strings.TrimSpace(videoID); id != "" {
				if err := cache.Remove(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed cached transcript for %s\n", id)
				return nil
			}
			removed, err := cache.Clear()
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Transcript cache is empty")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached transcript(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().StringVar(&videoID, "id", "", "Clear only the transcript for the given video ID")
	return cmd
}

func openCache(ctx *commandContext) (*transcriptcache.Cache, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	cache, err := api.OpenTranscriptCache(cfg, nil)
	if err != nil {
		if errors.Is(err, api.ErrCacheDirNotConfigured) {
			return nil, errors.New("transcript cache directory is not configured")
		}
		return nil, err
	}
	return cache, nil
}

type cacheEntryJSON struct {
	VideoID  string `json:"video_id"`
	Size     int64  `json:"size_bytes"`
	CachedAt string `json:"cached_at,omitempty"`
}

func writeCacheListJSON(cmd *cobra.Command, entries []transcriptcache.Entry) error {
	payload := make([]cacheEntryJSON, 0, len(entries))
	for _, entry := range entries {
		item := cacheEntryJSON{VideoID: entry.VideoID, Size: entry.Size}
		if !entry.CachedAt.IsZero() {
			item.CachedAt = entry.CachedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		payload = append(payload, item)
	}
	return writeJSON(cmd, payload)
}
