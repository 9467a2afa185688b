package transcriptcache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"yt2tandoor/internal/logging"
)

const fileSuffix = ".transcript"

// Entry describes one cached transcript on disk.
type Entry struct {
	VideoID  string
	Path     string
	Size     int64
	CachedAt time.Time
}

// Cache stores transcripts as one file per canonical video ID so repeated
// submissions of the same video skip the transcription stage.
type Cache struct {
	dir    string
	logger *slog.Logger
}

// New creates a cache rooted at dir. If dir is empty the cache is
// non-functional (all operations become no-ops). The directory is created
// lazily on first Store call.
func New(dir string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cache{
		dir:    strings.TrimSpace(dir),
		logger: logging.NewComponentLogger(logger, "transcriptcache"),
	}
}

// Path returns the on-disk location for a video's transcript, or "" when the
// cache is unconfigured or the video has no canonical ID.
func (c *Cache) Path(videoID string) string {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" || c.dir == "" {
		return ""
	}
	return filepath.Join(c.dir, videoID+fileSuffix)
}

// Lookup returns the cached transcript for a video ID if present. Videos
// without a canonical ID never hit the cache.
func (c *Cache) Lookup(videoID string) (string, bool) {
	path := c.Path(videoID)
	if path == "" {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("failed to read cached transcript",
				logging.String(logging.FieldEventType, "transcript_cache_read_failed"),
				logging.String(logging.FieldVideoID, videoID),
				logging.Error(err))
		}
		return "", false
	}
	transcript := string(data)
	if strings.TrimSpace(transcript) == "" {
		return "", false
	}
	return transcript, true
}

// Store persists a transcript for a video ID, overwriting any previous entry.
// Storing is a no-op for videos without a canonical ID.
func (c *Cache) Store(videoID, transcript string) error {
	path := c.Path(videoID)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(transcript), 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	c.logger.Debug("cached transcript",
		logging.String(logging.FieldVideoID, videoID),
		logging.Int("bytes", len(transcript)))
	return nil
}

// Remove deletes the cached transcript for a video ID.
func (c *Cache) Remove(videoID string) error {
	path := c.Path(videoID)
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("video ID %q not found in cache", strings.TrimSpace(videoID))
		}
		return fmt.Errorf("remove cached transcript: %w", err)
	}
	return nil
}

// List returns all cached transcripts sorted by modification time descending.
func (c *Cache) List() ([]Entry, error) {
	if c.dir == "" {
		return nil, nil
	}
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache directory: %w", err)
	}

	var entries []Entry
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if dirEntry.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := dirEntry.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			VideoID:  strings.TrimSuffix(name, fileSuffix),
			Path:     filepath.Join(c.dir, name),
			Size:     info.Size(),
			CachedAt: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CachedAt.After(entries[j].CachedAt)
	})
	return entries, nil
}

// Clear removes all cached transcripts and reports how many were deleted.
func (c *Cache) Clear() (int, error) {
	entries, err := c.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		if err := os.Remove(entry.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", entry.Path, err)
		}
		removed++
	}
	return removed, nil
}

// Count returns the number of cached transcripts.
func (c *Cache) Count() (int, error) {
	entries, err := c.List()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
