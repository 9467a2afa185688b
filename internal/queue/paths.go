package queue

import (
	"fmt"
	"path/filepath"
	"strings"

	"yt2tandoor/internal/textutil"
)

// StagingRoot returns the per-item staging directory rooted at base.
// If a canonical video ID is available it is used; otherwise it falls
// back to queue-{ID} to avoid collisions.
func (i Item) StagingRoot(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return filepath.Join(base, i.StagingSegment())
}

// StagingSegment returns the directory name StagingRoot stages this item
// under. Cleanup sweeps match directory names against these segments.
func (i Item) StagingSegment() string {
	segment := strings.TrimSpace(i.VideoID)
	if segment == "" {
		segment = fmt.Sprintf("queue-%d", i.ID)
	}
	return sanitizeSegment(segment)
}

func sanitizeSegment(value string) string {
	value = textutil.SanitizeFileName(value)
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, " ", "-")
	value = strings.Trim(value, "-_")
	if value == "" {
		return "queue"
	}
	return value
}
