package api

import (
	"errors"
	"log/slog"
	"strings"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/transcriptcache"
)

// ErrCacheDirNotConfigured signals that cache commands cannot run without a cache dir.
var ErrCacheDirNotConfigured = errors.New("cache dir is not configured")

// OpenTranscriptCache validates config and initializes the transcript cache.
func OpenTranscriptCache(cfg *config.Config, logger *slog.Logger) (*transcriptcache.Cache, error) {
	if cfg == nil || strings.TrimSpace(cfg.Paths.CacheDir) == "" {
		return nil, ErrCacheDirNotConfigured
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return transcriptcache.New(cfg.Paths.CacheDir, logger), nil
}
