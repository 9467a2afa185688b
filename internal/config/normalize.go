package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTandoor()
	c.normalizeDownloader()
	c.normalizeTranscriber()
	c.normalizeLLM()
	c.normalizeNotifications()
	c.normalizeLogging()
	c.normalizeRecipe()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FallbackDir) == "" {
		c.Paths.FallbackDir = defaultFallbackDir
	}
	if c.Paths.FallbackDir, err = expandPath(c.Paths.FallbackDir); err != nil {
		return fmt.Errorf("paths.fallback_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.MinFreeGiB < 0 {
		c.Paths.MinFreeGiB = 0
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeTandoor() {
	c.Tandoor.URL = strings.TrimRight(strings.TrimSpace(c.Tandoor.URL), "/")
	if value, ok := os.LookupEnv("TANDOOR_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Tandoor.APIToken = strings.TrimSpace(value)
	}
	c.Tandoor.APIToken = strings.TrimSpace(c.Tandoor.APIToken)
	if c.Tandoor.RequestTimeout <= 0 {
		c.Tandoor.RequestTimeout = defaultTandoorTimeout
	}
	if c.Tandoor.PublishTimeout <= 0 {
		c.Tandoor.PublishTimeout = defaultPublishTimeout
	}
}

func (c *Config) normalizeDownloader() {
	c.Downloader.AudioFormat = strings.ToLower(strings.TrimSpace(c.Downloader.AudioFormat))
	if c.Downloader.AudioFormat == "" {
		c.Downloader.AudioFormat = defaultAudioFormat
	}
	if c.Downloader.DownloadTimeout <= 0 {
		c.Downloader.DownloadTimeout = defaultDownloadTimeout
	}
	if c.Downloader.ThumbnailTimeout <= 0 {
		c.Downloader.ThumbnailTimeout = defaultThumbnailTimeout
	}
}

func (c *Config) normalizeTranscriber() {
	c.Transcriber.Model = strings.TrimSpace(c.Transcriber.Model)
	if c.Transcriber.Model == "" {
		c.Transcriber.Model = defaultWhisperModel
	}
	c.Transcriber.Language = strings.ToLower(strings.TrimSpace(c.Transcriber.Language))
	if c.Transcriber.ProgressInterval <= 0 {
		c.Transcriber.ProgressInterval = defaultProgressInterval
	}
	if c.Transcriber.TranscribeTimeout <= 0 {
		c.Transcriber.TranscribeTimeout = defaultTranscribeTimeout
	}
}

func (c *Config) normalizeLLM() {
	if value, ok := os.LookupEnv("YT2TANDOOR_LLM_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.LLM.APIKey = strings.TrimSpace(value)
	} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.LLM.APIKey = strings.TrimSpace(value)
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeRecipe() {
	if c.Recipe.DefaultServings <= 0 {
		c.Recipe.DefaultServings = defaultRecipeServings
	}
	if len(c.Recipe.ExtraUnits) > 0 {
		units := make([]string, 0, len(c.Recipe.ExtraUnits))
		seen := make(map[string]struct{}, len(c.Recipe.ExtraUnits))
		for _, unit := range c.Recipe.ExtraUnits {
			normalized := strings.ToLower(strings.TrimSpace(unit))
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			units = append(units, normalized)
		}
		c.Recipe.ExtraUnits = units
	}
}
