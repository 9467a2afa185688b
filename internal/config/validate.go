package config

import (
	"errors"
	"fmt"
	"strings"

	"yt2tandoor/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTandoor(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateDownloader(); err != nil {
		return err
	}
	if err := c.validateTranscriber(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateRecipe(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTandoor() error {
	if strings.TrimSpace(c.Tandoor.URL) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/yt2tandoor/config.toml"
		}
		return fmt.Errorf("tandoor.url is required. Edit %s (create with 'yt2tandoor config init')", defaultPath)
	}
	if !strings.HasPrefix(c.Tandoor.URL, "http://") && !strings.HasPrefix(c.Tandoor.URL, "https://") {
		return errors.New("tandoor.url must start with http:// or https://")
	}
	if strings.TrimSpace(c.Tandoor.APIToken) == "" {
		return errors.New("tandoor.api_token is required. Set TANDOOR_API_TOKEN env var or add it to the config file")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return errors.New("llm.api_key is required. Set YT2TANDOOR_LLM_API_KEY env var or add it to the config file")
	}
	return nil
}

func (c *Config) validateDownloader() error {
	switch c.Downloader.AudioFormat {
	case "mp3", "m4a", "opus", "wav":
	default:
		return fmt.Errorf("downloader.audio_format %q is not supported (use mp3, m4a, opus, or wav)", c.Downloader.AudioFormat)
	}
	return nil
}

func (c *Config) validateTranscriber() error {
	if strings.TrimSpace(c.Transcriber.Model) == "" {
		return errors.New("transcriber.model must be set")
	}
	if lang := strings.TrimSpace(c.Transcriber.Language); lang != "" {
		if _, err := language.Normalize(lang); err != nil {
			return fmt.Errorf("transcriber.language: %w", err)
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueueCapacity < 1 {
		return errors.New("workflow.queue_capacity must be >= 1")
	}
	if err := ensurePositiveMap(map[string]int{
		"downloader.download_timeout":    c.Downloader.DownloadTimeout,
		"downloader.thumbnail_timeout":   c.Downloader.ThumbnailTimeout,
		"transcriber.progress_interval":  c.Transcriber.ProgressInterval,
		"transcriber.transcribe_timeout": c.Transcriber.TranscribeTimeout,
		"tandoor.request_timeout":        c.Tandoor.RequestTimeout,
		"tandoor.publish_timeout":        c.Tandoor.PublishTimeout,
		"notifications.request_timeout":  c.Notifications.RequestTimeout,
		"workflow.queue_poll_interval":   c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval":  c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.DedupWindowSeconds < 0 {
		return errors.New("notifications.dedup_window_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateRecipe() error {
	if c.Recipe.DefaultServings < 1 {
		return errors.New("recipe.default_servings must be >= 1")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
