package config

const (
	defaultStagingDir         = "~/.local/share/yt2tandoor/staging"
	defaultCacheDir           = "~/.config/yt2tandoor/cache"
	defaultFallbackDir        = "~/.local/share/yt2tandoor/fallback"
	defaultLogDir             = "~/.local/share/yt2tandoor/logs"
	defaultLogRetentionDays   = 60
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultMinFreeGiB         = 1
	defaultAPIBind            = "127.0.0.1:7487"
	defaultAudioFormat        = "mp3"
	defaultDownloadTimeout    = 900
	defaultThumbnailTimeout   = 30
	defaultWhisperModel       = "medium"
	defaultWhisperLanguage    = "en"
	defaultProgressInterval   = 15
	defaultTranscribeTimeout  = 3600
	defaultTandoorTimeout     = 10
	defaultPublishTimeout     = 30
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMReferer         = "https://github.com/yt2tandoor/yt2tandoor"
	defaultLLMTitle           = "yt2tandoor Recipe Extractor"
	defaultLLMTimeoutSeconds  = 120
	defaultNotifyTimeout      = 10
	defaultNotifyDedupSeconds = 600
	defaultQueueCapacity      = 3
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120
	defaultRecipeServings     = 4
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:  defaultStagingDir,
			CacheDir:    defaultCacheDir,
			FallbackDir: defaultFallbackDir,
			LogDir:      defaultLogDir,
			MinFreeGiB:  defaultMinFreeGiB,
			APIBind:     defaultAPIBind,
		},
		Tandoor: Tandoor{
			RequestTimeout: defaultTandoorTimeout,
			PublishTimeout: defaultPublishTimeout,
		},
		Downloader: Downloader{
			AudioFormat:      defaultAudioFormat,
			DownloadTimeout:  defaultDownloadTimeout,
			ThumbnailTimeout: defaultThumbnailTimeout,
		},
		Transcriber: Transcriber{
			Model:             defaultWhisperModel,
			Language:          defaultWhisperLanguage,
			ProgressInterval:  defaultProgressInterval,
			TranscribeTimeout: defaultTranscribeTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNotifyTimeout,
			Queue:              true,
			Publish:            true,
			Errors:             true,
			DedupWindowSeconds: defaultNotifyDedupSeconds,
		},
		Workflow: Workflow{
			QueueCapacity:      defaultQueueCapacity,
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Recipe: Recipe{
			DefaultServings: defaultRecipeServings,
		},
	}
}
