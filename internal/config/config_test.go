package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"yt2tandoor/internal/config"
)

func TestLoadDefaultConfigUsesEnvTokensAndExpandsPaths(t *testing.T) {
	t.Setenv("TANDOOR_API_TOKEN", "test-token")
	t.Setenv("YT2TANDOOR_LLM_API_KEY", "test-llm-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configDir := filepath.Join(tempHome, ".config", "yt2tandoor")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.toml"), []byte("[tandoor]\nurl = \"http://tandoor.local\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if !exists {
		t.Fatal("expected config file to be found in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "yt2tandoor", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	wantCache := filepath.Join(tempHome, ".config", "yt2tandoor", "cache")
	if cfg.Paths.CacheDir != wantCache {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, wantCache)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7487" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Tandoor.APIToken != "test-token" {
		t.Fatalf("expected Tandoor token from env, got %q", cfg.Tandoor.APIToken)
	}
	if cfg.LLM.APIKey != "test-llm-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != config.Default().LLM.BaseURL {
		t.Fatalf("unexpected LLM base url: %q", cfg.LLM.BaseURL)
	}
	if cfg.Downloader.AudioFormat != "mp3" {
		t.Fatalf("expected default audio format mp3, got %q", cfg.Downloader.AudioFormat)
	}
	if cfg.Transcriber.Model != "medium" {
		t.Fatalf("expected default whisper model medium, got %q", cfg.Transcriber.Model)
	}
	if cfg.Workflow.QueueCapacity != 3 {
		t.Fatalf("expected default queue capacity 3, got %d", cfg.Workflow.QueueCapacity)
	}
	if cfg.Workflow.HeartbeatInterval != config.Default().Workflow.HeartbeatInterval {
		t.Fatalf("unexpected heartbeat interval: %d", cfg.Workflow.HeartbeatInterval)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.CacheDir, cfg.Paths.FallbackDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "yt2tandoor.toml")

	type payload struct {
		Tandoor struct {
			URL      string `toml:"url"`
			APIToken string `toml:"api_token"`
		} `toml:"tandoor"`
		LLM struct {
			APIKey string `toml:"api_key"`
		} `toml:"llm"`
		Transcriber struct {
			Model    string `toml:"model"`
			Language string `toml:"language"`
		} `toml:"transcriber"`
		Workflow struct {
			QueueCapacity     int `toml:"queue_capacity"`
			HeartbeatInterval int `toml:"heartbeat_interval"`
			HeartbeatTimeout  int `toml:"heartbeat_timeout"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.Tandoor.URL = "https://recipes.example.com/"
	custom.Tandoor.APIToken = "abc123"
	custom.LLM.APIKey = "llm-key"
	custom.Transcriber.Model = "small"
	custom.Transcriber.Language = "EN"
	custom.Workflow.QueueCapacity = 5
	custom.Workflow.HeartbeatInterval = 20
	custom.Workflow.HeartbeatTimeout = 200
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Tandoor.URL != "https://recipes.example.com" {
		t.Fatalf("expected trailing slash to be trimmed, got %q", cfg.Tandoor.URL)
	}
	if cfg.Tandoor.APIToken != "abc123" {
		t.Fatalf("expected Tandoor token from file, got %q", cfg.Tandoor.APIToken)
	}
	if cfg.Transcriber.Model != "small" {
		t.Fatalf("expected model 'small', got %q", cfg.Transcriber.Model)
	}
	if cfg.Transcriber.Language != "en" {
		t.Fatalf("expected language lowercased, got %q", cfg.Transcriber.Language)
	}
	if cfg.Workflow.QueueCapacity != 5 {
		t.Fatalf("expected queue capacity 5, got %d", cfg.Workflow.QueueCapacity)
	}
	if cfg.Workflow.HeartbeatInterval != 20 {
		t.Fatalf("expected heartbeat interval 20, got %d", cfg.Workflow.HeartbeatInterval)
	}
	if cfg.Workflow.HeartbeatTimeout != 200 {
		t.Fatalf("expected heartbeat timeout 200, got %d", cfg.Workflow.HeartbeatTimeout)
	}
}

func TestMinFreeGiBDefaultsAndClamping(t *testing.T) {
	if got := config.Default().Paths.MinFreeGiB; got != 1 {
		t.Fatalf("expected default min_free_gib 1, got %d", got)
	}

	configPath := filepath.Join(t.TempDir(), "yt2tandoor.toml")
	contents := "[paths]\nmin_free_gib = -5\n\n[tandoor]\nurl = \"http://tandoor.local\"\napi_token = \"token\"\n\n[llm]\napi_key = \"key\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.MinFreeGiB != 0 {
		t.Fatalf("expected negative min_free_gib clamped to 0, got %d", cfg.Paths.MinFreeGiB)
	}
}

func TestEnvVarOverridesConfigFileForAPIKeys(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "yt2tandoor.toml")

	type payload struct {
		Tandoor struct {
			URL      string `toml:"url"`
			APIToken string `toml:"api_token"`
		} `toml:"tandoor"`
		LLM struct {
			APIKey string `toml:"api_key"`
		} `toml:"llm"`
	}
	custom := payload{}
	custom.Tandoor.URL = "http://tandoor.local"
	custom.Tandoor.APIToken = "file-tandoor"
	custom.LLM.APIKey = "file-llm"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("TANDOOR_API_TOKEN", "env-tandoor")
	t.Setenv("YT2TANDOOR_LLM_API_KEY", "env-llm")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Tandoor.APIToken != "env-tandoor" {
		t.Errorf("expected Tandoor token from env, got %q", cfg.Tandoor.APIToken)
	}
	if cfg.LLM.APIKey != "env-llm" {
		t.Errorf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
}

func TestFallbackLLMKeyEnvVar(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "yt2tandoor.toml")
	contents := "[tandoor]\nurl = \"http://tandoor.local\"\napi_token = \"tok\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("OPENROUTER_API_KEY", "router-key")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "router-key" {
		t.Fatalf("expected OPENROUTER_API_KEY fallback, got %q", cfg.LLM.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_tandoor_api_token_here") {
		t.Fatalf("sample config missing placeholder Tandoor token: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.StagingDir, "yt2tandoor") {
		t.Fatalf("expected staging dir to contain yt2tandoor, got %q", cfg.Paths.StagingDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	valid := func() config.Config {
		cfg := config.Default()
		cfg.Tandoor.URL = "http://tandoor.local"
		cfg.Tandoor.APIToken = "token"
		cfg.LLM.APIKey = "key"
		return cfg
	}

	cfg := valid()
	cfg.Tandoor.URL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing tandoor url")
	}

	cfg = valid()
	cfg.Tandoor.URL = "tandoor.local"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for url without scheme")
	}

	cfg = valid()
	cfg.Tandoor.APIToken = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing tandoor token")
	}

	cfg = valid()
	cfg.LLM.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing llm key")
	}

	cfg = valid()
	cfg.Downloader.AudioFormat = "flac"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported audio format")
	}

	cfg = valid()
	cfg.Transcriber.Language = "klingon"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unrecognized transcriber language")
	}

	cfg = valid()
	cfg.Transcriber.Language = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty language should allow auto-detection, got %v", err)
	}

	cfg = valid()
	cfg.Workflow.QueueCapacity = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero queue capacity")
	}

	cfg = valid()
	cfg.Workflow.HeartbeatInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for heartbeat interval")
	}

	cfg = valid()
	cfg.Workflow.HeartbeatTimeout = cfg.Workflow.HeartbeatInterval
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when timeout <= interval")
	}

	cfg = valid()
	cfg.Recipe.DefaultServings = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero default servings")
	}
}
