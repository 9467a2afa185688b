package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	langpkg "yt2tandoor/internal/language"
)

// Command is the whisper binary name resolved from PATH.
const Command = "whisper"

// Whisper configuration defaults.
const (
	DefaultModel    = "medium"
	DefaultLanguage = "en"
	outputFormat    = "txt"
)

// Config captures runtime settings for whisper transcription.
type Config struct {
	// Binary overrides the whisper binary (defaults to Command).
	Binary string
	// Model is the whisper model to use (defaults to DefaultModel).
	Model string
	// Language hints the spoken language; empty lets whisper auto-detect.
	Language string
}

// Service provides whisper transcription capabilities.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a whisper service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = Command
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Transcribe runs whisper over the audio file, writing output under
// outputDir, and returns the transcript text.
func (s *Service) Transcribe(ctx context.Context, audioPath, outputDir string) (string, error) {
	if audioPath == "" {
		return "", errors.New("transcribe: audio path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	if err := s.run(ctx, s.cfg.Binary, s.buildArgs(audioPath, outputDir)...); err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	transcriptPath := filepath.Join(outputDir, stem+"."+outputFormat)
	data, err := os.ReadFile(transcriptPath)
	if err != nil {
		return "", fmt.Errorf("whisper: read transcript: %w", err)
	}
	transcript := strings.TrimSpace(string(data))
	if transcript == "" {
		return "", errors.New("whisper: transcription produced no text")
	}
	return transcript, nil
}

// buildArgs constructs the whisper CLI arguments.
func (s *Service) buildArgs(audioPath, outputDir string) []string {
	args := []string{
		audioPath,
		"--model", s.cfg.Model,
		"--output_format", outputFormat,
		"--output_dir", outputDir,
	}
	if lang := langpkg.ToISO2(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	return args
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
