package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/recipe"
	"yt2tandoor/internal/services"
	"yt2tandoor/internal/services/llm"
	"yt2tandoor/internal/stage"
)

// Analyzer is the LLM surface the extract stage uses.
type Analyzer interface {
	ExtractRecipe(ctx context.Context, sourceURL, transcript string) (recipe.Document, error)
}

// Extractor turns transcript text into a structured recipe document.
type Extractor struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	analyzer Analyzer
}

// NewExtractor constructs the extract handler using default dependencies.
func NewExtractor(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Extractor {
	llmCfg := cfg.GetLLM()
	client := llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
	})
	return NewExtractorWithDependencies(cfg, store, logger, client)
}

// NewExtractorWithDependencies allows injecting collaborators (used in tests).
func NewExtractorWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, analyzer Analyzer) *Extractor {
	return &Extractor{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "extract"),
		analyzer: analyzer,
	}
}

func (e *Extractor) Prepare(ctx context.Context, item *queue.Item) error {
	if item.ProgressStage == "" {
		item.ProgressStage = "Extracting"
	}
	item.ProgressMessage = "Starting recipe extraction"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	return nil
}

func (e *Extractor) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)

	if strings.TrimSpace(item.TranscriptPath) == "" {
		return services.Wrap(services.ErrValidation, "extract", "locate transcript",
			"No transcript recorded for this item; rerun the transcription stage", nil)
	}
	data, err := os.ReadFile(item.TranscriptPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "extract", "read transcript",
			"Transcript file is missing or unreadable; rerun the transcription stage", err)
	}
	transcript := strings.TrimSpace(string(data))
	if transcript == "" {
		return services.Wrap(services.ErrValidation, "extract", "read transcript",
			"Transcript is empty; the video may have no narration", nil)
	}

	model := strings.TrimSpace(e.cfg.LLM.Model)
	logger.Info("starting recipe extraction",
		logging.String("model", model),
		logging.Int("transcript_chars", len(transcript)),
	)
	e.updateProgress(ctx, item, fmt.Sprintf("Analyzing transcript with %s", model), 20)

	doc, err := e.analyzer.ExtractRecipe(ctx, item.VideoURL, transcript)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "extract", "call llm",
			"Recipe extraction failed; check the LLM API key, model, and network", err)
	}
	doc.Name = strings.TrimSpace(doc.Name)
	if doc.Name == "" {
		return services.Wrap(services.ErrValidation, "extract", "validate recipe",
			"Extracted recipe has no name; the video may not be a cooking recipe", nil)
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return services.Wrap(services.ErrValidation, "extract", "encode recipe",
			"Failed to encode the extracted recipe document", err)
	}
	item.RecipeData = string(encoded)
	item.RecipeName = doc.Name
	// The LLM name beats the audio-file stem as a display title.
	item.Title = doc.Name

	logger.Info("recipe extracted",
		logging.String("recipe_name", doc.Name),
		logging.Int("ingredients", len(doc.Ingredients)),
		logging.Int("instruction_steps", len(doc.Instructions)),
	)
	item.SetProgressComplete("Extracted", fmt.Sprintf("Recipe extracted: %s", doc.Name))
	return nil
}

// HealthCheck verifies the LLM client is configured. Connectivity is probed
// by preflight, not here; status polling should stay cheap.
func (e *Extractor) HealthCheck(ctx context.Context) stage.Health {
	const name = "extract"
	if e.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(e.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy(name, "llm api key not configured")
	}
	if e.analyzer == nil {
		return stage.Unhealthy(name, "llm client unavailable")
	}
	return stage.Healthy(name)
}

func (e *Extractor) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.ProgressMessage = message
	item.ProgressPercent = percent
	if e.store == nil {
		return
	}
	if err := e.store.UpdateProgress(ctx, item); err != nil {
		logging.WithContext(ctx, e.logger).Warn("failed to persist extraction progress", logging.Error(err))
	}
}
