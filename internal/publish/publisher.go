package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/notifications"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/recipe"
	"yt2tandoor/internal/services"
	"yt2tandoor/internal/services/tandoor"
	"yt2tandoor/internal/stage"
)

// Publisher pushes converted recipes into Tandoor.
type Publisher struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	target   tandoor.Service
	notifier notifications.Service
}

// NewPublisher constructs the publish handler using default dependencies.
func NewPublisher(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) (*Publisher, error) {
	client, err := tandoor.New(cfg.Tandoor.URL, cfg.Tandoor.APIToken)
	if err != nil {
		return nil, fmt.Errorf("configure tandoor client: %w", err)
	}
	return NewPublisherWithDependencies(cfg, store, logger, client, notifier), nil
}

// NewPublisherWithDependencies allows injecting collaborators (used in tests).
func NewPublisherWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, target tandoor.Service, notifier notifications.Service) *Publisher {
	return &Publisher{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "publish"),
		target:   target,
		notifier: notifier,
	}
}

func (p *Publisher) Prepare(ctx context.Context, item *queue.Item) error {
	if item.ProgressStage == "" {
		item.ProgressStage = "Publishing"
	}
	item.ProgressMessage = "Starting publish"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	// Review flags are owned by this stage; a retry starts clean.
	item.NeedsReview = false
	item.ReviewReason = ""
	return nil
}

func (p *Publisher) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)

	doc, err := stage.ParseRecipeDocument(item.RecipeData)
	if err != nil {
		return err
	}
	record := recipe.Convert(doc, recipe.ConvertOptions{
		ServingsOverride: item.ServingsOverride,
		DefaultServings:  p.cfg.Recipe.DefaultServings,
		ExtraUnits:       p.cfg.Recipe.ExtraUnits,
	})

	if item.ForcePublish {
		logger.Info("duplicate check skipped", logging.Bool("force_publish", true))
	} else {
		p.updateProgress(ctx, item, "Checking for an existing recipe", 20)
		duplicateID, err := p.target.FindDuplicate(ctx, record.Name)
		if err != nil {
			logger.Warn("duplicate lookup failed; proceeding with publish", logging.Error(err))
		} else if duplicateID > 0 {
			p.completeAsDuplicate(ctx, item, duplicateID)
			return nil
		}
	}

	p.updateProgress(ctx, item, "Publishing recipe to Tandoor", 40)
	createCtx := ctx
	if timeout := time.Duration(p.cfg.Tandoor.PublishTimeout) * time.Second; timeout > 0 {
		var cancel context.CancelFunc
		createCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	created, err := p.target.CreateRecipe(createCtx, record)
	if err != nil {
		return p.failWithFallback(ctx, item, record, err)
	}
	item.RecipeID = created.ID
	item.RecipeURL = created.URL
	logger.Info("recipe published",
		logging.Int64("recipe_id", created.ID),
		logging.String("recipe_url", created.URL),
	)

	p.updateProgress(ctx, item, "Finalizing recipe", 80)
	p.uploadThumbnail(ctx, item)
	p.cleanupStaging(ctx, item)
	p.notifyPublished(ctx, item)

	item.SetProgressComplete("Published", fmt.Sprintf("Published: %s", item.RecipeName))
	return nil
}

// completeAsDuplicate links the item to the recipe that already exists and
// flags it for review instead of creating a copy.
func (p *Publisher) completeAsDuplicate(ctx context.Context, item *queue.Item, duplicateID int64) {
	item.DuplicateRecipeID = duplicateID
	item.RecipeID = duplicateID
	item.RecipeURL = p.target.ViewURL(duplicateID)
	item.NeedsReview = true
	item.ReviewReason = fmt.Sprintf("duplicate of recipe #%d", duplicateID)
	logging.WithContext(ctx, p.logger).Info("duplicate recipe found; skipping publish",
		logging.Int64("recipe_id", duplicateID),
		logging.String("recipe_url", item.RecipeURL),
	)
	p.cleanupStaging(ctx, item)
	item.SetProgressComplete("Published", fmt.Sprintf("Duplicate of existing recipe #%d", duplicateID))
}

// failWithFallback exports the converted record for manual import and returns
// the publish failure with the fallback path folded into the message.
func (p *Publisher) failWithFallback(ctx context.Context, item *queue.Item, record recipe.Record, cause error) error {
	logger := logging.WithContext(ctx, p.logger)
	message := "Recipe publish failed; check the Tandoor URL and API token"
	var apiErr *tandoor.APIError
	if errors.As(cause, &apiErr) {
		message = fmt.Sprintf("Tandoor API error (HTTP %d): %s", apiErr.StatusCode, apiErr.Detail)
	}
	path, exportErr := recipe.Export(record, p.cfg.Paths.FallbackDir)
	if exportErr != nil {
		logger.Warn("failed to export fallback recipe JSON", logging.Error(exportErr))
	} else {
		item.FallbackPath = path
		message = fmt.Sprintf("%s (recipe JSON saved to %s)", message, path)
		logger.Info("fallback recipe JSON saved", logging.String("fallback_path", path))
	}
	err := services.Wrap(services.ErrExternalTool, "publish", "create recipe", message, cause)
	return services.WithHint(err, "check Tandoor availability and the API token")
}

// uploadThumbnail attaches staged artwork to the created recipe. Upload
// failures are advisory; the recipe itself already exists.
func (p *Publisher) uploadThumbnail(ctx context.Context, item *queue.Item) {
	if strings.TrimSpace(item.ThumbnailPath) == "" || item.RecipeID <= 0 {
		return
	}
	logger := logging.WithContext(ctx, p.logger)
	uploadCtx := ctx
	if timeout := time.Duration(p.cfg.Tandoor.PublishTimeout) * time.Second; timeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := p.target.UploadImage(uploadCtx, item.RecipeID, item.ThumbnailPath); err != nil {
		logger.Warn("thumbnail upload failed",
			logging.Int64("recipe_id", item.RecipeID),
			logging.Error(err),
		)
		return
	}
	logger.Info("thumbnail uploaded", logging.Int64("recipe_id", item.RecipeID))
}

// cleanupStaging removes the per-item working directory. The transcript cache
// lives elsewhere, so nothing load-bearing is lost.
func (p *Publisher) cleanupStaging(ctx context.Context, item *queue.Item) {
	if strings.TrimSpace(p.cfg.Paths.StagingDir) == "" {
		return
	}
	root := item.StagingRoot(p.cfg.Paths.StagingDir)
	if root == "" {
		return
	}
	if err := os.RemoveAll(root); err != nil {
		logging.WithContext(ctx, p.logger).Warn("failed to remove staging dir",
			logging.String("staging_dir", root),
			logging.Error(err),
		)
	}
}

func (p *Publisher) notifyPublished(ctx context.Context, item *queue.Item) {
	if p.notifier == nil {
		return
	}
	payload := notifications.Payload{"name": item.RecipeName, "url": item.RecipeURL}
	if err := p.notifier.Publish(ctx, notifications.EventRecipePublished, payload); err != nil {
		logging.WithContext(ctx, p.logger).Warn("failed to send publish notification", logging.Error(err))
	}
}

// HealthCheck verifies the Tandoor client is configured. Connectivity is
// probed by preflight, not here; status polling should stay cheap.
func (p *Publisher) HealthCheck(ctx context.Context) stage.Health {
	const name = "publish"
	if p.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(p.cfg.Tandoor.URL) == "" {
		return stage.Unhealthy(name, "tandoor url not configured")
	}
	if strings.TrimSpace(p.cfg.Tandoor.APIToken) == "" {
		return stage.Unhealthy(name, "tandoor api token not configured")
	}
	if p.target == nil {
		return stage.Unhealthy(name, "tandoor client unavailable")
	}
	return stage.Healthy(name)
}

func (p *Publisher) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.ProgressMessage = message
	item.ProgressPercent = percent
	if p.store == nil {
		return
	}
	if err := p.store.UpdateProgress(ctx, item); err != nil {
		logging.WithContext(ctx, p.logger).Warn("failed to persist publish progress", logging.Error(err))
	}
}
