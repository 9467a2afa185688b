package extract_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/extract"
	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/recipe"
	"yt2tandoor/internal/services"
	"yt2tandoor/internal/testsupport"
)

type stubAnalyzer struct {
	doc           recipe.Document
	err           error
	calls         int
	gotSourceURL  string
	gotTranscript string
}

func (s *stubAnalyzer) ExtractRecipe(_ context.Context, sourceURL, transcript string) (recipe.Document, error) {
	s.calls++
	s.gotSourceURL = sourceURL
	s.gotTranscript = transcript
	if s.err != nil {
		return recipe.Document{}, s.err
	}
	return s.doc, nil
}

func newHandler(t *testing.T, analyzer *stubAnalyzer) (*extract.Extractor, *queue.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	handler := extract.NewExtractorWithDependencies(cfg, store, logging.NewNop(), analyzer)
	return handler, store, cfg
}

func seedTranscript(t *testing.T, cfg *config.Config, item *queue.Item, text string) {
	t.Helper()
	dir := item.StagingRoot(cfg.Paths.StagingDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	item.TranscriptPath = filepath.Join(dir, item.VideoID+".transcript")
	if err := os.WriteFile(item.TranscriptPath, []byte(text), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestExtractorExtractsRecipe(t *testing.T) {
	analyzer := &stubAnalyzer{doc: recipe.Document{
		Name:         "Garlic Butter Pasta",
		Ingredients:  []string{"200g spaghetti", "4 cloves garlic", "50g butter"},
		Instructions: recipe.Instructions{{Text: "Cook the pasta, then toss with garlic butter."}},
	}}
	handler, store, cfg := newHandler(t, analyzer)

	ctx := context.Background()
	item := testsupport.NewJob(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")
	seedTranscript(t, cfg, item, "Welcome back. Today we cook garlic butter pasta.\n")

	if err := handler.Prepare(ctx, item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(ctx, item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if analyzer.calls != 1 {
		t.Fatalf("expected one extraction call, got %d", analyzer.calls)
	}
	if analyzer.gotSourceURL != item.VideoURL {
		t.Fatalf("expected source url %q, got %q", item.VideoURL, analyzer.gotSourceURL)
	}
	if analyzer.gotTranscript != "Welcome back. Today we cook garlic butter pasta." {
		t.Fatalf("unexpected transcript passed to analyzer: %q", analyzer.gotTranscript)
	}
	if item.RecipeName != "Garlic Butter Pasta" || item.Title != "Garlic Butter Pasta" {
		t.Fatalf("expected recipe name on item, got name=%q title=%q", item.RecipeName, item.Title)
	}
	var stored recipe.Document
	if err := json.Unmarshal([]byte(item.RecipeData), &stored); err != nil {
		t.Fatalf("stored recipe data should be valid JSON: %v", err)
	}
	if stored.Name != "Garlic Butter Pasta" || len(stored.Ingredients) != 3 {
		t.Fatalf("unexpected stored document: %+v", stored)
	}
	if item.ProgressMessage != "Recipe extracted: Garlic Butter Pasta" || item.ProgressPercent != 100 {
		t.Fatalf("unexpected progress: %q %v", item.ProgressMessage, item.ProgressPercent)
	}
}

func TestExtractorRequiresTranscript(t *testing.T) {
	analyzer := &stubAnalyzer{}
	handler, store, _ := newHandler(t, analyzer)

	ctx := context.Background()
	item := testsupport.NewJob(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")

	err := handler.Execute(ctx, item)
	if err == nil {
		t.Fatal("expected execute to fail")
	}
	details := services.Details(err)
	if details.Kind != services.KindValidation {
		t.Fatalf("expected validation error, got %s", details.Kind)
	}
	if analyzer.calls != 0 {
		t.Fatalf("expected no llm call, got %d", analyzer.calls)
	}
}

func TestExtractorFailsWhenTranscriptFileMissing(t *testing.T) {
	analyzer := &stubAnalyzer{}
	handler, store, cfg := newHandler(t, analyzer)

	ctx := context.Background()
	item := testsupport.NewJob(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")
	item.TranscriptPath = filepath.Join(cfg.Paths.StagingDir, "gone.transcript")

	err := handler.Execute(ctx, item)
	if err == nil {
		t.Fatal("expected execute to fail")
	}
	if services.Details(err).Kind != services.KindValidation {
		t.Fatalf("expected validation error, got %s", services.Details(err).Kind)
	}
}

func TestExtractorRejectsEmptyTranscript(t *testing.T) {
	analyzer := &stubAnalyzer{}
	handler, store, cfg := newHandler(t, analyzer)

	ctx := context.Background()
	item := testsupport.NewJob(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")
	seedTranscript(t, cfg, item, "   \n\t")

	err := handler.Execute(ctx, item)
	if err == nil {
		t.Fatal("expected execute to fail")
	}
	details := services.Details(err)
	if details.Kind != services.KindValidation {
		t.Fatalf("expected validation error, got %s", details.Kind)
	}
	if details.Message != "Transcript is empty; the video may have no narration" {
		t.Fatalf("unexpected message: %q", details.Message)
	}
}

func TestExtractorWrapsLLMFailure(t *testing.T) {
	analyzer := &stubAnalyzer{err: errors.New("status 401")}
	handler, store, cfg := newHandler(t, analyzer)

	ctx := context.Background()
	item := testsupport.NewJob(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")
	seedTranscript(t, cfg, item, "transcript text")

	err := handler.Execute(ctx, item)
	if err == nil {
		t.Fatal("expected execute to fail")
	}
	details := services.Details(err)
	if details.Kind != services.KindExternalTool {
		t.Fatalf("expected external tool error, got %s", details.Kind)
	}
	if details.Message != "Recipe extraction failed; check the LLM API key, model, and network" {
		t.Fatalf("unexpected message: %q", details.Message)
	}
}

func TestExtractorRejectsNamelessRecipe(t *testing.T) {
	analyzer := &stubAnalyzer{doc: recipe.Document{Name: "  "}}
	handler, store, cfg := newHandler(t, analyzer)

	ctx := context.Background()
	item := testsupport.NewJob(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")
	seedTranscript(t, cfg, item, "transcript text")

	err := handler.Execute(ctx, item)
	if err == nil {
		t.Fatal("expected execute to fail")
	}
	details := services.Details(err)
	if details.Kind != services.KindValidation {
		t.Fatalf("expected validation error, got %s", details.Kind)
	}
	if details.Message != "Extracted recipe has no name; the video may not be a cooking recipe" {
		t.Fatalf("unexpected message: %q", details.Message)
	}
}

func TestExtractorHealthCheck(t *testing.T) {
	analyzer := &stubAnalyzer{}
	handler, _, cfg := newHandler(t, analyzer)

	health := handler.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("expected healthy extract stage, got %+v", health)
	}

	cfg.LLM.APIKey = ""
	health = handler.HealthCheck(context.Background())
	if health.Ready {
		t.Fatal("expected unhealthy stage without an api key")
	}
}
