package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/pipeline"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/stage"
	"yt2tandoor/internal/testsupport"
)

type recordingHandler struct {
	name    string
	calls   *[]string
	execErr error
}

func (h *recordingHandler) Prepare(context.Context, *queue.Item) error { return nil }

func (h *recordingHandler) Execute(context.Context, *queue.Item) error {
	*h.calls = append(*h.calls, h.name)
	return h.execErr
}

func (h *recordingHandler) HealthCheck(context.Context) stage.Health { return stage.Healthy(h.name) }

func stubDefinitions(calls *[]string, failAt string, execErr error) []pipeline.Definition {
	build := func(name string, processing, done queue.Status) pipeline.Definition {
		handler := &recordingHandler{name: name, calls: calls}
		if name == failAt {
			handler.execErr = execErr
		}
		return pipeline.Definition{Name: name, Handler: handler, Processing: processing, Done: done}
	}
	return []pipeline.Definition{
		build(pipeline.StageDownload, queue.StatusDownloading, queue.StatusDownloaded),
		build(pipeline.StageTranscribe, queue.StatusTranscribing, queue.StatusTranscribed),
		build(pipeline.StageExtract, queue.StatusExtracting, queue.StatusExtracted),
		build(pipeline.StagePublish, queue.StatusPublishing, queue.StatusCompleted),
	}
}

func TestStagesForBuildsOrderedPipeline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	defs, err := pipeline.StagesFor(cfg, store, logging.NewNop(), nil)
	if err != nil {
		t.Fatalf("StagesFor: %v", err)
	}
	wantOrder := []string{
		pipeline.StageDownload,
		pipeline.StageTranscribe,
		pipeline.StageExtract,
		pipeline.StagePublish,
	}
	if len(defs) != len(wantOrder) {
		t.Fatalf("expected %d stages, got %d", len(wantOrder), len(defs))
	}
	for i, def := range defs {
		if def.Name != wantOrder[i] {
			t.Fatalf("stage %d = %q, want %q", i, def.Name, wantOrder[i])
		}
		if def.Handler == nil {
			t.Fatalf("stage %q has no handler", def.Name)
		}
	}

	set := pipeline.Set(defs)
	if set.Download == nil || set.Transcribe == nil || set.Extract == nil || set.Publish == nil {
		t.Fatalf("expected a complete stage set, got %+v", set)
	}
}

func TestRunItemExecutesStagesInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	var calls []string
	defs := stubDefinitions(&calls, "", nil)

	ctx := context.Background()
	item := testsupport.NewJob(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")

	if err := pipeline.RunItem(ctx, store, logging.NewNop(), nil, defs, item, pipeline.RunOptions{}); err != nil {
		t.Fatalf("RunItem: %v", err)
	}

	want := []string{"download", "transcribe", "extract", "publish"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
	if item.Status != queue.StatusCompleted {
		t.Fatalf("expected completed item, got %s", item.Status)
	}
	persisted, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if persisted.Status != queue.StatusCompleted {
		t.Fatalf("expected persisted completion, got %s", persisted.Status)
	}
}

func TestRunItemStopsAfterRequestedStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	var calls []string
	defs := stubDefinitions(&calls, "", nil)

	ctx := context.Background()
	item := testsupport.NewJob(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")

	opts := pipeline.RunOptions{StopAfter: pipeline.StageExtract}
	if err := pipeline.RunItem(ctx, store, logging.NewNop(), nil, defs, item, opts); err != nil {
		t.Fatalf("RunItem: %v", err)
	}

	if len(calls) != 3 || calls[2] != "extract" {
		t.Fatalf("calls = %v, want stop after extract", calls)
	}
	if item.Status != queue.StatusExtracted {
		t.Fatalf("expected extracted status, got %s", item.Status)
	}
}

func TestRunItemReportsStagesToObserver(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	var calls []string
	defs := stubDefinitions(&calls, "", nil)

	ctx := context.Background()
	item := testsupport.NewJob(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")

	var seen []string
	opts := pipeline.RunOptions{Observer: func(stage string, _ *queue.Item) {
		seen = append(seen, stage)
	}}
	if err := pipeline.RunItem(ctx, store, logging.NewNop(), nil, defs, item, opts); err != nil {
		t.Fatalf("RunItem: %v", err)
	}
	if len(seen) != 4 || seen[0] != "download" || seen[3] != "publish" {
		t.Fatalf("observer saw %v", seen)
	}
}

func TestRunItemStopsOnFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	var calls []string
	defs := stubDefinitions(&calls, "transcribe", errors.New("boom"))

	ctx := context.Background()
	item := testsupport.NewJob(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")

	err := pipeline.RunItem(ctx, store, logging.NewNop(), nil, defs, item, pipeline.RunOptions{})
	if err == nil {
		t.Fatal("expected failure to propagate")
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %v, want stop after transcribe failure", calls)
	}
	if item.Status != queue.StatusFailed {
		t.Fatalf("expected failed item, got %s", item.Status)
	}
	if item.ErrorMessage != "boom" {
		t.Fatalf("unexpected error message %q", item.ErrorMessage)
	}
}
