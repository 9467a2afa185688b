package workflow_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/services"
	"yt2tandoor/internal/stage"
	"yt2tandoor/internal/testsupport"
	"yt2tandoor/internal/workflow"
)

type stubStage struct {
	name        string
	prepareHook func(*queue.Item)
	executeHook func(*queue.Item)
	prepareErr  error
	executeErr  error
	health      stage.Health
}

func newStubStage(name string) *stubStage {
	return &stubStage{name: name, health: stage.Healthy(name)}
}

func (s *stubStage) Prepare(_ context.Context, item *queue.Item) error {
	if s.prepareHook != nil {
		s.prepareHook(item)
	}
	return s.prepareErr
}

func (s *stubStage) Execute(_ context.Context, item *queue.Item) error {
	if s.executeHook != nil {
		s.executeHook(item)
	}
	return s.executeErr
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return s.health
}

func TestManagerProcessesItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	download := newStubStage("download")
	download.executeHook = func(item *queue.Item) {
		item.Title = "Garlic Pasta"
	}
	transcribe := newStubStage("transcribe")
	extract := newStubStage("extract")
	publish := newStubStage("publish")

	notifier := &stubNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(workflow.StageSet{
		Download:   download,
		Transcribe: transcribe,
		Extract:    extract,
		Publish:    publish,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { mgr.Stop() })

	item := testsupport.NewJob(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")

	updated := waitForStatus(t, store, item.ID, queue.StatusCompleted)
	if updated.Title != "Garlic Pasta" {
		t.Fatalf("expected download stage mutation to persist, got title %q", updated.Title)
	}
	if updated.ProgressPercent != 100 {
		t.Fatalf("expected completed item at 100%%, got %v", updated.ProgressPercent)
	}

	if got := notifier.starts(); len(got) != 1 {
		t.Fatalf("expected one queue start notification, got %d", len(got))
	}
	deadline := time.After(10 * time.Second)
	for len(notifier.completions()) == 0 {
		select {
		case <-deadline:
			t.Fatal("expected queue completion notification")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestManagerStatusIncludesStageHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	handler := newStubStage("download")
	handler.health = stage.Unhealthy(handler.name, "yt-dlp not found in PATH")

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Download: handler})

	status := mgr.Status(context.Background())
	health, ok := status.StageHealth[handler.name]
	if !ok {
		t.Fatalf("expected stage health entry for %s", handler.name)
	}
	if health.Ready {
		t.Fatalf("expected not ready health, got %+v", health)
	}
	if health.Detail != handler.health.Detail {
		t.Fatalf("expected detail %q, got %q", handler.health.Detail, health.Detail)
	}
}

func TestManagerFailureMarksItemFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	download := newStubStage("download")
	transcribe := newStubStage("transcribe")
	transcribe.executeErr = fmt.Errorf("boom")

	notifier := &stubNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(workflow.StageSet{
		Download:   download,
		Transcribe: transcribe,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { mgr.Stop() })

	item := testsupport.NewJob(t, store, "https://youtu.be/failure0001", "failure0001")

	updated := waitForStatus(t, store, item.ID, queue.StatusFailed)
	if updated.ProgressStage != "Failed" {
		t.Fatalf("expected progress stage 'Failed', got %s", updated.ProgressStage)
	}
	if updated.ErrorMessage != "boom" {
		t.Fatalf("expected error message 'boom', got %q", updated.ErrorMessage)
	}

	deadline := time.After(10 * time.Second)
	for len(notifier.errors()) == 0 {
		select {
		case <-deadline:
			t.Fatal("expected error notification")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	if got := notifier.errors()[0]; !strings.Contains(got, "transcribe") {
		t.Fatalf("expected error context to name the stage, got %q", got)
	}
}

func TestManagerFailureSurfacesWrappedMessage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	failing := newStubStage("download")
	failing.executeErr = services.Wrap(
		services.ErrExternalTool,
		"download",
		"fetch audio",
		"Audio download failed; check the video URL",
		fmt.Errorf("exit status 1"),
	)

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &stubNotifier{})
	mgr.ConfigureStages(workflow.StageSet{Download: failing})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { mgr.Stop() })

	item := testsupport.NewJob(t, store, "https://youtu.be/wrapped0001", "wrapped0001")

	updated := waitForStatus(t, store, item.ID, queue.StatusFailed)
	if updated.ErrorMessage != "Audio download failed; check the video URL" {
		t.Fatalf("expected wrapped message to surface, got %q", updated.ErrorMessage)
	}
}

func TestManagerStartRequiresStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &stubNotifier{})
	if err := mgr.Start(context.Background()); err == nil {
		mgr.Stop()
		t.Fatal("expected Start to fail without configured stages")
	}
}
