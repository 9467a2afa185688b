package stageexec_test

import (
	"context"
	"sync"
	"testing"

	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/notifications"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/services"
	"yt2tandoor/internal/stage"
	"yt2tandoor/internal/stageexec"
	"yt2tandoor/internal/testsupport"
)

type stubStage struct {
	prepareErr  error
	executeErr  error
	executeHook func(*queue.Item)
}

func (s *stubStage) Prepare(context.Context, *queue.Item) error { return s.prepareErr }

func (s *stubStage) Execute(_ context.Context, item *queue.Item) error {
	if s.executeHook != nil {
		s.executeHook(item)
	}
	return s.executeErr
}

func (s *stubStage) HealthCheck(context.Context) stage.Health { return stage.Healthy("stub") }

type recordingNotifier struct {
	mu            sync.Mutex
	errorContexts []string
}

func (n *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if event == notifications.EventError {
		label, _ := payload["context"].(string)
		n.errorContexts = append(n.errorContexts, label)
	}
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

func (n *recordingNotifier) errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errorContexts...)
}

func TestRunAppliesDoneTransition(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewJob(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")
	handler := &stubStage{executeHook: func(item *queue.Item) {
		item.Title = "Garlic Pasta"
	}}

	err := stageexec.Run(ctx, stageexec.Options{
		Logger:     logging.NewNop(),
		Store:      store,
		Handler:    handler,
		StageName:  "download",
		Processing: queue.StatusDownloading,
		Done:       queue.StatusDownloaded,
		Item:       item,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	persisted, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if persisted.Status != queue.StatusDownloaded {
		t.Fatalf("expected downloaded status, got %s", persisted.Status)
	}
	if persisted.Title != "Garlic Pasta" {
		t.Fatalf("expected stage mutation persisted, got title %q", persisted.Title)
	}
	if persisted.LastHeartbeat != nil {
		t.Fatal("expected heartbeat cleared after stage completion")
	}
}

func TestRunPersistsFailureAndNotifies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewJob(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")
	stageErr := services.Wrap(services.ErrExternalTool, "download", "fetch audio",
		"Audio download failed; check the video URL and yt-dlp installation", nil)
	handler := &stubStage{executeErr: stageErr}
	notifier := &recordingNotifier{}

	err := stageexec.Run(ctx, stageexec.Options{
		Logger:     logging.NewNop(),
		Store:      store,
		Notifier:   notifier,
		Handler:    handler,
		StageName:  "download",
		Processing: queue.StatusDownloading,
		Done:       queue.StatusDownloaded,
		Item:       item,
	})
	if err == nil {
		t.Fatal("expected stage error to propagate")
	}

	persisted, getErr := store.GetByID(ctx, item.ID)
	if getErr != nil {
		t.Fatalf("GetByID: %v", getErr)
	}
	if persisted.Status != queue.StatusFailed {
		t.Fatalf("expected failed status, got %s", persisted.Status)
	}
	if persisted.ErrorMessage != "Audio download failed; check the video URL and yt-dlp installation" {
		t.Fatalf("unexpected error message %q", persisted.ErrorMessage)
	}

	contexts := notifier.errors()
	if len(contexts) != 1 {
		t.Fatalf("expected one error notification, got %d", len(contexts))
	}
	if want := "download (item #1)"; contexts[0] != want {
		t.Fatalf("notification context = %q, want %q", contexts[0], want)
	}
}

func TestRunRequiresHandlerAndStore(t *testing.T) {
	if err := stageexec.Run(context.Background(), stageexec.Options{StageName: "download"}); err == nil {
		t.Fatal("expected error for missing handler")
	}
	if err := stageexec.Run(context.Background(), stageexec.Options{Handler: &stubStage{}}); err == nil {
		t.Fatal("expected error for missing store")
	}
}
