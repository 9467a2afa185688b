package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventRecipePublished, notifications.Payload{"name": "Example"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "job queued",
			event: notifications.EventJobQueued,
			payload: notifications.Payload{
				"title":    "Weeknight Bolognese",
				"position": 2,
			},
			expectTitle:   "yt2tandoor - Queued",
			expectMessage: "Queued: Weeknight Bolognese (position 2)",
			expectTags:    "yt2tandoor,queue,added",
		},
		{
			name:  "job queued falls back to url",
			event: notifications.EventJobQueued,
			payload: notifications.Payload{
				"url": "https://youtube.com/watch?v=abc123def45",
			},
			expectTitle:   "yt2tandoor - Queued",
			expectMessage: "Queued: https://youtube.com/watch?v=abc123def45",
			expectTags:    "yt2tandoor,queue,added",
		},
		{
			name:  "queue started",
			event: notifications.EventQueueStarted,
			payload: notifications.Payload{
				"count": 3,
			},
			expectTitle:   "yt2tandoor - Queue Started",
			expectMessage: "Started processing queue with 3 items",
			expectTags:    "yt2tandoor,queue,started",
		},
		{
			name:  "recipe published",
			event: notifications.EventRecipePublished,
			payload: notifications.Payload{
				"name": "Garlic Pasta",
				"url":  "https://tandoor.local/view/recipe/42",
			},
			expectTitle:    "yt2tandoor - Recipe Published",
			expectMessage:  "✅ Published: Garlic Pasta\nhttps://tandoor.local/view/recipe/42",
			expectTags:     "yt2tandoor,recipe,published",
			expectPriority: "high",
		},
		{
			name:  "error",
			event: notifications.EventError,
			payload: notifications.Payload{
				"context": "transcribe (item #7)",
				"error":   errors.New("whisper exited with status 1"),
			},
			expectTitle:    "yt2tandoor - Error",
			expectMessage:  "❌ Error with transcribe (item #7): whisper exited with status 1",
			expectTags:     "yt2tandoor,error,alert",
			expectPriority: "high",
		},
		{
			name:  "queue completed clean",
			event: notifications.EventQueueCompleted,
			payload: notifications.Payload{
				"processed": 4,
				"failed":    0,
				"duration":  95 * time.Second,
			},
			expectTitle:   "yt2tandoor - Queue Complete",
			expectMessage: "Queue processing complete: 4 items processed in 1m35s",
			expectTags:    "yt2tandoor,queue,completed",
		},
		{
			name:  "queue completed with failures",
			event: notifications.EventQueueCompleted,
			payload: notifications.Payload{
				"processed": 2,
				"failed":    1,
				"duration":  time.Minute,
			},
			expectTitle:   "yt2tandoor - Queue Complete (with errors)",
			expectMessage: "Queue processing complete: 2 succeeded, 1 failed in 1m0s",
			expectTags:    "yt2tandoor,queue,completed",
		},
		{
			name:           "test event",
			event:          notifications.EventTest,
			payload:        nil,
			expectTitle:    "yt2tandoor - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "yt2tandoor,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceIgnoresDisabledEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for disabled event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Queue = false
	cfg.Notifications.Publish = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	disabled := []notifications.Event{
		notifications.EventJobQueued,
		notifications.EventQueueStarted,
		notifications.EventQueueCompleted,
		notifications.EventRecipePublished,
		notifications.EventError,
	}

	for _, event := range disabled {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"value": "ignored"}); err != nil {
			t.Fatalf("expected no error for disabled event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceDedupesRepeatedMessages(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.DedupWindowSeconds = 600

	svc := notifications.NewService(&cfg)
	payload := notifications.Payload{"context": "publish", "error": "tandoor unreachable"}
	for i := 0; i < 3; i++ {
		if err := svc.Publish(context.Background(), notifications.EventError, payload); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 delivery for repeated message, got %d", got)
	}

	other := notifications.Payload{"context": "publish", "error": "different failure"}
	if err := svc.Publish(context.Background(), notifications.EventError, other); err != nil {
		t.Fatalf("publish distinct message: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected distinct message to be delivered, got %d calls", got)
	}
}

func TestTestNotification(t *testing.T) {
	var captured string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Get("Title")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("test notification: %v", err)
	}
	if captured != "yt2tandoor - Test" {
		t.Fatalf("unexpected title: %q", captured)
	}
}
