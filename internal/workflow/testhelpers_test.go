package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"yt2tandoor/internal/notifications"
	"yt2tandoor/internal/queue"
)

type queueCompletion struct {
	processed int
	failed    int
}

// stubNotifier records the queue lifecycle events the manager publishes.
// The manager publishes from its runner goroutine while tests read from the
// test goroutine, so access is guarded.
type stubNotifier struct {
	mu             sync.Mutex
	queueStarts    []int
	queueCompletes []queueCompletion
	errorContexts  []string
}

func (s *stubNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch event {
	case notifications.EventQueueStarted:
		count, _ := payload["count"].(int)
		s.queueStarts = append(s.queueStarts, count)
	case notifications.EventQueueCompleted:
		processed, _ := payload["processed"].(int)
		failed, _ := payload["failed"].(int)
		s.queueCompletes = append(s.queueCompletes, queueCompletion{processed: processed, failed: failed})
	case notifications.EventError:
		label, _ := payload["context"].(string)
		s.errorContexts = append(s.errorContexts, label)
	}
	return nil
}

func (s *stubNotifier) TestNotification(context.Context) error { return nil }

func (s *stubNotifier) starts() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.queueStarts...)
}

func (s *stubNotifier) completions() []queueCompletion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]queueCompletion(nil), s.queueCompletes...)
}

func (s *stubNotifier) errors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.errorContexts...)
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		default:
		}
		updated, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status == want {
			return updated
		}
		time.Sleep(25 * time.Millisecond)
	}
}
