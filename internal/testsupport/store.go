package testsupport

import (
	"context"
	"testing"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob enqueues a video for tests using the provided store.
func NewJob(t testing.TB, store *queue.Store, videoURL, videoID string) *queue.Item {
	t.Helper()

	item, _, err := store.NewJob(context.Background(), queue.NewJobParams{
		VideoURL: videoURL,
		VideoID:  videoID,
	})
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return item
}
