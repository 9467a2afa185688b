package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yt2tandoor/internal/api"
	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/testsupport"
	"yt2tandoor/internal/workflow"
)

type queueStoreStub struct {
	items []*queue.Item
}

func (s *queueStoreStub) List(context.Context, ...queue.Status) ([]*queue.Item, error) {
	return s.items, nil
}

func (s *queueStoreStub) Stats(context.Context) (map[queue.Status]int, error) {
	return map[queue.Status]int{queue.StatusPending: len(s.items)}, nil
}

func (s *queueStoreStub) GetByID(_ context.Context, id int64) (*queue.Item, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, nil
}

func newSubmitTestServer(t *testing.T, capacity int) *apiServer {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithQueueCapacity(capacity))
	cfg.Paths.APIBind = ""
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)
	d, err := New(cfg, store, logger, mgr, filepath.Join(cfg.Paths.LogDir, "yt2tandoor.log"), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return &apiServer{logger: logger, daemon: d, queueSvc: api.NewQueueService(store)}
}

func TestAPIServerHandleQueueList(t *testing.T) {
	store := &queueStoreStub{items: []*queue.Item{{ID: 1, Title: "Example", Status: queue.StatusPending}}}
	srv := &apiServer{queueSvc: api.NewQueueService(store)}

	req := httptest.NewRequest(http.MethodGet, "/api/queue", nil)
	w := httptest.NewRecorder()
	srv.handleQueue(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.QueueListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(resp.Items))
	}
	if resp.Items[0].Title != "Example" {
		t.Fatalf("unexpected title: %q", resp.Items[0].Title)
	}
}

func TestAPIServerHandleQueueItem(t *testing.T) {
	store := &queueStoreStub{items: []*queue.Item{{ID: 7, Title: "Example", Status: queue.StatusCompleted}}}
	srv := &apiServer{queueSvc: api.NewQueueService(store)}

	req := httptest.NewRequest(http.MethodGet, "/api/queue/7", nil)
	w := httptest.NewRecorder()
	srv.handleQueueItem(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.QueueItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Item.ID != 7 {
		t.Fatalf("unexpected item id: %d", resp.Item.ID)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/queue/99", nil)
	w = httptest.NewRecorder()
	srv.handleQueueItem(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing item, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/queue/abc", nil)
	w = httptest.NewRecorder()
	srv.handleQueueItem(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", w.Code)
	}
}

func TestAPIServerSubmit(t *testing.T) {
	srv := newSubmitTestServer(t, 1)

	body := strings.NewReader(`{"url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ","servings":6}`)
	req := httptest.NewRequest(http.MethodPost, "/api/queue", body)
	w := httptest.NewRecorder()
	srv.handleQueue(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 Accepted, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.SubmitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID == 0 {
		t.Fatal("expected submission to carry the new item id")
	}
	if resp.Position != 0 {
		t.Fatalf("expected immediate start, got position %d", resp.Position)
	}

	body = strings.NewReader(`{"url":"https://youtu.be/jNQXAC9IVRw"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/queue", body)
	w = httptest.NewRecorder()
	srv.handleQueue(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 when saturated, got %d", w.Code)
	}
	var failure map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &failure); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if failure["error"] != "Queue is full (max 1 pending). Try again later." {
		t.Fatalf("unexpected saturation message: %q", failure["error"])
	}

	body = strings.NewReader(`{"url":"https://example.com/not-a-video"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/queue", body)
	w = httptest.NewRecorder()
	srv.handleQueue(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported url, got %d", w.Code)
	}

	body = strings.NewReader(`{"url":`)
	req = httptest.NewRequest(http.MethodPost, "/api/queue", body)
	w = httptest.NewRecorder()
	srv.handleQueue(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestAPIServerHandleLogs(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "yt2tandoor.log")
	contents := "line one\nline two\nline three\n"
	if err := os.WriteFile(logPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	srv := &apiServer{daemon: &Daemon{logPath: logPath}}

	req := httptest.NewRequest(http.MethodGet, "/api/logs?limit=2", nil)
	w := httptest.NewRecorder()
	srv.handleLogs(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.LogTailResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Lines) != 2 || resp.Lines[0] != "line two" || resp.Lines[1] != "line three" {
		t.Fatalf("unexpected tail lines: %v", resp.Lines)
	}
	if resp.Offset != int64(len(contents)) {
		t.Fatalf("expected offset %d, got %d", len(contents), resp.Offset)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/logs?limit=zero", nil)
	w = httptest.NewRecorder()
	srv.handleLogs(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	next := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	open := authMiddleware("", next)
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	open(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected pass-through without token, got %d", w.Code)
	}

	guarded := authMiddleware("secret", next)

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w = httptest.NewRecorder()
	guarded(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	guarded(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	guarded(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", w.Code)
	}
}
