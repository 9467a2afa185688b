package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"yt2tandoor/internal/config"
)

const userAgent = "yt2tandoor/0.1.0"

// Event enumerates the pipeline milestones that can be pushed to users.
type Event string

const (
	EventJobQueued       Event = "job_queued"
	EventQueueStarted    Event = "queue_started"
	EventRecipePublished Event = "recipe_published"
	EventError           Event = "error"
	EventQueueCompleted  Event = "queue_completed"
	EventTest            Event = "test"
)

// Payload carries event-specific fields consumed by the message renderers.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		queueEvents: cfg.Notifications.Queue,
		publish:     cfg.Notifications.Publish,
		errors:      cfg.Notifications.Errors,
		dedupWindow: time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second,
		lastSent:    make(map[string]time.Time),
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	queueEvents bool
	publish     bool
	errors      bool
	dedupWindow time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// Publish renders and delivers the event. Events disabled in configuration
// are dropped silently, as are repeats of an identical message inside the
// dedup window, so callers never need to gate their own emission.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabledFor(event) {
		return nil
	}
	msg, ok := render(event, payload)
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}
	if n.suppressDuplicate(event, msg.body) {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.Publish(ctx, EventTest, nil)
}

func (n *ntfyService) enabledFor(event Event) bool {
	switch event {
	case EventJobQueued, EventQueueStarted, EventQueueCompleted:
		return n.queueEvents
	case EventRecipePublished:
		return n.publish
	case EventError:
		return n.errors
	default:
		return true
	}
}

func (n *ntfyService) suppressDuplicate(event Event, body string) bool {
	if n.dedupWindow <= 0 {
		return false
	}
	key := string(event) + "\x00" + body
	now := time.Now()

	n.mu.Lock()
	defer n.mu.Unlock()
	if sent, ok := n.lastSent[key]; ok && now.Sub(sent) < n.dedupWindow {
		return true
	}
	for k, sent := range n.lastSent {
		if now.Sub(sent) >= n.dedupWindow {
			delete(n.lastSent, k)
		}
	}
	n.lastSent[key] = now
	return false
}

func render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventJobQueued:
		title := payload.text("title")
		if title == "" {
			title = payload.text("url")
		}
		body := fmt.Sprintf("Queued: %s", title)
		if position := payload.count("position"); position > 0 {
			body = fmt.Sprintf("%s (position %d)", body, position)
		}
		return message{
			title: "yt2tandoor - Queued",
			body:  body,
			tags:  []string{"yt2tandoor", "queue", "added"},
		}, true
	case EventQueueStarted:
		return message{
			title: "yt2tandoor - Queue Started",
			body:  fmt.Sprintf("Started processing queue with %d items", payload.count("count")),
			tags:  []string{"yt2tandoor", "queue", "started"},
		}, true
	case EventRecipePublished:
		body := fmt.Sprintf("✅ Published: %s", payload.text("name"))
		if url := payload.text("url"); url != "" {
			body = fmt.Sprintf("%s\n%s", body, url)
		}
		return message{
			title:    "yt2tandoor - Recipe Published",
			body:     body,
			tags:     []string{"yt2tandoor", "recipe", "published"},
			priority: "high",
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if contextLabel := payload.text("context"); contextLabel != "" {
			builder.WriteString(" with ")
			builder.WriteString(contextLabel)
		}
		builder.WriteString(": ")
		if detail := payload.text("error"); detail != "" {
			builder.WriteString(detail)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "yt2tandoor - Error",
			body:     builder.String(),
			tags:     []string{"yt2tandoor", "error", "alert"},
			priority: "high",
		}, true
	case EventQueueCompleted:
		processed := payload.count("processed")
		failed := payload.count("failed")
		duration := payload.duration("duration").Round(time.Second)
		if duration < 0 {
			duration = 0
		}
		durationText := duration.String()
		if duration == 0 {
			durationText = "0s"
		}
		if failed == 0 {
			return message{
				title: "yt2tandoor - Queue Complete",
				body:  fmt.Sprintf("Queue processing complete: %d items processed in %s", processed, durationText),
				tags:  []string{"yt2tandoor", "queue", "completed"},
			}, true
		}
		return message{
			title: "yt2tandoor - Queue Complete (with errors)",
			body:  fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, durationText),
			tags:  []string{"yt2tandoor", "queue", "completed"},
		}, true
	case EventTest:
		return message{
			title:    "yt2tandoor - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"yt2tandoor", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (p Payload) count(key string) int {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (p Payload) duration(key string) time.Duration {
	if p == nil {
		return 0
	}
	if v, ok := p[key].(time.Duration); ok {
		return v
	}
	return 0
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
func (noopService) TestNotification(context.Context) error        { return nil }
