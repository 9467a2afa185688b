package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/notifications"
	"yt2tandoor/internal/preflight"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/videoid"
	"yt2tandoor/internal/workflow"
)

// ErrInvalidURL marks submissions whose URL is not a supported video link.
var ErrInvalidURL = errors.New("unsupported video url")

// Daemon coordinates the background processing services and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	notifier notifications.Service
	logPath  string

	lockPath string
	lock     *flock.Flock

	api *apiServer

	depMu sync.RWMutex
	deps  []preflight.Result

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
	Dependencies []preflight.Result
}

// SubmitRequest carries a video submission into the queue.
type SubmitRequest struct {
	URL      string
	Servings int
	NoCache  bool
	Force    bool
}

// SubmitResult reports the admission outcome. Message is always set to the
// line the caller should relay: the queue-full rejection, the duplicate
// rejection, the position line when other work is pending or in flight, or a
// plain acknowledgement when the job starts immediately.
type SubmitResult struct {
	Item     *queue.Item
	Position int
	Queued   bool
	Message  string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager, logPath string, notifier notifications.Service) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "yt2tandoord.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		workflow: wf,
		notifier: notifier,
		logPath:  logPath,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	apiSrv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = apiSrv
	return d, nil
}

// Start launches the workflow manager and the optional HTTP API, and acquires
// the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another yt2tandoor daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.workflow.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("yt2tandoor daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("yt2tandoor daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Submit validates and enqueues a video URL. Saturation surfaces
// queue.ErrQueueFull and a live duplicate surfaces queue.ErrAlreadyQueued; in
// both cases the result carries the message to relay to the submitter.
func (d *Daemon) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if d.store == nil {
		return SubmitResult{}, errors.New("queue store unavailable")
	}
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return SubmitResult{}, fmt.Errorf("%w: url is empty", ErrInvalidURL)
	}
	if !videoid.IsVideoURL(rawURL) {
		return SubmitResult{}, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}

	busyBefore := d.jobInFlight(ctx)
	canonicalID, _ := videoid.Canonical(rawURL)
	item, position, err := d.store.NewJob(ctx, queue.NewJobParams{
		VideoURL:         rawURL,
		VideoID:          canonicalID,
		ServingsOverride: req.Servings,
		BypassCache:      req.NoCache,
		ForcePublish:     req.Force,
	})
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrQueueFull):
			message := fmt.Sprintf("Queue is full (max %d pending). Try again later.", d.store.Capacity())
			return SubmitResult{Message: message}, err
		case errors.Is(err, queue.ErrAlreadyQueued):
			return SubmitResult{Message: "This video is already queued."}, err
		default:
			return SubmitResult{}, err
		}
	}

	// NewJob positions among pending items only; a job already executing
	// occupies the head of the line, so the reported position shifts by one.
	if busyBefore {
		position++
	}

	result := SubmitResult{Item: item, Queued: true}
	if position > 1 {
		result.Position = position
		result.Message = fmt.Sprintf("Queued! Position: %d", position)
	} else {
		result.Message = "Queued! Processing starts shortly."
	}

	d.logger.Info("job queued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("url", rawURL),
		logging.Int("position", position))
	d.notifyQueued(ctx, item, result.Position)
	return result, nil
}

// jobInFlight reports whether any item is past admission but not yet
// terminal. Pending items do not count: they are waiting, not executing.
func (d *Daemon) jobInFlight(ctx context.Context) bool {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("queue stats unavailable", logging.Error(err))
		return false
	}
	for status, count := range stats {
		if count == 0 || status == queue.StatusPending {
			continue
		}
		if queue.IsActiveStatus(status) {
			return true
		}
	}
	return false
}

func (d *Daemon) notifyQueued(ctx context.Context, item *queue.Item, position int) {
	if d.notifier == nil || item == nil {
		return
	}
	payload := notifications.Payload{
		"url":      item.VideoURL,
		"position": position,
	}
	if title := strings.TrimSpace(item.Title); title != "" {
		payload["title"] = title
	}
	if err := d.notifier.Publish(ctx, notifications.EventJobQueued, payload); err != nil {
		d.logger.Warn("queued notification failed", logging.Error(err))
	}
}

// ListQueue returns queue items filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	if len(statuses) == 0 {
		return d.store.List(ctx)
	}
	return d.store.List(ctx, statuses...)
}

// GetQueueItem fetches a single queue item; a nil item means not found.
func (d *Daemon) GetQueueItem(ctx context.Context, id int64) (*queue.Item, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	return d.store.GetByID(ctx, id)
}

// ClearQueue removes all queue items.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.Clear(ctx)
}

// ClearCompleted removes only completed queue items.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes only failed queue items.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearFailed(ctx)
}

// ResetStuck transitions in-flight items back to pending for retry.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ResetStuckProcessing(ctx)
}

// RetryFailed resets failed items (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.RetryFailed(ctx, ids...)
}

// RemoveItems deletes the identified queue items, returning how many existed.
func (d *Daemon) RemoveItems(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	var removed int64
	for _, id := range ids {
		ok, err := d.store.Remove(ctx, id)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	if d.store == nil {
		return queue.HealthSummary{}, errors.New("queue store unavailable")
	}
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	if d.store == nil {
		return queue.DatabaseHealth{}, errors.New("queue store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := d.notifier
	if notifier == nil {
		notifier = notifications.NewService(d.cfg)
	}
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// SetDependencies records the startup readiness snapshot surfaced by Status.
func (d *Daemon) SetDependencies(results []preflight.Result) {
	d.depMu.Lock()
	defer d.depMu.Unlock()
	d.deps = append([]preflight.Result(nil), results...)
}

// Dependencies returns the most recent readiness snapshot.
func (d *Daemon) Dependencies() []preflight.Result {
	d.depMu.RLock()
	defer d.depMu.RUnlock()
	return append([]preflight.Result(nil), d.deps...)
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := d.workflow.Status(ctx)
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     summary,
		QueueDBPath:  filepath.Join(d.cfg.Paths.LogDir, "queue.db"),
		LockFilePath: d.lockPath,
		Dependencies: d.Dependencies(),
	}
}
