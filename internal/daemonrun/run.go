// Package daemonrun assembles the daemon process runtime: logging, queue
// store, workflow manager, pipeline stages, IPC server, and shutdown
// handling. Both cmd/yt2tandoord and `yt2tandoor daemon run` call into it.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/daemon"
	"yt2tandoor/internal/ipc"
	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/notifications"
	"yt2tandoor/internal/pipeline"
	"yt2tandoor/internal/preflight"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	SocketPath  string
	LogLevel    string
	Development bool
}

// Run starts the yt2tandoor daemon runtime loop and blocks until the context
// is canceled or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("yt2tandoor-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:            opts.LogLevel,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update yt2tandoor.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "yt2tandoor-*.log", Exclude: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.LogDir, "yt2tandoor.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	if reset, err := store.ResetStuckProcessing(signalCtx); err != nil {
		logger.Warn("reset stuck items", logging.Error(err))
	} else if reset > 0 {
		logger.Info("reset stuck items from previous run", logging.Int64("count", reset))
	}

	notifier := notifications.NewService(cfg)
	manager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	stages, err := pipeline.StagesFor(cfg, store, logger, notifier)
	if err != nil {
		return err
	}
	manager.ConfigureStages(pipeline.Set(stages))

	d, err := daemon.New(cfg, store, logger, manager, logPath, notifier)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	// The readiness probe tolerates a Tandoor instance that boots slower
	// than the daemon; run it in the background so IPC comes up first.
	go func() {
		results := preflight.Check(signalCtx, cfg, logger)
		d.SetDependencies(results)
		logReadiness(logger, results)
	}()

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = filepath.Join(cfg.Paths.LogDir, "yt2tandoor.sock")
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and queue database access"),
			logging.String(logging.FieldImpact, "daemon may not process queue items"),
		)
	}

	<-signalCtx.Done()
	logger.Info("yt2tandoor daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "yt2tandoor.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logReadiness(logger *slog.Logger, results []preflight.Result) {
	attrs := []any{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("all_available", preflight.AllAvailable(results)),
	}
	for _, result := range results {
		key := strings.ReplaceAll(strings.ToLower(result.Name), " ", "_")
		attrs = append(attrs, logging.Bool(key+"_available", result.Available))
	}
	logger.Info("dependency snapshot", attrs...)
	for _, result := range results {
		if result.Available || result.Optional {
			continue
		}
		logger.Warn("required dependency unavailable",
			logging.String("dependency", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, result.Description),
		)
	}
}
