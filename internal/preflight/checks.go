package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sys/unix"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/services/llm"
	"yt2tandoor/internal/services/tandoor"
)

// defaultTandoorWait bounds how long Check retries the Tandoor probe. The
// window covers a Tandoor container that is still starting when the daemon
// comes up.
const defaultTandoorWait = 15 * time.Second

const llmCheckTimeout = 30 * time.Second

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// CheckStaging verifies the staging directory exists, is read/write
// accessible, and has at least minFreeGiB of free space. A minFreeGiB of
// zero skips the space requirement.
func CheckStaging(path string, minFreeGiB int) Result {
	return checkStaging(path, minFreeGiB, realStatfs)
}

func checkStaging(path string, minFreeGiB int, statfs statfsFunc) Result {
	result := Result{
		Name:        "Staging directory",
		Description: "Scratch space for downloads and transcripts",
	}

	if strings.TrimSpace(path) == "" {
		result.Detail = "staging_dir not configured"
		return result
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			result.Detail = fmt.Sprintf("%s (error: does not exist)", path)
			return result
		}
		result.Detail = fmt.Sprintf("%s (error: stat: %v)", path, err)
		return result
	}
	if !info.IsDir() {
		result.Detail = fmt.Sprintf("%s (error: is not a directory)", path)
		return result
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		result.Detail = fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)
		return result
	}

	_, free, err := statfs(path)
	if err != nil {
		result.Detail = fmt.Sprintf("%s (error: statfs: %v)", path, err)
		return result
	}
	freeGiB := float64(free) / float64(bytesPerGiB)
	if minFreeGiB > 0 && free < uint64(minFreeGiB)*bytesPerGiB {
		result.Detail = fmt.Sprintf("%s (error: %.1f GiB free, %d GiB required)", path, freeGiB, minFreeGiB)
		return result
	}

	result.Available = true
	result.Detail = fmt.Sprintf("%s (%.1f GiB free)", path, freeGiB)
	return result
}

const bytesPerGiB = 1024 * 1024 * 1024

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}

// CheckDirectoryAccess verifies a directory exists and is read/write
// accessible. Status rendering uses it for the configured data paths.
func CheckDirectoryAccess(name, path string) Result {
	result := Result{Name: name}
	if strings.TrimSpace(path) == "" {
		result.Detail = "not configured"
		return result
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			result.Detail = fmt.Sprintf("%s (error: does not exist)", path)
			return result
		}
		result.Detail = fmt.Sprintf("%s (error: stat: %v)", path, err)
		return result
	}
	if !info.IsDir() {
		result.Detail = fmt.Sprintf("%s (error: is not a directory)", path)
		return result
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		result.Detail = fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)
		return result
	}
	result.Available = true
	result.Detail = fmt.Sprintf("%s (read/write ok)", path)
	return result
}

// CheckTandoor verifies the Tandoor API answers an authenticated request.
// Failures are retried with exponential backoff until wait elapses; a wait
// of zero probes exactly once.
func CheckTandoor(ctx context.Context, cfg *config.Config, logger *slog.Logger, wait time.Duration) Result {
	result := Result{
		Name:        "Tandoor",
		Description: "Publishes extracted recipes",
	}

	url := strings.TrimSpace(cfg.Tandoor.URL)
	if url == "" {
		result.Detail = "url not configured"
		return result
	}
	if strings.TrimSpace(cfg.Tandoor.APIToken) == "" {
		result.Detail = "api token not configured"
		return result
	}

	client, err := tandoor.New(url, cfg.Tandoor.APIToken)
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	if err := pingTandoor(ctx, client, logger, wait); err != nil {
		result.Detail = summarizeTandoorError(err)
		return result
	}

	result.Available = true
	result.Detail = "API reachable"
	return result
}

func pingTandoor(ctx context.Context, client *tandoor.Client, logger *slog.Logger, wait time.Duration) error {
	if wait <= 0 {
		return client.HealthCheck(ctx)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxElapsedTime = wait

	attempts := 0
	operation := func() error {
		attempts++
		err := client.HealthCheck(ctx)
		if err != nil && logger != nil {
			logger.Debug("tandoor not reachable yet",
				logging.Int("attempt", attempts),
				logging.Error(err))
		}
		return err
	}
	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, cfg config.LLMConfig) Result {
	result := Result{
		Name:        "LLM",
		Description: "Extracts recipes from transcripts",
	}

	if cfg.APIKey == "" {
		result.Detail = "api key not configured"
		return result
	}

	checkCtx, cancel := context.WithTimeout(ctx, llmCheckTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		result.Detail = summarizeLLMError(err)
		return result
	}

	result.Available = true
	result.Detail = "API reachable"
	return result
}

func summarizeTandoorError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (Tandoor unreachable)"
	}
	return err.Error()
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
