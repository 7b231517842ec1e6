package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zero-day-ai/sabik/types"
)

// DefaultCheckTimeout bounds each check run by Run.
const DefaultCheckTimeout = 5 * time.Second

// Check is a named health probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) types.HealthStatus
}

// Result pairs a check name with its outcome.
type Result struct {
	Name     string             `json:"name"`
	Status   types.HealthStatus `json:"status"`
	Duration time.Duration      `json:"duration"`
}

// Run executes all checks concurrently, each with its own timeout, and
// returns the results in the order of checks. A check that panics is
// reported as unhealthy.
func Run(ctx context.Context, timeout time.Duration, checks ...Check) []Result {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}

	results := make([]Result, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func(i int, c Check) {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			status := safeRun(cctx, c)
			results[i] = Result{Name: c.Name, Status: status, Duration: time.Since(start)}
		}(i, c)
	}
	wg.Wait()
	return results
}

func safeRun(ctx context.Context, c Check) (status types.HealthStatus) {
	defer func() {
		if r := recover(); r != nil {
			status = types.NewUnhealthyStatus(fmt.Sprintf("check %s panicked", c.Name), map[string]any{"panic": fmt.Sprint(r)})
		}
	}()
	if c.Run == nil {
		return types.NewUnhealthyStatus(fmt.Sprintf("check %s has no probe", c.Name), nil)
	}
	return c.Run(ctx)
}

// Overall combines results with Combine.
func Overall(results []Result) types.HealthStatus {
	statuses := make([]types.HealthStatus, len(results))
	for i, r := range results {
		statuses[i] = r.Status
		if statuses[i].Message == "" {
			statuses[i].Message = r.Name
		}
	}
	return Combine(statuses...)
}

// LookPathFunc resolves a program name to its path.
type LookPathFunc func(name string) (string, error)

// BinaryCheck reports whether a helper program can be found. A nil
// lookPath searches PATH.
func BinaryCheck(lookPath LookPathFunc, name string) types.HealthStatus {
	if name == "" {
		return types.NewUnhealthyStatus("no program name given", nil)
	}
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(name)
	if err != nil {
		return types.NewUnhealthyStatus(fmt.Sprintf("%s is not installed", name), map[string]any{
			"binary": name,
			"error":  err.Error(),
		})
	}
	return types.NewHealthyStatus(fmt.Sprintf("%s found at %s", name, path))
}

// AnyBinaryCheck is healthy when at least one of names is installed and
// returns the first one found. With none installed it is degraded: the
// programs are optional helpers.
func AnyBinaryCheck(lookPath LookPathFunc, names ...string) types.HealthStatus {
	for _, name := range names {
		if st := BinaryCheck(lookPath, name); st.IsHealthy() {
			return st
		}
	}
	return types.NewDegradedStatus(fmt.Sprintf("none of %s is installed", strings.Join(names, ", ")),
		map[string]any{"searched": names})
}

// URLCheck issues a GET to url and reports the endpoint as healthy when it
// answers below 500, degraded on a 5xx, and unhealthy when unreachable.
// The response body is not read.
//
// Example:
//
//	status := health.URLCheck(ctx, http.DefaultClient, "https://image.pollinations.ai")
func URLCheck(ctx context.Context, client *http.Client, url string) types.HealthStatus {
	if url == "" {
		return types.NewUnhealthyStatus("url cannot be empty", nil)
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.NewUnhealthyStatus(
			fmt.Sprintf("invalid url '%s'", url),
			map[string]any{"url": url, "error": err.Error()},
		)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return types.NewUnhealthyStatus(
			fmt.Sprintf("failed to reach %s", url),
			map[string]any{"url": url, "error": err.Error()},
		)
	}
	resp.Body.Close()

	latency := time.Since(start)
	details := map[string]any{
		"url":         url,
		"status_code": resp.StatusCode,
		"latency_ms":  latency.Milliseconds(),
	}
	if resp.StatusCode >= 500 {
		return types.NewDegradedStatus(fmt.Sprintf("%s answered %d", url, resp.StatusCode), details)
	}
	return types.HealthStatus{
		Status:  types.StatusHealthy,
		Message: fmt.Sprintf("%s reachable (%d)", url, resp.StatusCode),
		Details: details,
	}
}

// WritableDirCheck creates dir if needed and verifies a file can be written
// and removed in it.
func WritableDirCheck(dir string) types.HealthStatus {
	if dir == "" {
		return types.NewUnhealthyStatus("path cannot be empty", nil)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.NewUnhealthyStatus(
			fmt.Sprintf("cannot create directory '%s'", dir),
			map[string]any{"path": dir, "error": err.Error()},
		)
	}

	f, err := os.CreateTemp(dir, ".sabik-doctor-*")
	if err != nil {
		return types.NewUnhealthyStatus(
			fmt.Sprintf("directory '%s' is not writable", dir),
			map[string]any{"path": dir, "error": err.Error()},
		)
	}
	name := f.Name()
	f.Close()
	if err := os.Remove(name); err != nil {
		return types.NewDegradedStatus(
			fmt.Sprintf("could not clean up probe file in '%s'", dir),
			map[string]any{"path": name, "error": err.Error()},
		)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return types.NewHealthyStatus(fmt.Sprintf("directory '%s' is writable", abs))
}

// Pinger is implemented by connections that can be probed, such as
// *queue.RedisClient.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck reports whether p answers.
func PingCheck(ctx context.Context, name string, p Pinger) types.HealthStatus {
	if p == nil {
		return types.NewUnhealthyStatus(fmt.Sprintf("%s is not configured", name), nil)
	}
	if err := p.Ping(ctx); err != nil {
		return types.NewUnhealthyStatus(
			fmt.Sprintf("%s did not answer", name),
			map[string]any{"error": err.Error()},
		)
	}
	return types.NewHealthyStatus(fmt.Sprintf("%s answered", name))
}

// Combine folds several statuses into one whose level is the worst of
// them. Its details count each level and name the failing checks.
func Combine(checks ...types.HealthStatus) types.HealthStatus {
	if len(checks) == 0 {
		return types.NewHealthyStatus("no checks provided")
	}

	var unhealthy, degraded []string
	for _, check := range checks {
		msg := check.Message
		if msg == "" {
			msg = "unnamed check"
		}
		switch {
		case check.IsHealthy():
		case check.IsDegraded():
			degraded = append(degraded, msg)
		default:
			unhealthy = append(unhealthy, msg)
		}
	}
	healthy := len(checks) - len(unhealthy) - len(degraded)

	switch types.Worst(checks...).Severity() {
	case 0:
		return types.NewHealthyStatus(fmt.Sprintf("all %d check(s) passed", len(checks)))
	case 1:
		return types.NewDegradedStatus(fmt.Sprintf("%d check(s) degraded", len(degraded)), map[string]any{
			"total":           len(checks),
			"degraded":        len(degraded),
			"healthy":         healthy,
			"degraded_checks": degraded,
		})
	}
	return types.NewUnhealthyStatus(fmt.Sprintf("%d check(s) failed", len(unhealthy)), map[string]any{
		"total":         len(checks),
		"unhealthy":     len(unhealthy),
		"degraded":      len(degraded),
		"healthy":       healthy,
		"failed_checks": unhealthy,
	})
}
