// Package health runs local diagnostics for the Shield SDK: API
// reachability, stored credentials, the history database, and the host
// machine. The CLI surfaces these through the -doctor flag.
package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/web3shield/shield-sdk/pkg/credentials"
)

// =============================================================================
// Check Interface
// =============================================================================

// Checker is the interface for diagnostic checks.
type Checker interface {
	// Name returns the check name.
	Name() string

	// Check performs the diagnostic check.
	Check(ctx context.Context) CheckResult
}

// CheckFunc is a function type that implements Checker.
type CheckFunc func(ctx context.Context) CheckResult

func (f CheckFunc) Name() string                          { return "" }
func (f CheckFunc) Check(ctx context.Context) CheckResult { return f(ctx) }

// =============================================================================
// Status Types
// =============================================================================

// Status represents a diagnostic status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
	StatusUnknown   Status = "unknown"
)

// CheckResult holds the result of a single check.
type CheckResult struct {
	// Status is the check status.
	Status Status `json:"status"`

	// Message provides additional details.
	Message string `json:"message,omitempty"`

	// Duration is how long the check took.
	Duration time.Duration `json:"duration_ms"`

	// Timestamp is when the check was performed.
	Timestamp time.Time `json:"timestamp"`

	// Error is the error if the check failed.
	Error string `json:"error,omitempty"`

	// Metadata holds additional check-specific data.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Report is the aggregate result of a diagnostic run.
type Report struct {
	// Status is the worst status across all checks.
	Status Status `json:"status"`

	// Timestamp is when the run completed.
	Timestamp time.Time `json:"timestamp"`

	// Checks contains individual check results keyed by name.
	Checks map[string]CheckResult `json:"checks,omitempty"`

	// Version is the SDK version.
	Version string `json:"version,omitempty"`
}

// =============================================================================
// Runner
// =============================================================================

// Runner holds a set of registered checks and runs them concurrently.
type Runner struct {
	mu sync.RWMutex

	checks map[string]Checker

	version string
	timeout time.Duration
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithVersion sets the SDK version reported in diagnostics.
func WithVersion(version string) RunnerOption {
	return func(r *Runner) {
		r.version = version
	}
}

// WithTimeout sets the deadline for a full diagnostic run.
func WithTimeout(timeout time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = timeout
	}
}

// NewRunner creates a diagnostic runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		checks:  make(map[string]Checker),
		timeout: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a check.
func (r *Runner) Register(name string, checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = checker
}

// RegisterFunc adds a check function.
func (r *Runner) RegisterFunc(name string, fn func(ctx context.Context) CheckResult) {
	r.Register(name, CheckFunc(fn))
}

// Unregister removes a check.
func (r *Runner) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checks, name)
}

// Run executes all registered checks concurrently and aggregates the
// worst status.
func (r *Runner) Run(ctx context.Context) Report {
	r.mu.RLock()
	checks := make(map[string]Checker, len(r.checks))
	for name, checker := range r.checks {
		checks[name] = checker
	}
	r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results := make(map[string]CheckResult)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range checks {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			start := time.Now()
			result := checker.Check(ctx)
			result.Duration = time.Since(start)
			result.Timestamp = time.Now()

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()

	overall := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall != StatusUnhealthy {
				overall = StatusDegraded
			}
		}
	}

	return Report{
		Status:    overall,
		Timestamp: time.Now(),
		Checks:    results,
		Version:   r.version,
	}
}

// =============================================================================
// Built-in Checks
// =============================================================================

// APICheck verifies the Shield API is reachable. Any HTTP response
// counts as reachable; only transport failures are unhealthy.
type APICheck struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

func (c *APICheck) Name() string { return "api" }

func (c *APICheck) Check(ctx context.Context) CheckResult {
	result := CheckResult{
		Timestamp: time.Now(),
		Metadata:  map[string]any{"url": c.BaseURL},
	}

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: c.Timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL, nil)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		return result
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		result.Status = StatusDegraded
		result.Error = fmt.Sprintf("server error: HTTP %d", resp.StatusCode)
		return result
	}

	result.Status = StatusHealthy
	result.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
	return result
}

// CredentialsCheck reports whether a usable profile is stored. A
// missing profile is degraded, not unhealthy: quick scans work without
// one.
type CredentialsCheck struct {
	Store credentials.Store
}

func (c *CredentialsCheck) Name() string { return "credentials" }

func (c *CredentialsCheck) Check(ctx context.Context) CheckResult {
	result := CheckResult{
		Timestamp: time.Now(),
		Metadata:  make(map[string]any),
	}

	store := c.Store
	if store == nil {
		store = credentials.Default()
	}

	profile, err := store.Load(ctx)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		return result
	}

	result.Metadata["has_user_id"] = profile.UserID != ""
	result.Metadata["has_license_key"] = profile.LicenseKey != ""

	if profile.Empty() {
		result.Status = StatusDegraded
		result.Message = "no stored credentials; deep scans will require sign-in"
		return result
	}

	result.Status = StatusHealthy
	result.Message = "profile found"
	return result
}

// HistoryCheck verifies the scan history database responds.
type HistoryCheck struct {
	PingFunc func(ctx context.Context) error
}

func (c *HistoryCheck) Name() string { return "history" }

func (c *HistoryCheck) Check(ctx context.Context) CheckResult {
	result := CheckResult{Timestamp: time.Now()}

	if c.PingFunc == nil {
		result.Status = StatusUnknown
		result.Message = "history not enabled"
		return result
	}

	start := time.Now()
	err := c.PingFunc(ctx)
	result.Duration = time.Since(start)

	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	} else {
		result.Status = StatusHealthy
		result.Message = "connected"
	}

	return result
}

// DiskCheck checks free space on the volume holding local state.
type DiskCheck struct {
	Path         string
	MinFreeBytes int64
	// MinFreePercent is the minimum percentage of free space required (0-100).
	// If set, this takes precedence over MinFreeBytes.
	MinFreePercent float64
}

func (c *DiskCheck) Name() string { return "disk" }

func (c *DiskCheck) Check(ctx context.Context) CheckResult {
	result := CheckResult{
		Timestamp: time.Now(),
		Metadata:  make(map[string]any),
	}

	path := c.Path
	if path == "" {
		path = "/"
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("failed to get disk stats: %v", err)
		return result
	}

	totalBytes := stat.Blocks * uint64(stat.Bsize)
	freeBytes := stat.Bavail * uint64(stat.Bsize)
	freePercent := float64(freeBytes) / float64(totalBytes) * 100

	result.Metadata["total_bytes"] = totalBytes
	result.Metadata["free_bytes"] = freeBytes
	result.Metadata["free_percent"] = fmt.Sprintf("%.2f%%", freePercent)
	result.Metadata["path"] = path

	if c.MinFreePercent > 0 {
		if freePercent < c.MinFreePercent {
			result.Status = StatusUnhealthy
			result.Error = fmt.Sprintf("disk free space %.2f%% is below threshold %.2f%%", freePercent, c.MinFreePercent)
			return result
		}
	} else if c.MinFreeBytes > 0 {
		if freeBytes < uint64(c.MinFreeBytes) {
			result.Status = StatusUnhealthy
			result.Error = fmt.Sprintf("disk free space %d bytes is below threshold %d bytes", freeBytes, c.MinFreeBytes)
			return result
		}
	}

	result.Status = StatusHealthy
	result.Message = fmt.Sprintf("disk has %.2f%% free space", freePercent)
	return result
}

// SystemMemoryCheck is defined in sysinfo_linux.go and sysinfo_other.go
// for platform-specific implementations.

// =============================================================================
// Interface Compliance
// =============================================================================

var (
	_ Checker = (*APICheck)(nil)
	_ Checker = (*CredentialsCheck)(nil)
	_ Checker = (*HistoryCheck)(nil)
	_ Checker = (*DiskCheck)(nil)
	_ Checker = (*SystemMemoryCheck)(nil)
	_ Checker = CheckFunc(nil)
)
