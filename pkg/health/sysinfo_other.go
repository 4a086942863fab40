//go:build !linux

package health

import (
	"context"
	"time"
)

// SystemMemoryCheck checks system-wide memory usage. On platforms
// without sysinfo support it reports StatusUnknown.
type SystemMemoryCheck struct {
	MaxUsagePercent float64
}

func (c *SystemMemoryCheck) Name() string { return "system_memory" }

func (c *SystemMemoryCheck) Check(ctx context.Context) CheckResult {
	return CheckResult{
		Status:    StatusUnknown,
		Message:   "system memory check is not supported on this platform",
		Timestamp: time.Now(),
	}
}
