//go:build !windows

package marker

import (
	"fmt"
	"time"
)

// NewScheduler returns a stub on platforms without a Task Scheduler. The
// caller treats scheduling failure as a logged, non-fatal degraded outcome:
// the marker simply persists longer than intended.
func NewScheduler() Scheduler {
	return &unsupportedScheduler{}
}

type unsupportedScheduler struct{}

func (s *unsupportedScheduler) ScheduleCleanup(path string, delay time.Duration) error {
	return fmt.Errorf("deferred cleanup not supported on this platform")
}
