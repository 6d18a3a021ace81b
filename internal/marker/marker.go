package marker

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/breeze-rmm/upgrade-assistant/internal/logging"
)

var log = logging.L("marker")

// Task identity for the deferred cleanup. A fixed name keeps registration
// idempotent across runs.
const (
	TaskFolder = `\BreezeRMM\UpgradeAssistant`
	TaskName   = "CleanupDetectionMarker"
)

// DefaultCleanupDelay is how long the marker stays on disk before the
// deferred task deletes it. The fleet poller needs long enough to observe it.
const DefaultCleanupDelay = 5 * time.Minute

// Scheduler registers the one-shot deferred cleanup of the marker file.
type Scheduler interface {
	ScheduleCleanup(path string, delay time.Duration) error
}

// Signal creates the zero-byte detection marker, truncating any leftover
// file. Its mere existence tells the fleet poller the run completed.
func Signal(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create marker %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close marker %s: %w", path, err)
	}

	log.Info("detection marker created", "path", path)
	return nil
}

// TaskPath returns the full scheduled-task path for the cleanup task.
func TaskPath() string {
	return TaskFolder + `\` + TaskName
}
