//go:build windows

package marker

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// NewScheduler returns the Task Scheduler backed cleanup scheduler.
func NewScheduler() Scheduler {
	return &schtasksScheduler{}
}

type schtasksScheduler struct{}

// ScheduleCleanup registers the one-shot marker deletion task. Any task left
// by a prior run is unregistered first, so re-running the tool never leaves
// duplicate or stale deferred tasks.
func (s *schtasksScheduler) ScheduleCleanup(path string, delay time.Duration) error {
	if delay <= 0 {
		delay = DefaultCleanupDelay
	}

	xmlData, err := BuildCleanupTaskXML(path, time.Now().Add(delay))
	if err != nil {
		return err
	}

	xmlPath := filepath.Join(os.TempDir(), "upgrade-assistant-cleanup.xml")
	if err := os.WriteFile(xmlPath, xmlData, 0600); err != nil {
		return fmt.Errorf("write task definition: %w", err)
	}
	defer os.Remove(xmlPath)

	taskPath := TaskPath()

	// Unregister any prior instance; a missing task is not an error.
	if out, err := exec.Command("schtasks", "/delete", "/tn", taskPath, "/f").CombinedOutput(); err != nil {
		log.Debug("no prior cleanup task to remove", "output", strings.TrimSpace(string(out)))
	} else {
		log.Info("removed prior cleanup task", "task", taskPath)
	}

	out, err := exec.Command("schtasks", "/create", "/tn", taskPath, "/xml", xmlPath, "/f").CombinedOutput()
	if err != nil {
		return fmt.Errorf("schtasks create failed: %v: %s", err, strings.TrimSpace(string(out)))
	}

	log.Info("cleanup task registered", "task", taskPath, "delay", delay.String())
	return nil
}
