//go:build !windows

package bridge

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// NewSessionLauncher returns a Launcher for non-Windows platforms. There is
// no session boundary to cross here, so the script runs directly; this keeps
// the handoff contract exercisable in development and tests.
func NewSessionLauncher() Launcher {
	return &shellLauncher{}
}

type shellLauncher struct{}

func (l *shellLauncher) Launch(scriptPath string, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", scriptPath)
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
