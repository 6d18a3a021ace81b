package upgrade

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// SystemExec is the production ExecFunc: it runs the upgrade tool as the
// current (elevated) process and captures only the exit code.
func SystemExec(name string, args []string, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	hideWindow(cmd)

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return -1, fmt.Errorf("%s did not exit within %s", name, timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
