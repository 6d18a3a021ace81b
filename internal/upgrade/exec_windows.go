//go:build windows

package upgrade

import (
	"os/exec"
	"syscall"
)

// hideWindow keeps console subprocesses from flashing a window when the
// tool runs from a UI context.
func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}
