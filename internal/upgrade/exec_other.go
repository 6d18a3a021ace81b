//go:build !windows

package upgrade

import "os/exec"

func hideWindow(_ *exec.Cmd) {}
