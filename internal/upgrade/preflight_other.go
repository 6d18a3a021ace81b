//go:build !windows

package upgrade

import "os/exec"

// Preflight resolves the winget executable from PATH. Non-Windows hosts are
// development environments; a shim on PATH is enough to exercise the flow.
func Preflight() (string, error) {
	path, err := exec.LookPath("winget")
	if err != nil {
		return "", &DependencyError{Tool: "winget", Message: "not found on PATH"}
	}
	return path, nil
}
