//go:build windows

package privilege

import "golang.org/x/sys/windows"

// IsElevated reports whether the current process runs with an elevated
// token (SYSTEM or an administrator with UAC elevation).
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
