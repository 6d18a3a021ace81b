//go:build windows

package upgrade

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// Preflight resolves the winget executable. Under SYSTEM the app-execution
// alias is not on PATH, so the App Installer package directory is searched
// directly. Returns a DependencyError when winget cannot be located.
func Preflight() (string, error) {
	if path, err := exec.LookPath("winget"); err == nil {
		return path, nil
	}

	programFiles := os.Getenv("ProgramW6432")
	if programFiles == "" {
		programFiles = `C:\Program Files`
	}

	pattern := filepath.Join(programFiles, "WindowsApps", "Microsoft.DesktopAppInstaller_*__8wekyb3d8bbwe", "winget.exe")
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", &DependencyError{
			Tool:    "winget",
			Message: "not on PATH and no App Installer package found",
		}
	}

	// Multiple versions can coexist during servicing; take the newest.
	sort.Strings(matches)
	candidate := matches[len(matches)-1]
	if _, err := os.Stat(candidate); err != nil {
		return "", &DependencyError{Tool: "winget", Message: err.Error()}
	}

	log.Info("resolved winget", "path", candidate)
	return candidate, nil
}
