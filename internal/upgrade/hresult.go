package upgrade

import "fmt"

// hresultInfo holds a human-readable name and description for an HRESULT
// exit code returned by winget / App Installer.
type hresultInfo struct {
	Name    string
	Message string
}

// knownHResults maps common winget installer HRESULT codes to descriptions.
var knownHResults = map[uint32]hresultInfo{
	// App Installer CLI
	0x8A15002B: {"APPINSTALLER_CLI_ERROR_UPDATE_NOT_APPLICABLE", "no applicable update found"},

	// Installer result codes surfaced by winget
	0x8A150101: {"APPINSTALLER_CLI_ERROR_INSTALL_PACKAGE_IN_USE", "application is currently running"},
	0x8A150102: {"APPINSTALLER_CLI_ERROR_INSTALL_INSTALL_IN_PROGRESS", "another installation is already in progress"},
	0x8A150103: {"APPINSTALLER_CLI_ERROR_INSTALL_FILE_IN_USE", "one or more files are in use"},
	0x8A150105: {"APPINSTALLER_CLI_ERROR_INSTALL_DISK_FULL", "there is not enough disk space"},
	0x8A150107: {"APPINSTALLER_CLI_ERROR_INSTALL_NO_NETWORK", "no network connection available"},
	0x8A150109: {"APPINSTALLER_CLI_ERROR_INSTALL_REBOOT_REQUIRED_TO_FINISH", "a reboot is required to finish the install"},
	0x8A15010C: {"APPINSTALLER_CLI_ERROR_INSTALL_CANCELLED_BY_USER", "installation was cancelled"},
	0x8A15010D: {"APPINSTALLER_CLI_ERROR_INSTALL_ALREADY_INSTALLED", "the package is already installed"},
	0x8A15010F: {"APPINSTALLER_CLI_ERROR_INSTALL_BLOCKED_BY_POLICY", "installation is blocked by policy"},

	// General COM / Win32 errors
	0x80070005: {"E_ACCESSDENIED", "access denied — the tool may need to run elevated"},
	0x80070057: {"E_INVALIDARG", "one or more arguments are not valid"},
	0x80072EE2: {"WININET_E_TIMEOUT", "the operation timed out"},
	0x80072EFD: {"WININET_E_CONNECTION_RESET", "the connection with the server was reset"},
	0x80072EFE: {"WININET_E_CANNOT_CONNECT", "could not connect to the package source"},
}

// FormatExitCode returns a human-readable description of an upgrade-tool
// exit code. Codes that map to known HRESULTs get a name and message;
// negative codes are rendered in their unsigned hex form.
func FormatExitCode(code int) string {
	if code == 0 {
		return "completed"
	}
	hr := uint32(int32(code))
	if info, ok := knownHResults[hr]; ok {
		return fmt.Sprintf("0x%08X: %s: %s", hr, info.Name, info.Message)
	}
	if hr&0x80000000 != 0 {
		return fmt.Sprintf("0x%08X: unknown HRESULT", hr)
	}
	return fmt.Sprintf("exit code %d", code)
}

// IsRebootRequired reports whether the exit code indicates the upgrade
// completed but needs a reboot to finish.
func IsRebootRequired(code int) bool {
	return uint32(int32(code)) == 0x8A150109
}

// IsInstallerBusy reports whether the exit code indicates a concurrent
// installation conflict worth retrying later.
func IsInstallerBusy(code int) bool {
	hr := uint32(int32(code))
	return hr == 0x8A150101 || hr == 0x8A150102 || hr == 0x8A150103
}
