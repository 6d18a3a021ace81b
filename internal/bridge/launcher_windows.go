//go:build windows

package bridge

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modKernel32                      = windows.NewLazySystemDLL("kernel32.dll")
	procWTSGetActiveConsoleSessionID = modKernel32.NewProc("WTSGetActiveConsoleSessionId")
)

// NewSessionLauncher returns a Launcher that runs the query script in the
// interactive console user's session via that user's own token. The tool
// runs as SYSTEM; WTSQueryUserToken requires that privilege.
func NewSessionLauncher() Launcher {
	return &windowsLauncher{}
}

type windowsLauncher struct{}

func (l *windowsLauncher) Launch(scriptPath string, timeout time.Duration) (int, error) {
	sessionID, err := activeConsoleSession()
	if err != nil {
		return -1, err
	}

	// 1. Obtain the logged-on user's primary token for the session.
	var userToken windows.Token
	if err := windows.WTSQueryUserToken(sessionID, &userToken); err != nil {
		return -1, fmt.Errorf("WTSQueryUserToken(session=%d): %w (is a user logged on?)", sessionID, err)
	}
	defer userToken.Close()

	// 2. Duplicate as a primary token suitable for CreateProcessAsUser.
	var dupToken windows.Token
	err = windows.DuplicateTokenEx(
		userToken,
		windows.MAXIMUM_ALLOWED,
		nil,
		windows.SecurityImpersonation,
		windows.TokenPrimary,
		&dupToken,
	)
	if err != nil {
		return -1, fmt.Errorf("DuplicateTokenEx: %w", err)
	}
	defer dupToken.Close()

	// 3. Build the command line: the script runs through cmd.exe, hidden.
	cmdLine, err := windows.UTF16PtrFromString(fmt.Sprintf(`cmd.exe /c "%s"`, scriptPath))
	if err != nil {
		return -1, fmt.Errorf("UTF16PtrFromString: %w", err)
	}

	// 4. Target the interactive window station + default desktop.
	desktop, err := windows.UTF16PtrFromString(`winsta0\Default`)
	if err != nil {
		return -1, fmt.Errorf("UTF16PtrFromString desktop: %w", err)
	}

	si := windows.StartupInfo{
		Cb:      uint32(unsafe.Sizeof(windows.StartupInfo{})),
		Desktop: desktop,
	}
	var pi windows.ProcessInformation

	err = windows.CreateProcessAsUser(
		dupToken,
		nil,     // lpApplicationName (use cmdLine)
		cmdLine, // lpCommandLine
		nil,     // lpProcessAttributes
		nil,     // lpThreadAttributes
		false,   // bInheritHandles
		windows.CREATE_NO_WINDOW|windows.CREATE_UNICODE_ENVIRONMENT,
		nil, // lpEnvironment (inherit)
		nil, // lpCurrentDirectory (inherit)
		&si,
		&pi,
	)
	if err != nil {
		return -1, fmt.Errorf("CreateProcessAsUser(session=%d): %w", sessionID, err)
	}
	defer windows.CloseHandle(pi.Process)
	windows.CloseHandle(pi.Thread)

	log.Info("spawned query process in user session",
		"sessionId", sessionID,
		"pid", pi.ProcessId,
	)

	// 5. Block until the process exits, bounded by the query deadline.
	event, err := windows.WaitForSingleObject(pi.Process, uint32(timeout.Milliseconds()))
	if err != nil {
		return -1, fmt.Errorf("WaitForSingleObject: %w", err)
	}
	if event == uint32(windows.WAIT_TIMEOUT) {
		windows.TerminateProcess(pi.Process, 1)
		return -1, fmt.Errorf("query process did not exit within %s", timeout)
	}

	var exitCode uint32
	if err := windows.GetExitCodeProcess(pi.Process, &exitCode); err != nil {
		return -1, fmt.Errorf("GetExitCodeProcess: %w", err)
	}
	return int(int32(exitCode)), nil
}

// activeConsoleSession returns the session ID of the physically attached
// console session.
func activeConsoleSession() (uint32, error) {
	r1, _, _ := procWTSGetActiveConsoleSessionID.Call()
	// 0xFFFFFFFF means no session is attached to the console.
	if r1 == 0xFFFFFFFF {
		return 0, fmt.Errorf("no interactive console session attached")
	}
	return uint32(r1), nil
}
