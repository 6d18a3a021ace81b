package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/breeze-rmm/upgrade-assistant/internal/catalog"
	"github.com/breeze-rmm/upgrade-assistant/internal/logging"
)

var log = logging.L("bridge")

// Artifact names under the handoff directory.
const (
	RequestArtifactWindows = "upgrade-query.cmd"
	RequestArtifactUnix    = "upgrade-query.sh"
	ResultArtifact         = "upgrade-inventory.json"
)

// DefaultQueryTimeout bounds the wait for the user-session query process.
// The process's own exit remains the synchronization point; the deadline is
// a safeguard against a hung session launch.
const DefaultQueryTimeout = 3 * time.Minute

// Launcher starts a command line in the interactive user's session and
// blocks until it exits or the timeout elapses, returning the exit code.
type Launcher interface {
	Launch(cmdline string, timeout time.Duration) (exitCode int, err error)
}

// Bridge executes the package-inventory query as the interactive user from
// the elevated process and retrieves the result via the handoff directory.
type Bridge struct {
	dir      string
	launcher Launcher
	timeout  time.Duration
}

// New creates a Bridge over the given handoff directory.
func New(handoffDir string, launcher Launcher) *Bridge {
	return &Bridge{
		dir:      handoffDir,
		launcher: launcher,
		timeout:  DefaultQueryTimeout,
	}
}

// WithTimeout overrides the query deadline.
func (b *Bridge) WithTimeout(d time.Duration) *Bridge {
	b.timeout = d
	return b
}

// RequestPath returns the path of the transient query script artifact.
func (b *Bridge) RequestPath() string {
	name := RequestArtifactUnix
	if runtime.GOOS == "windows" {
		name = RequestArtifactWindows
	}
	return filepath.Join(b.dir, name)
}

// ResultPath returns the path of the result artifact. The result is retained
// after the run for diagnostics until the next run overwrites it.
func (b *Bridge) ResultPath() string {
	return filepath.Join(b.dir, ResultArtifact)
}

// QueryUserSession runs the inventory query in the interactive user's
// session and returns the normalized records. An empty inventory is a valid
// result; an absent or unparseable result artifact is fatal.
func (b *Bridge) QueryUserSession(ctx context.Context) ([]catalog.Record, error) {
	// The handoff directory must be readable by both the elevated process
	// and the user session.
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return nil, fmt.Errorf("create handoff directory %s: %w", b.dir, err)
	}

	requestPath := b.RequestPath()
	resultPath := b.ResultPath()

	// Stale results from a prior run must not satisfy this run's read.
	if err := os.Remove(resultPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("clear stale result artifact: %w", err)
	}

	script, err := buildRequestScript(resultPath)
	if err != nil {
		return nil, fmt.Errorf("build query script: %w", err)
	}
	if err := os.WriteFile(requestPath, []byte(script), 0755); err != nil {
		return nil, fmt.Errorf("write query script %s: %w", requestPath, err)
	}
	log.Info("wrote query script", "path", requestPath)

	timeout := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}

	// Synchronous boundary: no progress until the user-session process exits.
	start := time.Now()
	exitCode, err := b.launcher.Launch(requestPath, timeout)
	if err != nil {
		return nil, &LaunchError{Err: err}
	}
	log.Info("query process finished",
		logging.KeyExitCode, exitCode,
		logging.KeyDurationMs, time.Since(start).Milliseconds(),
	)
	if exitCode != 0 {
		log.Warn("query process exited non-zero", logging.KeyExitCode, exitCode)
	}

	data, err := os.ReadFile(resultPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &HandoffMissingError{Path: resultPath}
		}
		return nil, fmt.Errorf("read result artifact: %w", err)
	}

	records, err := catalog.DecodeResult(data)
	if err != nil {
		return nil, &HandoffMalformedError{Path: resultPath, Err: err}
	}

	if err := os.Remove(requestPath); err != nil {
		log.Warn("could not remove query script", "path", requestPath, logging.KeyError, err)
	}

	log.Info("inventory received", "records", len(records), "path", resultPath)
	return records, nil
}

// buildRequestScript renders the minimal, self-contained query script whose
// sole effect is to enumerate upgradeable packages and serialize them to the
// result artifact path. It re-invokes this binary's query subcommand.
func buildRequestScript(resultPath string) (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}

	if runtime.GOOS == "windows" {
		return "@echo off\r\n\"" + exe + "\" query --output \"" + resultPath + "\"\r\n", nil
	}
	return "#!/bin/sh\nexec \"" + exe + "\" query --output \"" + resultPath + "\"\n", nil
}
