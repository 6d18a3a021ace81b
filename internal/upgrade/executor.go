package upgrade

import (
	"context"
	"fmt"
	"time"

	"github.com/breeze-rmm/upgrade-assistant/internal/catalog"
	"github.com/breeze-rmm/upgrade-assistant/internal/config"
	"github.com/breeze-rmm/upgrade-assistant/internal/logging"
)

var log = logging.L("upgrade")

// installTimeout bounds a single winget upgrade invocation.
const installTimeout = 300 * time.Second

// Class is the classification of one upgrade invocation's exit code.
type Class int

const (
	// ClassSuccess: the tool exited 0.
	ClassSuccess Class = iota
	// ClassAcceptable: a configured non-zero code that is operationally a
	// success (e.g. "already up to date" races).
	ClassAcceptable
	// ClassFailure: everything else, including invocation transport errors.
	ClassFailure
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassAcceptable:
		return "acceptable"
	case ClassFailure:
		return "failure"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Succeeded reports whether the classification counts as a success.
func (c Class) Succeeded() bool {
	return c == ClassSuccess || c == ClassAcceptable
}

// Outcome is the per-package result of one upgrade attempt.
type Outcome struct {
	PackageID string
	ExitCode  int
	Class     Class
	Message   string
}

// ExecFunc runs the upgrade tool and returns its exit code. The invocation
// is capture-only; output interpretation stays with the tool.
type ExecFunc func(name string, args []string, timeout time.Duration) (exitCode int, err error)

// ProgressFunc receives each outcome immediately after its record is
// processed, with 1-based position k of n.
type ProgressFunc func(k, n int, outcome Outcome)

// Executor invokes the upgrade tool once per selected record, strictly
// sequentially and in selection order.
type Executor struct {
	exec    ExecFunc
	tool    string
	timeout time.Duration
}

// NewExecutor creates an Executor dispatching through the given ExecFunc.
func NewExecutor(exec ExecFunc) *Executor {
	return &Executor{
		exec:    exec,
		tool:    "winget",
		timeout: installTimeout,
	}
}

// WithTool overrides the upgrade tool binary (resolved path from preflight).
func (e *Executor) WithTool(path string) *Executor {
	if path != "" {
		e.tool = path
	}
	return e
}

// Execute processes the selected records one at a time. A single package
// failure never aborts the batch; each failure is reported through progress
// and carried in the returned outcomes.
func (e *Executor) Execute(ctx context.Context, records []catalog.Record, cfg *config.Config, progress ProgressFunc) []Outcome {
	n := len(records)
	outcomes := make([]Outcome, 0, n)

	for i, record := range records {
		if ctx.Err() != nil {
			log.Warn("execution interrupted", "completed", i, "total", n)
			break
		}

		outcome := e.upgradeOne(record, cfg)
		outcomes = append(outcomes, outcome)

		logger := logging.WithPackage(log, outcome.PackageID)
		if outcome.Class == ClassFailure {
			logger.Error("upgrade failed", logging.KeyExitCode, outcome.ExitCode, "message", outcome.Message)
		} else {
			logger.Info("upgrade succeeded", logging.KeyExitCode, outcome.ExitCode, "class", outcome.Class.String())
		}

		if progress != nil {
			progress(i+1, n, outcome)
		}
	}

	return outcomes
}

func (e *Executor) upgradeOne(record catalog.Record, cfg *config.Config) Outcome {
	// A record with no identifier never consumes a tool invocation.
	if !record.HasID() {
		return Outcome{
			PackageID: record.Name,
			ExitCode:  -1,
			Class:     ClassFailure,
			Message:   "package identifier missing",
		}
	}
	if !catalog.ValidID(record.ID) {
		return Outcome{
			PackageID: record.ID,
			ExitCode:  -1,
			Class:     ClassFailure,
			Message:   fmt.Sprintf("invalid package identifier %q", record.ID),
		}
	}

	args := buildArgs(record.ID, cfg.UpgradeArgs)
	code, err := e.exec(e.tool, args, e.timeout)
	if err != nil {
		// Transport failure (spawn error, timeout) classifies as failure.
		return Outcome{
			PackageID: record.ID,
			ExitCode:  code,
			Class:     ClassFailure,
			Message:   err.Error(),
		}
	}

	class := Classify(code, cfg)
	return Outcome{
		PackageID: record.ID,
		ExitCode:  code,
		Class:     class,
		Message:   FormatExitCode(code),
	}
}

// Classify maps an exit code against the configured acceptable set. Only
// membership counts, even for 0: an override that drops 0 from the set turns
// a zero exit into a failure. Within the set, 0 is success and any other
// code is acceptable-as-success.
func Classify(code int, cfg *config.Config) Class {
	if !cfg.IsAcceptable(code) {
		return ClassFailure
	}
	if code == 0 {
		return ClassSuccess
	}
	return ClassAcceptable
}

// buildArgs substitutes the package identifier and the configured global
// arguments into the fixed upgrade command template.
func buildArgs(packageID string, extra []string) []string {
	args := []string{"upgrade", "--exact", "--id", packageID}
	return append(args, extra...)
}
