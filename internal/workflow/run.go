package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/breeze-rmm/upgrade-assistant/internal/catalog"
	"github.com/breeze-rmm/upgrade-assistant/internal/config"
	"github.com/breeze-rmm/upgrade-assistant/internal/logging"
	"github.com/breeze-rmm/upgrade-assistant/internal/marker"
	"github.com/breeze-rmm/upgrade-assistant/internal/presenter"
	"github.com/breeze-rmm/upgrade-assistant/internal/upgrade"
)

var log = logging.L("workflow")

// QueryBridge is the context-bridge capability the workflow depends on.
type QueryBridge interface {
	QueryUserSession(ctx context.Context) ([]catalog.Record, error)
}

// BatchExecutor runs the per-package upgrade batch.
type BatchExecutor interface {
	Execute(ctx context.Context, records []catalog.Record, cfg *config.Config, progress upgrade.ProgressFunc) []upgrade.Outcome
}

// SignalFunc creates the detection marker.
type SignalFunc func(path string) error

// Deps carries the collaborators for one run, all injected so the flow is
// testable with fakes.
type Deps struct {
	Bridge    QueryBridge
	Presenter presenter.Presenter
	Executor  BatchExecutor
	Signal    SignalFunc
	Scheduler marker.Scheduler
	// Report renders the batch outcomes; nil skips rendering.
	Report func(outcomes []upgrade.Outcome)
	// CleanupDelay overrides the marker retention interval; zero uses the default.
	CleanupDelay time.Duration
}

// Run drives the full workflow: query the user session, filter, present the
// selection, execute upgrades sequentially, then signal completion and
// schedule the deferred marker cleanup.
//
// Errors returned from Run are fatal to the run but not to the process exit
// code; the caller reports them and still exits 0 to the host scheduler.
func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	records, err := deps.Bridge.QueryUserSession(ctx)
	if err != nil {
		deps.Presenter.Fault(cfg.SessionTitle, "Could not determine available upgrades.")
		return fmt.Errorf("query user session: %w", err)
	}

	filtered, empty := catalog.Filter(records, cfg.SkipSet())
	if empty {
		// Clean early exit: no marker, no cleanup task.
		deps.Presenter.Notice(cfg.SessionTitle, "No upgrades available.")
		return nil
	}

	selection, err := deps.Presenter.Select(filtered)
	if err != nil {
		deps.Presenter.Fault(cfg.SessionTitle, "The selection dialog failed.")
		return fmt.Errorf("present selection: %w", err)
	}
	if !selection.Confirmed || len(selection.IDs) == 0 {
		// Operator declined; the fleet server sees no marker and may retry.
		log.Info("operator made no selection, exiting without changes")
		deps.Presenter.Notice(cfg.SessionTitle, "No changes were made.")
		return nil
	}

	selected := pickSelected(filtered, selection.IDs)
	log.Info("starting upgrade batch", "selected", len(selected))

	progress := func(k, n int, outcome upgrade.Outcome) {
		if outcome.Class == upgrade.ClassFailure {
			message := fmt.Sprintf("Upgrade of %s failed (%d of %d): %s", outcome.PackageID, k, n, outcome.Message)
			if upgrade.IsInstallerBusy(outcome.ExitCode) {
				message += " Try again once the current installation finishes."
			}
			deps.Presenter.Fault(cfg.SessionTitle, message)
			return
		}
		if cfg.ShowProgress {
			deps.Presenter.Notice(cfg.SessionTitle,
				fmt.Sprintf("Upgraded %s (%d of %d)", outcome.PackageID, k, n))
		}
	}

	outcomes := deps.Executor.Execute(ctx, selected, cfg, progress)
	if deps.Report != nil {
		deps.Report(outcomes)
	}

	if pending := rebootPending(outcomes); pending > 0 {
		deps.Presenter.Notice(cfg.SessionTitle,
			fmt.Sprintf("Restart the device to finish %d upgrade(s).", pending))
	}

	// The upgrade work is done; everything below is best-effort signaling.
	if err := deps.Signal(cfg.MarkerPath); err != nil {
		log.Warn("detection marker creation failed", "path", cfg.MarkerPath, logging.KeyError, err)
		return nil
	}

	delay := deps.CleanupDelay
	if delay <= 0 {
		delay = marker.DefaultCleanupDelay
	}
	if err := deps.Scheduler.ScheduleCleanup(cfg.MarkerPath, delay); err != nil {
		// Degraded but acceptable: the marker persists longer than intended.
		log.Warn("cleanup task registration failed", logging.KeyError, err)
	}

	return nil
}

// rebootPending counts outcomes whose exit code indicates the upgrade
// finished but needs a restart to complete.
func rebootPending(outcomes []upgrade.Outcome) int {
	pending := 0
	for _, o := range outcomes {
		if upgrade.IsRebootRequired(o.ExitCode) {
			pending++
		}
	}
	return pending
}

// pickSelected maps the confirmed IDs back onto catalog records, preserving
// catalog order so progress reporting stays meaningful.
func pickSelected(records []catalog.Record, ids []string) []catalog.Record {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	selected := make([]catalog.Record, 0, len(ids))
	for _, r := range records {
		if _, ok := want[r.ID]; ok {
			selected = append(selected, r)
		}
	}
	return selected
}
