package workflow

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/breeze-rmm/upgrade-assistant/internal/catalog"
	"github.com/breeze-rmm/upgrade-assistant/internal/config"
	"github.com/breeze-rmm/upgrade-assistant/internal/presenter"
	"github.com/breeze-rmm/upgrade-assistant/internal/upgrade"
)

type fakeBridge struct {
	records []catalog.Record
	err     error
}

func (b *fakeBridge) QueryUserSession(ctx context.Context) ([]catalog.Record, error) {
	return b.records, b.err
}

type fakePresenter struct {
	selection   presenter.Selection
	selectErr   error
	selected    []catalog.Record
	notices     []string
	faults      []string
	faultTitles []string
}

func (p *fakePresenter) Select(records []catalog.Record) (presenter.Selection, error) {
	p.selected = records
	return p.selection, p.selectErr
}

func (p *fakePresenter) Notice(title, message string) { p.notices = append(p.notices, message) }

func (p *fakePresenter) Fault(title, message string) {
	p.faultTitles = append(p.faultTitles, title)
	p.faults = append(p.faults, message)
}

type fakeExecutor struct {
	outcomes []upgrade.Outcome
	executed []catalog.Record
}

func (e *fakeExecutor) Execute(ctx context.Context, records []catalog.Record, cfg *config.Config, progress upgrade.ProgressFunc) []upgrade.Outcome {
	e.executed = records
	for i, o := range e.outcomes {
		if progress != nil {
			progress(i+1, len(e.outcomes), o)
		}
	}
	return e.outcomes
}

type fakeScheduler struct {
	path  string
	delay time.Duration
	calls int
	err   error
}

func (s *fakeScheduler) ScheduleCleanup(path string, delay time.Duration) error {
	s.calls++
	s.path = path
	s.delay = delay
	return s.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.MarkerPath = filepath.Join(t.TempDir(), "upgrade-complete.marker")
	return cfg
}

func confirmed(ids ...string) presenter.Selection {
	return presenter.Selection{Confirmed: true, IDs: ids}
}

func TestRunHappyPath(t *testing.T) {
	cfg := testConfig(t)
	records := []catalog.Record{{ID: "Vendor.A"}, {ID: "Vendor.B"}}

	pres := &fakePresenter{selection: confirmed("Vendor.A", "Vendor.B")}
	exec := &fakeExecutor{outcomes: []upgrade.Outcome{
		{PackageID: "Vendor.A", Class: upgrade.ClassSuccess},
		{PackageID: "Vendor.B", Class: upgrade.ClassSuccess},
	}}
	sched := &fakeScheduler{}
	signals := 0

	deps := Deps{
		Bridge:    &fakeBridge{records: records},
		Presenter: pres,
		Executor:  exec,
		Signal:    func(path string) error { signals++; return nil },
		Scheduler: sched,
	}

	if err := Run(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(exec.executed) != 2 {
		t.Errorf("executed %d records, want 2", len(exec.executed))
	}
	if signals != 1 {
		t.Errorf("signal calls = %d, want 1", signals)
	}
	if sched.calls != 1 {
		t.Errorf("scheduler calls = %d, want 1", sched.calls)
	}
	if sched.path != cfg.MarkerPath {
		t.Errorf("scheduled cleanup for %q, want %q", sched.path, cfg.MarkerPath)
	}
	if sched.delay != 5*time.Minute {
		t.Errorf("cleanup delay = %v, want default 5m", sched.delay)
	}
}

func TestRunBridgeFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.SessionTitle = "Custom Fleet Title"
	pres := &fakePresenter{}
	sched := &fakeScheduler{}
	signals := 0

	deps := Deps{
		Bridge:    &fakeBridge{err: errors.New("no console session")},
		Presenter: pres,
		Executor:  &fakeExecutor{},
		Signal:    func(path string) error { signals++; return nil },
		Scheduler: sched,
	}

	if err := Run(context.Background(), cfg, deps); err == nil {
		t.Fatal("expected error from failed query")
	}
	if len(pres.faults) != 1 {
		t.Errorf("faults = %v, want one", pres.faults)
	}
	if len(pres.faultTitles) != 1 || pres.faultTitles[0] != "Custom Fleet Title" {
		t.Errorf("fault titles = %v, want the configured session title", pres.faultTitles)
	}
	if signals != 0 || sched.calls != 0 {
		t.Error("no marker or cleanup task on query failure")
	}
}

func TestRunEmptyCatalogExitsWithoutMarker(t *testing.T) {
	cfg := testConfig(t)
	pres := &fakePresenter{}
	sched := &fakeScheduler{}
	signals := 0

	deps := Deps{
		Bridge:    &fakeBridge{records: nil},
		Presenter: pres,
		Executor:  &fakeExecutor{},
		Signal:    func(path string) error { signals++; return nil },
		Scheduler: sched,
	}

	if err := Run(context.Background(), cfg, deps); err != nil {
		t.Fatalf("empty catalog must be a clean exit: %v", err)
	}
	if len(pres.notices) != 1 {
		t.Errorf("notices = %v, want one", pres.notices)
	}
	if pres.selected != nil {
		t.Error("selection dialog must not open for an empty catalog")
	}
	if signals != 0 || sched.calls != 0 {
		t.Error("no marker or cleanup task for an empty catalog")
	}
}

func TestRunSkipListFiltersBeforeSelection(t *testing.T) {
	cfg := testConfig(t)
	cfg.SkipPackages = []string{"Vendor.AppA"}
	records := []catalog.Record{{ID: "Vendor.AppA"}, {ID: "Vendor.AppB"}}

	pres := &fakePresenter{selection: presenter.Selection{Confirmed: false}}

	deps := Deps{
		Bridge:    &fakeBridge{records: records},
		Presenter: pres,
		Executor:  &fakeExecutor{},
		Signal:    func(path string) error { return nil },
		Scheduler: &fakeScheduler{},
	}

	if err := Run(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(pres.selected) != 1 || pres.selected[0].ID != "Vendor.AppB" {
		t.Errorf("selection dialog saw %v, want only Vendor.AppB", pres.selected)
	}
}

func TestRunAllSkippedExitsWithoutMarker(t *testing.T) {
	cfg := testConfig(t)
	cfg.SkipPackages = []string{"Vendor.AppA"}

	pres := &fakePresenter{}
	sched := &fakeScheduler{}
	signals := 0

	deps := Deps{
		Bridge:    &fakeBridge{records: []catalog.Record{{ID: "Vendor.AppA"}}},
		Presenter: pres,
		Executor:  &fakeExecutor{},
		Signal:    func(path string) error { signals++; return nil },
		Scheduler: sched,
	}

	if err := Run(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if signals != 0 || sched.calls != 0 {
		t.Error("no marker or cleanup task when everything is skipped")
	}
	if pres.selected != nil {
		t.Error("selection dialog must not open when everything is skipped")
	}
}

func TestRunCancelledSelectionMakesNoChanges(t *testing.T) {
	cfg := testConfig(t)
	pres := &fakePresenter{selection: presenter.Selection{Confirmed: false}}
	exec := &fakeExecutor{}
	sched := &fakeScheduler{}
	signals := 0

	deps := Deps{
		Bridge:    &fakeBridge{records: []catalog.Record{{ID: "Vendor.A"}}},
		Presenter: pres,
		Executor:  exec,
		Signal:    func(path string) error { signals++; return nil },
		Scheduler: sched,
	}

	if err := Run(context.Background(), cfg, deps); err != nil {
		t.Fatalf("cancel must be a clean exit: %v", err)
	}
	if exec.executed != nil {
		t.Error("no upgrades may run after a cancelled selection")
	}
	if signals != 0 || sched.calls != 0 {
		t.Error("no marker or cleanup task after a cancelled selection")
	}
	if len(pres.notices) != 1 {
		t.Errorf("notices = %v, want one", pres.notices)
	}
}

func TestRunEmptySelectionMakesNoChanges(t *testing.T) {
	cfg := testConfig(t)
	pres := &fakePresenter{selection: presenter.Selection{Confirmed: true, IDs: nil}}
	exec := &fakeExecutor{}
	signals := 0

	deps := Deps{
		Bridge:    &fakeBridge{records: []catalog.Record{{ID: "Vendor.A"}}},
		Presenter: pres,
		Executor:  exec,
		Signal:    func(path string) error { signals++; return nil },
		Scheduler: &fakeScheduler{},
	}

	if err := Run(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if exec.executed != nil || signals != 0 {
		t.Error("confirming an empty selection must change nothing")
	}
}

func TestRunSelectionSubsetPreservesCatalogOrder(t *testing.T) {
	cfg := testConfig(t)
	records := []catalog.Record{{ID: "Vendor.A"}, {ID: "Vendor.B"}, {ID: "Vendor.C"}}

	// IDs confirmed out of order; execution follows catalog order.
	pres := &fakePresenter{selection: confirmed("Vendor.C", "Vendor.A")}
	exec := &fakeExecutor{outcomes: []upgrade.Outcome{
		{PackageID: "Vendor.A", Class: upgrade.ClassSuccess},
		{PackageID: "Vendor.C", Class: upgrade.ClassSuccess},
	}}

	deps := Deps{
		Bridge:    &fakeBridge{records: records},
		Presenter: pres,
		Executor:  exec,
		Signal:    func(path string) error { return nil },
		Scheduler: &fakeScheduler{},
	}

	if err := Run(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(exec.executed) != 2 || exec.executed[0].ID != "Vendor.A" || exec.executed[1].ID != "Vendor.C" {
		t.Errorf("executed = %v, want [Vendor.A Vendor.C]", exec.executed)
	}
}

func TestRunMarkerCreatedEvenWhenUpgradesFail(t *testing.T) {
	cfg := testConfig(t)
	pres := &fakePresenter{selection: confirmed("Vendor.A")}
	exec := &fakeExecutor{outcomes: []upgrade.Outcome{
		{PackageID: "Vendor.A", ExitCode: 1603, Class: upgrade.ClassFailure, Message: "exit code 1603"},
	}}
	sched := &fakeScheduler{}
	signals := 0

	deps := Deps{
		Bridge:    &fakeBridge{records: []catalog.Record{{ID: "Vendor.A"}}},
		Presenter: pres,
		Executor:  exec,
		Signal:    func(path string) error { signals++; return nil },
		Scheduler: sched,
	}

	if err := Run(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// Completion of the batch is what the marker records, not success.
	if signals != 1 || sched.calls != 1 {
		t.Error("marker and cleanup task expected even with failed upgrades")
	}
	if len(pres.faults) != 1 {
		t.Errorf("faults = %v, want one per failing package", pres.faults)
	}
}

func TestRunSignalFailureSkipsScheduling(t *testing.T) {
	cfg := testConfig(t)
	pres := &fakePresenter{selection: confirmed("Vendor.A")}
	exec := &fakeExecutor{outcomes: []upgrade.Outcome{{PackageID: "Vendor.A", Class: upgrade.ClassSuccess}}}
	sched := &fakeScheduler{}

	deps := Deps{
		Bridge:    &fakeBridge{records: []catalog.Record{{ID: "Vendor.A"}}},
		Presenter: pres,
		Executor:  exec,
		Signal:    func(path string) error { return errors.New("disk full") },
		Scheduler: sched,
	}

	if err := Run(context.Background(), cfg, deps); err != nil {
		t.Fatalf("marker failure must not fail the run: %v", err)
	}
	if sched.calls != 0 {
		t.Error("no cleanup task without a marker to clean up")
	}
}

func TestRunScheduleFailureIsNonFatal(t *testing.T) {
	cfg := testConfig(t)
	pres := &fakePresenter{selection: confirmed("Vendor.A")}
	exec := &fakeExecutor{outcomes: []upgrade.Outcome{{PackageID: "Vendor.A", Class: upgrade.ClassSuccess}}}
	sched := &fakeScheduler{err: errors.New("schtasks unavailable")}

	deps := Deps{
		Bridge:    &fakeBridge{records: []catalog.Record{{ID: "Vendor.A"}}},
		Presenter: pres,
		Executor:  exec,
		Signal:    func(path string) error { return nil },
		Scheduler: sched,
	}

	if err := Run(context.Background(), cfg, deps); err != nil {
		t.Fatalf("scheduling failure must not fail the run: %v", err)
	}
}

func TestRunProgressNoticesFollowShowProgress(t *testing.T) {
	records := []catalog.Record{{ID: "Vendor.A"}, {ID: "Vendor.B"}}
	outcomes := []upgrade.Outcome{
		{PackageID: "Vendor.A", Class: upgrade.ClassSuccess},
		{PackageID: "Vendor.B", Class: upgrade.ClassSuccess},
	}

	for _, show := range []bool{true, false} {
		cfg := testConfig(t)
		cfg.ShowProgress = show
		pres := &fakePresenter{selection: confirmed("Vendor.A", "Vendor.B")}

		deps := Deps{
			Bridge:    &fakeBridge{records: records},
			Presenter: pres,
			Executor:  &fakeExecutor{outcomes: outcomes},
			Signal:    func(path string) error { return nil },
			Scheduler: &fakeScheduler{},
		}

		if err := Run(context.Background(), cfg, deps); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		want := 0
		if show {
			want = 2
		}
		if len(pres.notices) != want {
			t.Errorf("show_progress=%v: notices = %v, want %d", show, pres.notices, want)
		}
	}
}

func TestRunRebootPendingNotice(t *testing.T) {
	cfg := testConfig(t)
	cfg.ShowProgress = false
	pres := &fakePresenter{selection: confirmed("Vendor.A")}
	// 0x8A150109: install finished, restart pending.
	exec := &fakeExecutor{outcomes: []upgrade.Outcome{
		{PackageID: "Vendor.A", ExitCode: -1978334967, Class: upgrade.ClassFailure},
	}}

	deps := Deps{
		Bridge:    &fakeBridge{records: []catalog.Record{{ID: "Vendor.A"}}},
		Presenter: pres,
		Executor:  exec,
		Signal:    func(path string) error { return nil },
		Scheduler: &fakeScheduler{},
	}

	if err := Run(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(pres.notices) != 1 || !strings.Contains(pres.notices[0], "Restart the device") {
		t.Errorf("notices = %v, want a restart notice", pres.notices)
	}
}

func TestRunInstallerBusyFaultCarriesRetryHint(t *testing.T) {
	cfg := testConfig(t)
	pres := &fakePresenter{selection: confirmed("Vendor.A")}
	// 0x8A150102: another installation already in progress.
	exec := &fakeExecutor{outcomes: []upgrade.Outcome{
		{PackageID: "Vendor.A", ExitCode: -1978334974, Class: upgrade.ClassFailure, Message: "busy"},
	}}

	deps := Deps{
		Bridge:    &fakeBridge{records: []catalog.Record{{ID: "Vendor.A"}}},
		Presenter: pres,
		Executor:  exec,
		Signal:    func(path string) error { return nil },
		Scheduler: &fakeScheduler{},
	}

	if err := Run(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(pres.faults) != 1 || !strings.Contains(pres.faults[0], "Try again once the current installation finishes.") {
		t.Errorf("faults = %v, want the retry hint", pres.faults)
	}
}

func TestRunCleanupDelayOverride(t *testing.T) {
	cfg := testConfig(t)
	pres := &fakePresenter{selection: confirmed("Vendor.A")}
	exec := &fakeExecutor{outcomes: []upgrade.Outcome{{PackageID: "Vendor.A", Class: upgrade.ClassSuccess}}}
	sched := &fakeScheduler{}

	deps := Deps{
		Bridge:       &fakeBridge{records: []catalog.Record{{ID: "Vendor.A"}}},
		Presenter:    pres,
		Executor:     exec,
		Signal:       func(path string) error { return nil },
		Scheduler:    sched,
		CleanupDelay: 10 * time.Minute,
	}

	if err := Run(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sched.delay != 10*time.Minute {
		t.Errorf("cleanup delay = %v, want 10m", sched.delay)
	}
}
