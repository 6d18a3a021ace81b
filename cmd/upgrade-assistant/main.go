package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/breeze-rmm/upgrade-assistant/internal/bridge"
	"github.com/breeze-rmm/upgrade-assistant/internal/catalog"
	"github.com/breeze-rmm/upgrade-assistant/internal/config"
	"github.com/breeze-rmm/upgrade-assistant/internal/logging"
	"github.com/breeze-rmm/upgrade-assistant/internal/marker"
	"github.com/breeze-rmm/upgrade-assistant/internal/presenter"
	"github.com/breeze-rmm/upgrade-assistant/internal/privilege"
	"github.com/breeze-rmm/upgrade-assistant/internal/upgrade"
	"github.com/breeze-rmm/upgrade-assistant/internal/workflow"
)

var (
	version     = "0.1.0"
	cfgFile     string
	queryOutput string
)

var rootCmd = &cobra.Command{
	Use:   "upgrade-assistant",
	Short: "Breeze Upgrade Assistant",
	Long:  `Upgrade Assistant - interactive, user-approved application upgrades on managed endpoints`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive upgrade workflow",
	Run: func(cmd *cobra.Command, args []string) {
		runWorkflow()
	},
}

var queryCmd = &cobra.Command{
	Use:    "query",
	Short:  "Enumerate upgradeable packages and write the inventory artifact",
	Hidden: true,
	Run: func(cmd *cobra.Command, args []string) {
		runQuery()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Upgrade Assistant v%s\n", version)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective merged configuration",
	Run: func(cmd *cobra.Command, args []string) {
		printConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "override file (default is <marker dir>/upgrade-assistant.yaml)")
	queryCmd.Flags().StringVar(&queryOutput, "output", "", "path of the inventory result artifact")
	queryCmd.MarkFlagRequired("output")

	configCmd.AddCommand(configPrintCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runWorkflow drives the full elevated-side run. Every reachable completion
// path exits 0: the fleet scheduler keys off the detection marker, not the
// exit code, and failures surface through the UI and the log.
func runWorkflow() {
	cfg, _ := config.Load(cfgFile)
	initLogging(cfg)
	log := logging.L("main")

	if info, err := host.Info(); err == nil {
		log.Info("starting upgrade assistant",
			"version", version,
			"hostname", info.Hostname,
			"platform", info.Platform,
			"platformVersion", info.PlatformVersion,
			"uptimeSec", info.Uptime,
		)
	} else {
		log.Info("starting upgrade assistant", "version", version)
	}

	if !privilege.IsElevated() {
		log.Warn("not running elevated; session bridging and task registration may fail")
	}

	p := presenter.NewHuhPresenter(cfg)

	toolPath, err := upgrade.Preflight()
	if err != nil {
		// Fatal before any query: no package data can be presented.
		log.Error("preflight failed", logging.KeyError, err)
		p.Fault(cfg.SessionTitle, "The package manager is not available on this device.")
		return
	}

	deps := workflow.Deps{
		Bridge:    bridge.New(cfg.HandoffDir(), bridge.NewSessionLauncher()),
		Presenter: p,
		Executor:  upgrade.NewExecutor(upgrade.SystemExec).WithTool(toolPath),
		Signal:    marker.Signal,
		Scheduler: marker.NewScheduler(),
		Report: func(outcomes []upgrade.Outcome) {
			presenter.RenderOutcomes(os.Stdout, outcomes)
		},
	}

	if err := workflow.Run(context.Background(), cfg, deps); err != nil {
		log.Error("run failed", logging.KeyError, err)
	}
}

// runQuery is the user-session side of the handoff: enumerate upgradeable
// packages and serialize them to the result artifact. A non-zero exit here
// leaves the artifact absent, which the elevated side treats as fatal.
func runQuery() {
	logging.Init("text", "info", os.Stderr)
	log := logging.L("query")

	toolPath, err := upgrade.Preflight()
	if err != nil {
		log.Error("preflight failed", logging.KeyError, err)
		os.Exit(1)
	}

	records, err := catalog.ScanUpgrades(toolPath)
	if err != nil {
		log.Error("inventory scan failed", logging.KeyError, err)
		os.Exit(1)
	}

	data, err := catalog.EncodeResult(records)
	if err != nil {
		log.Error("encode inventory", logging.KeyError, err)
		os.Exit(1)
	}

	// An empty inventory still writes the artifact: empty and absent must
	// stay distinguishable for the elevated reader.
	if err := os.WriteFile(queryOutput, data, 0644); err != nil {
		log.Error("write inventory artifact", "path", queryOutput, logging.KeyError, err)
		os.Exit(1)
	}

	log.Info("inventory written", "path", queryOutput, "records", len(records))
}

func printConfig() {
	cfg, _ := config.Load(cfgFile)
	out, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Stdout.Write(out)
}

// initLogging sends logs to stderr and, best-effort, to a rotating file
// next to the marker so non-interactive runs remain diagnosable.
func initLogging(cfg *config.Config) {
	var out io.Writer = os.Stderr

	logPath := filepath.Join(cfg.HandoffDir(), "logs", "upgrade-assistant.log")
	if fw, err := logging.NewRotatingWriter(logPath, 5, 2); err == nil {
		out = logging.TeeWriter(os.Stderr, fw)
	}

	logging.Init(cfg.LogFormat, cfg.LogLevel, out)
}
