package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/breeze-rmm/upgrade-assistant/internal/logging"
)

var log = logging.L("config")

// Config holds all settings for an upgrade run. It is built from defaults,
// optionally merged with an override file, and immutable after Load.
type Config struct {
	// Session display metadata shown in the selection UI.
	SessionTitle    string `mapstructure:"session_title" yaml:"session_title"`
	SessionSubtitle string `mapstructure:"session_subtitle" yaml:"session_subtitle"`
	ShowProgress    bool   `mapstructure:"show_progress" yaml:"show_progress"`

	// MarkerPath is the detection marker file polled by the fleet server.
	// Its parent directory doubles as the query handoff directory.
	MarkerPath string `mapstructure:"marker_path" yaml:"marker_path"`

	// AcceptableExitCodes are upgrade-tool exit codes treated as success.
	AcceptableExitCodes []int `mapstructure:"acceptable_exit_codes" yaml:"acceptable_exit_codes"`

	// SkipPackages are package IDs excluded from the catalog.
	SkipPackages []string `mapstructure:"skip_packages" yaml:"skip_packages"`

	// UpgradeArgs are extra arguments appended to every upgrade invocation.
	UpgradeArgs []string `mapstructure:"upgrade_args" yaml:"upgrade_args"`

	// UI sizing hints.
	UIWidth  int    `mapstructure:"ui_width" yaml:"ui_width"`
	UIHeight int    `mapstructure:"ui_height" yaml:"ui_height"`
	UITheme  string `mapstructure:"ui_theme" yaml:"ui_theme"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Default returns the built-in configuration. Every field has a usable value
// so an absent or broken override file still yields a working run.
func Default() *Config {
	return &Config{
		SessionTitle:    "Software Updates",
		SessionSubtitle: "Select the applications to upgrade",
		ShowProgress:    true,
		MarkerPath:      defaultMarkerPath(),
		AcceptableExitCodes: []int{
			0,
			-1978335226, // winget: no applicable upgrade (raced by another installer)
			-1979189490, // installer: already up to date
		},
		SkipPackages: nil,
		UpgradeArgs: []string{
			"--silent",
			"--accept-package-agreements",
			"--accept-source-agreements",
			"--disable-interactivity",
		},
		UIWidth:   80,
		UIHeight:  15,
		UITheme:   "base",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load builds the configuration from defaults merged with the override file
// at path. Loading never fails the run: a missing file yields defaults with
// an informational note, a malformed file yields defaults with a warning.
// The error return is always nil and kept only for call-site symmetry.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(filepath.Dir(defaultMarkerPath()), "upgrade-assistant.yaml")
	}

	if _, err := os.Stat(path); err != nil {
		log.Info("no override file, using defaults", "path", path)
		return cfg, nil
	}

	v := viper.New()
	setDefaults(v, cfg)
	v.SetConfigFile(path)
	v.SetEnvPrefix("BREEZE_UA")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Warn("override file unreadable, using defaults", "path", path, logging.KeyError, err)
		return Default(), nil
	}

	if err := v.Unmarshal(cfg); err != nil {
		log.Warn("override file malformed, using defaults", "path", path, logging.KeyError, err)
		return Default(), nil
	}

	log.Info("loaded configuration", "path", path)
	return cfg, nil
}

// setDefaults registers every field so keys absent from the override file
// retain their built-in value. Array-typed keys supplied by the override
// replace the default array wholesale.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("session_title", d.SessionTitle)
	v.SetDefault("session_subtitle", d.SessionSubtitle)
	v.SetDefault("show_progress", d.ShowProgress)
	v.SetDefault("marker_path", d.MarkerPath)
	v.SetDefault("acceptable_exit_codes", d.AcceptableExitCodes)
	v.SetDefault("skip_packages", d.SkipPackages)
	v.SetDefault("upgrade_args", d.UpgradeArgs)
	v.SetDefault("ui_width", d.UIWidth)
	v.SetDefault("ui_height", d.UIHeight)
	v.SetDefault("ui_theme", d.UITheme)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
}

// IsAcceptable reports whether the exit code is classified as success.
func (c *Config) IsAcceptable(code int) bool {
	for _, a := range c.AcceptableExitCodes {
		if a == code {
			return true
		}
	}
	return false
}

// SkipSet returns the skip list as a set for order-preserving filtering.
func (c *Config) SkipSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.SkipPackages))
	for _, id := range c.SkipPackages {
		set[id] = struct{}{}
	}
	return set
}

// HandoffDir returns the directory shared between the elevated process and
// the user session. It is the parent of the detection marker so both
// contexts have access.
func (c *Config) HandoffDir() string {
	return filepath.Dir(c.MarkerPath)
}

func defaultMarkerPath() string {
	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("ProgramData")
		if base == "" {
			base = `C:\ProgramData`
		}
		return filepath.Join(base, "BreezeRMM", "UpgradeAssistant", "upgrade-complete.marker")
	case "darwin":
		return "/Library/Application Support/BreezeRMM/UpgradeAssistant/upgrade-complete.marker"
	default:
		return "/var/lib/breeze-rmm/upgrade-assistant/upgrade-complete.marker"
	}
}
