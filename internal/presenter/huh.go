package presenter

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/breeze-rmm/upgrade-assistant/internal/catalog"
	"github.com/breeze-rmm/upgrade-assistant/internal/config"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	faultStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// HuhPresenter renders the selection form in the terminal.
type HuhPresenter struct {
	title    string
	subtitle string
	width    int
	height   int
	theme    *huh.Theme
}

// NewHuhPresenter builds a presenter from the configured display metadata
// and UI sizing hints.
func NewHuhPresenter(cfg *config.Config) *HuhPresenter {
	return &HuhPresenter{
		title:    cfg.SessionTitle,
		subtitle: cfg.SessionSubtitle,
		width:    cfg.UIWidth,
		height:   cfg.UIHeight,
		theme:    themeByName(cfg.UITheme),
	}
}

// Select shows a multi-select over the catalog followed by a confirmation.
// Aborting the form (esc / ctrl-c) returns an unconfirmed Selection, not an
// error.
func (p *HuhPresenter) Select(records []catalog.Record) (Selection, error) {
	options := make([]huh.Option[string], 0, len(records))
	for _, r := range records {
		options = append(options, huh.NewOption(r.Label(), r.ID))
	}

	var ids []string
	confirmed := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title(p.title).
				Description(p.subtitle).
				Options(options...).
				Value(&ids),
			huh.NewConfirm().
				Title("Upgrade the selected applications?").
				Affirmative("Upgrade").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(p.theme).WithWidth(p.width).WithHeight(p.height)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			log.Info("selection cancelled by operator")
			return Selection{Confirmed: false}, nil
		}
		return Selection{}, fmt.Errorf("selection form: %w", err)
	}

	if !confirmed || len(ids) == 0 {
		return Selection{Confirmed: false}, nil
	}
	return Selection{Confirmed: true, IDs: ids}, nil
}

// Notice prints an informational message and best-effort raises a desktop
// notification.
func (p *HuhPresenter) Notice(title, message string) {
	fmt.Fprintln(os.Stdout, noticeStyle.Render(titleStyle.Render(title)+"  "+message))
	showToast(title, message)
}

// Fault prints a failure message and best-effort raises a desktop
// notification.
func (p *HuhPresenter) Fault(title, message string) {
	fmt.Fprintln(os.Stderr, faultStyle.Render(title)+"  "+message)
	showToast(title, message)
}

func themeByName(name string) *huh.Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "charm":
		return huh.ThemeCharm()
	case "dracula":
		return huh.ThemeDracula()
	case "catppuccin":
		return huh.ThemeCatppuccin()
	default:
		return huh.ThemeBase()
	}
}
