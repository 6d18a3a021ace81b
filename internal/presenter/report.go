package presenter

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/breeze-rmm/upgrade-assistant/internal/upgrade"
)

// RenderOutcomes writes the per-package results of the batch as a table.
func RenderOutcomes(w io.Writer, outcomes []upgrade.Outcome) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Upgrade Results")
	// The footer carries a sentence, not a label; keep its casing as written.
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"#", "Package", "Exit Code", "Result", "Message"})

	for i, o := range outcomes {
		result := "OK"
		if o.Class == upgrade.ClassAcceptable {
			result = "OK (acceptable)"
		} else if o.Class == upgrade.ClassFailure {
			result = "FAILED"
		}
		t.AppendRow(table.Row{i + 1, o.PackageID, o.ExitCode, result, o.Message})
	}

	succeeded := 0
	for _, o := range outcomes {
		if o.Class.Succeeded() {
			succeeded++
		}
	}
	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d of %d succeeded", succeeded, len(outcomes))})

	t.Render()
}
