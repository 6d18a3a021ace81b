package presenter

import (
	"github.com/breeze-rmm/upgrade-assistant/internal/catalog"
	"github.com/breeze-rmm/upgrade-assistant/internal/logging"
)

var log = logging.L("presenter")

// Selection is the explicit command object returned by the presenter:
// either a confirmed set of package IDs or a cancellation. No state is
// shared with the caller beyond this value.
type Selection struct {
	Confirmed bool
	IDs       []string
}

// Presenter shows the filtered catalog and collects the operator's choice,
// and carries the user-facing notification primitives.
type Presenter interface {
	// Select presents the catalog and returns the chosen subset.
	Select(records []catalog.Record) (Selection, error)
	// Notice shows an informational message (e.g. "no upgrades available").
	Notice(title, message string)
	// Fault shows a failure message. The process still exits 0 to the host
	// scheduler; the fault surfaces only through this channel and the log.
	Fault(title, message string)
}
