package upgrade

import "fmt"

// DependencyError indicates the upgrade tool is not available on this
// machine. Fatal before any query is attempted.
type DependencyError struct {
	Tool    string
	Message string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("upgrade tool %q unavailable: %s", e.Tool, e.Message)
}
