package bridge

import "fmt"

// HandoffMissingError indicates the user-session query process exited without
// producing the result artifact. This is fatal: at this layer an absent
// result cannot be distinguished from "no upgrades" — that distinction
// belongs to the catalog, which receives an explicit empty inventory instead.
type HandoffMissingError struct {
	Path string
}

func (e *HandoffMissingError) Error() string {
	return fmt.Sprintf("handoff result artifact missing: %s", e.Path)
}

// HandoffMalformedError indicates the result artifact exists but its content
// could not be parsed.
type HandoffMalformedError struct {
	Path string
	Err  error
}

func (e *HandoffMalformedError) Error() string {
	return fmt.Sprintf("handoff result artifact malformed: %s: %v", e.Path, e.Err)
}

func (e *HandoffMalformedError) Unwrap() error {
	return e.Err
}

// LaunchError indicates the query process could not be started or waited on
// in the interactive user's session.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch query in user session: %v", e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
