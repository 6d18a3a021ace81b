//go:build !windows

package presenter

// showToast is a no-op where no desktop notification primitive is wired;
// the terminal output already carries the message.
func showToast(title, body string) bool {
	return false
}
