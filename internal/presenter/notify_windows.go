//go:build windows

package presenter

import (
	"encoding/xml"
	"os/exec"
	"strings"
)

// showToast raises a Windows toast notification via PowerShell.
func showToast(title, body string) bool {
	// XML-escape title and body to prevent injection
	toastXML := `<toast><visual><binding template="ToastText02">` +
		`<text id="1">` + xmlEscape(title) + `</text>` +
		`<text id="2">` + xmlEscape(body) + `</text>` +
		`</binding></visual></toast>`

	// Pass XML as a variable to avoid PowerShell interpolation entirely.
	script := `param([string]$xml)
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
$doc.LoadXml($xml)
$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("Upgrade Assistant").Show($toast)`

	cmd := exec.Command("powershell", "-NoProfile", "-Command", script, "-xml", toastXML)
	if err := cmd.Run(); err != nil {
		log.Warn("notification failed", "error", err)
		return false
	}
	return true
}

// xmlEscape encodes a string so it is safe for embedding in XML text content.
func xmlEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return ""
	}
	return b.String()
}
