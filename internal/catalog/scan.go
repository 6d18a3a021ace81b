package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// scanTimeout bounds the inventory query invocation.
const scanTimeout = 120 * time.Second

// ScanUpgrades runs the upgrade tool's inventory listing and parses it into
// records. Runs inside the interactive user's session, where winget has its
// per-user sources available.
func ScanUpgrades(tool string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, tool,
		"upgrade",
		"--include-unknown",
		"--accept-source-agreements",
		"--disable-interactivity",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	// winget returns exit code 0 for "no upgrades" and non-zero for some
	// upgrade scenarios but also on actual errors — empty stdout is the tell.
	if err != nil && stdout.Len() == 0 {
		return nil, fmt.Errorf("winget upgrade failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}

	return ParseUpgradeTable(stdout.String()), nil
}
