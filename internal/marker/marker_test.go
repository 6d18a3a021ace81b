package marker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSignalCreatesZeroByteMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upgrade-complete.marker")

	if err := Signal(path); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("marker not created: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("marker size = %d, want 0", info.Size())
	}
}

func TestSignalCreatesMissingDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "upgrade-complete.marker")

	if err := Signal(path); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("marker not created: %v", err)
	}
}

func TestSignalTruncatesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upgrade-complete.marker")
	if err := os.WriteFile(path, []byte("leftover content"), 0644); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	if err := Signal(path); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat marker: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("marker size = %d, want 0 after truncation", info.Size())
	}
}

func TestTaskPath(t *testing.T) {
	if got, want := TaskPath(), `\BreezeRMM\UpgradeAssistant\CleanupDetectionMarker`; got != want {
		t.Errorf("TaskPath = %q, want %q", got, want)
	}
}
