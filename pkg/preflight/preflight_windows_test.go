//go:build windows

package preflight

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckOutputWritable_ReadOnlyFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "ext.xpi")
	if err := os.WriteFile(out, []byte("stale"), 0644); err != nil {
		t.Fatalf("failed to write output: %v", err)
	}
	if err := os.Chmod(out, 0444); err != nil {
		t.Fatalf("failed to make output read-only: %v", err)
	}
	t.Cleanup(func() { os.Chmod(out, 0644) })

	if err := CheckOutputWritable(out); err == nil {
		t.Error("expected error for read-only existing output, got nil")
	}
}
