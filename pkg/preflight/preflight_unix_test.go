//go:build !windows

package preflight

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckOutputWritable_ReadOnlyDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("Skipping test: root bypasses directory permissions.")
	}

	dir := t.TempDir()
	if err := os.Chmod(dir, 0555); err != nil {
		t.Fatalf("failed to make dir read-only: %v", err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	if err := CheckOutputWritable(filepath.Join(dir, "ext.xpi")); err == nil {
		t.Error("expected error for read-only output directory, got nil")
	}
}
