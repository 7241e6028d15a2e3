package cmd_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aipagereader/xpipack/pkg/plog"
)

// writeTree creates files (relative slash paths) with the given content under root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

// captureLog redirects plog into a buffer and restores the defaults afterwards.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	plog.SetOutput(&buf)
	t.Cleanup(func() {
		plog.SetOutput(os.Stderr)
		plog.SetLevel(plog.LevelInfo)
	})
	return &buf
}

// withStdio replaces os.Stdin with input and os.Stdout with a pipe while fn
// runs, and returns what fn printed.
func withStdio(t *testing.T, input string, fn func()) string {
	t.Helper()
	rIn, wIn, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create stdin pipe: %v", err)
	}
	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create stdout pipe: %v", err)
	}

	origStdin, origStdout := os.Stdin, os.Stdout
	os.Stdin, os.Stdout = rIn, wOut
	defer func() {
		os.Stdin, os.Stdout = origStdin, origStdout
	}()

	go func() {
		_, _ = wIn.WriteString(input)
		_ = wIn.Close()
	}()

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(&buf, rOut)
		close(done)
	}()

	fn()

	_ = wOut.Close()
	<-done
	_ = rIn.Close()
	_ = rOut.Close()
	return buf.String()
}
