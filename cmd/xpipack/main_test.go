package main

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aipagereader/xpipack/pkg/plog"
)

func TestRun(t *testing.T) {
	var logBuf bytes.Buffer
	plog.SetOutput(&logBuf)
	t.Cleanup(func() {
		plog.SetOutput(os.Stderr)
		plog.SetLevel(plog.LevelInfo)
	})

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "manifest.json"), []byte("{}"), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	t.Run("Build With Flags Only", func(t *testing.T) {
		if err := run(context.Background(), []string{"-root", root, "-include", "manifest.json"}); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(root, "ai-page-reader.xpi")); err != nil {
			t.Errorf("expected default output to be created: %v", err)
		}
	})

	t.Run("Zero Arguments Build In Working Directory", func(t *testing.T) {
		output := filepath.Join(root, "ai-page-reader.xpi")
		if err := os.Remove(output); err != nil && !os.IsNotExist(err) {
			t.Fatalf("failed to remove previous archive: %v", err)
		}
		wd, err := os.Getwd()
		if err != nil {
			t.Fatalf("failed to get working directory: %v", err)
		}
		if err := os.Chdir(root); err != nil {
			t.Fatalf("failed to change directory: %v", err)
		}
		t.Cleanup(func() { _ = os.Chdir(wd) })
		if err := run(context.Background(), nil); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		r, err := zip.OpenReader(output)
		if err != nil {
			t.Fatalf("expected default output to be created: %v", err)
		}
		defer r.Close()
		var names []string
		for _, f := range r.File {
			names = append(names, f.Name)
		}
		if len(names) != 1 || names[0] != "manifest.json" {
			t.Errorf("expected archive to contain only manifest.json, got %v", names)
		}
	})

	t.Run("Unknown Command", func(t *testing.T) {
		if err := run(context.Background(), []string{"sign"}); err == nil {
			t.Error("expected error for unknown command, got nil")
		}
	})

	t.Run("Subcommand Help", func(t *testing.T) {
		origStderr := os.Stderr
		null, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			t.Fatalf("failed to open %s: %v", os.DevNull, err)
		}
		os.Stderr = null
		defer func() {
			os.Stderr = origStderr
			null.Close()
		}()

		if err := run(context.Background(), []string{"build", "-h"}); err != nil {
			t.Errorf("expected help to succeed, got %v", err)
		}
	})
}
