package cmd_test

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/aipagereader/xpipack/cmd"
	"github.com/aipagereader/xpipack/pkg/config"
	"github.com/aipagereader/xpipack/pkg/packager"
	"github.com/google/go-cmp/cmp"
)

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("failed to open archive %s: %v", path, err)
	}
	defer r.Close()
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestRunBuild_Defaults(t *testing.T) {
	logBuf := captureLog(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"manifest.json":           "{}",
		"popup/index.html":        "<html></html>",
		"content/content.js":      "1",
		"LICENSE":                 "MIT",
		"node_modules/x/index.js": "not packaged",
	})

	if err := cmd.RunBuild(context.Background(), map[string]interface{}{"root": root}); err != nil {
		t.Fatalf("RunBuild failed: %v", err)
	}

	got := zipNames(t, filepath.Join(root, config.DefaultOutput))
	want := []string{"LICENSE", "content/content.js", "manifest.json", "popup/index.html"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("archive entries mismatch (-want +got):\n%s", diff)
	}

	output := logBuf.String()
	for _, msg := range []string{"Creating", "Adding file", "Adding folder", "Done! Archive created successfully."} {
		if !strings.Contains(output, msg) {
			t.Errorf("expected log to contain %q, got:\n%s", msg, output)
		}
	}
	// assets, services, settings, utils and README.md are not present.
	if n := strings.Count(output, "Inclusion entry not found"); n != 5 {
		t.Errorf("expected 5 missing-entry warnings, got %d:\n%s", n, output)
	}
}

func TestRunBuild_FlagsOverrideConfigFile(t *testing.T) {
	captureLog(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"manifest.json":       "{}",
		"popup/index.html":    "x",
		"popup/app.js.map":    "map",
		config.ConfigFileName: `{"include": ["manifest.json"], "output": "from-config.xpi"}`,
	})

	flagMap := map[string]interface{}{
		"root":          root,
		"include":       []string{"manifest.json", "popup"},
		"exclude-files": []string{"*.map"},
	}
	if err := cmd.RunBuild(context.Background(), flagMap); err != nil {
		t.Fatalf("RunBuild failed: %v", err)
	}

	got := zipNames(t, filepath.Join(root, "from-config.xpi"))
	if diff := cmp.Diff([]string{"manifest.json", "popup/index.html"}, got); diff != "" {
		t.Errorf("archive entries mismatch (-want +got):\n%s", diff)
	}
}

func TestRunBuild_ConfigFileIsNeverPackaged(t *testing.T) {
	captureLog(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"manifest.json":       "{}",
		config.ConfigFileName: `{"include": ["."], "output": "ext.xpi"}`,
	})

	if err := cmd.RunBuild(context.Background(), map[string]interface{}{"root": root}); err != nil {
		t.Fatalf("RunBuild failed: %v", err)
	}
	if diff := cmp.Diff([]string{"manifest.json"}, zipNames(t, filepath.Join(root, "ext.xpi"))); diff != "" {
		t.Errorf("archive entries mismatch (-want +got):\n%s", diff)
	}
}

func TestRunBuild_Errors(t *testing.T) {
	t.Run("Fail On Missing", func(t *testing.T) {
		captureLog(t)
		root := t.TempDir()
		writeTree(t, root, map[string]string{"manifest.json": "{}"})

		err := cmd.RunBuild(context.Background(), map[string]interface{}{"root": root, "on-missing": "fail"})
		if !errors.Is(err, packager.ErrMissingEntry) {
			t.Fatalf("expected ErrMissingEntry, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(root, config.DefaultOutput)); !os.IsNotExist(err) {
			t.Errorf("expected no archive to be written, stat err: %v", err)
		}
	})

	t.Run("Invalid Flag Value", func(t *testing.T) {
		captureLog(t)
		err := cmd.RunBuild(context.Background(), map[string]interface{}{"root": t.TempDir(), "format": "rar"})
		if err == nil {
			t.Fatal("expected validation error, got nil")
		}
	})

	t.Run("Malformed Config File", func(t *testing.T) {
		captureLog(t)
		root := t.TempDir()
		writeTree(t, root, map[string]string{config.ConfigFileName: "{"})
		if err := cmd.RunBuild(context.Background(), map[string]interface{}{"root": root}); err == nil {
			t.Fatal("expected config error, got nil")
		}
	})
}

func TestRunBuild_DryRun(t *testing.T) {
	logBuf := captureLog(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"manifest.json": "{}"})

	if err := cmd.RunBuild(context.Background(), map[string]interface{}{"root": root, "dry-run": true}); err != nil {
		t.Fatalf("RunBuild failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, config.DefaultOutput)); !os.IsNotExist(err) {
		t.Errorf("expected dry run to write nothing, stat err: %v", err)
	}
	if !strings.Contains(logBuf.String(), "[DRY RUN]") {
		t.Errorf("expected dry run log lines, got:\n%s", logBuf.String())
	}
}
