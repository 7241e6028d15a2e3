package packager

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/aipagereader/xpipack/pkg/packmetrics"
	"github.com/aipagereader/xpipack/pkg/plog"
	"github.com/aipagereader/xpipack/pkg/util"
)

// include is a top-level inclusion entry that exists on disk.
type include struct {
	name string      // entry name prefix, "" for the root itself
	abs  string      // absolute path as listed
	info os.FileInfo // symlinks followed
}

// sourceFile is one regular file headed for the archive.
type sourceFile struct {
	name string
	abs  string
	info os.FileInfo
}

// resolveIncludes turns the inclusion list into existing entries and the list of
// missing ones. It never touches the output path, so a FailOnMissing run leaves
// any previous archive in place.
func resolveIncludes(plan Plan) ([]include, []string, error) {
	var includes []include
	var missing []string

	for _, raw := range util.Deduplicate(plan.Include) {
		clean := filepath.Clean(filepath.FromSlash(raw))
		if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" ||
			clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return nil, nil, fmt.Errorf("%w: %s", ErrEntryOutsideRoot, raw)
		}

		abs := filepath.Join(plan.Root, clean)
		info, err := os.Stat(abs)
		// "manifest.json/sub" runs through a file and is just as missing.
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			missing = append(missing, raw)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("cannot access inclusion entry %s: %w", raw, err)
		}

		name := util.NormalizePath(clean)
		if name == "." {
			name = ""
		}
		includes = append(includes, include{name: name, abs: abs, info: info})
	}

	if len(missing) > 0 && plan.OnMissing == FailOnMissing {
		return nil, missing, fmt.Errorf("%w: %s", ErrMissingEntry, strings.Join(missing, ", "))
	}
	for _, m := range missing {
		plog.Warn("Inclusion entry not found, skipping", "path", m)
	}
	return includes, missing, nil
}

// build carries the state of a single packaging run.
type build struct {
	plan    Plan
	result  *Result
	metrics packmetrics.Metrics

	excludeFiles exclusionSet
	excludeDirs  exclusionSet

	// ignore holds files that must never end up in the archive: the previous
	// output and the temp file being written. Temp archives left behind by an
	// interrupted run are matched by name in emit.
	ignore []os.FileInfo
	// seen dedups entry names when listed paths overlap.
	seen map[string]struct{}
	// outputPerm is applied to the finished archive.
	outputPerm os.FileMode
}

func newBuild(plan Plan, result *Result, metrics packmetrics.Metrics) *build {
	return &build{
		plan:         plan,
		result:       result,
		metrics:      metrics,
		excludeFiles: makeExclusionSet(plan.ExcludeFiles),
		excludeDirs:  makeExclusionSet(plan.ExcludeDirs),
		seen:         make(map[string]struct{}),
		outputPerm:   util.UserWritableFilePerms,
	}
}

func (b *build) ignoreFile(info os.FileInfo) {
	b.ignore = append(b.ignore, info)
}

// walk visits every regular file reachable from includes, in list order.
func (b *build) walk(ctx context.Context, includes []include, visit func(sourceFile) error) error {
	for _, inc := range includes {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch {
		case inc.info.Mode().IsRegular():
			if b.excludeFiles.matches(inc.name) {
				b.exclude(inc.name)
				continue
			}
			plog.Info("Adding file", "path", inc.name)
			if err := b.emit(sourceFile{name: inc.name, abs: inc.abs, info: inc.info}, visit); err != nil {
				return err
			}
		case inc.info.IsDir():
			if inc.name != "" && b.excludeDirs.matches(inc.name) {
				b.exclude(inc.name)
				continue
			}
			displayName := inc.name
			if displayName == "" {
				displayName = "."
			}
			plog.Info("Adding folder", "path", displayName)
			if err := b.walkDir(ctx, inc, visit); err != nil {
				return err
			}
		default:
			b.skip(inc.name, "not a regular file or directory")
		}
	}
	return nil
}

func (b *build) walkDir(ctx context.Context, inc include, visit func(sourceFile) error) error {
	// WalkDir does not descend into a symlinked root, so resolve it first.
	walkRoot := inc.abs
	if linfo, err := os.Lstat(inc.abs); err == nil && linfo.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(inc.abs)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", inc.abs, err)
		}
		walkRoot = resolved
	}

	return filepath.WalkDir(walkRoot, func(absPath string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			return fmt.Errorf("failed to walk %s: %w", absPath, walkErr)
		}
		if absPath == walkRoot {
			return nil
		}

		rel, err := filepath.Rel(walkRoot, absPath)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", absPath, err)
		}
		name := path.Join(inc.name, filepath.ToSlash(rel))

		if d.IsDir() {
			if b.excludeDirs.matches(name) {
				b.exclude(name)
				return filepath.SkipDir
			}
			return nil
		}

		var info os.FileInfo
		if d.Type()&os.ModeSymlink != 0 {
			// Links to files are stored as the file's content; links to
			// directories are not followed.
			info, err = os.Stat(absPath)
			if err != nil {
				plog.Warn("Skipping broken symlink", "path", name, "error", err)
				b.skip(name, "broken symlink")
				return nil
			}
			if info.IsDir() {
				b.skip(name, "symlink to directory")
				return nil
			}
		} else {
			info, err = d.Info()
			if err != nil {
				return fmt.Errorf("failed to get file info for %s: %w", absPath, err)
			}
		}

		if !info.Mode().IsRegular() {
			b.skip(name, "not a regular file")
			return nil
		}
		if b.excludeFiles.matches(name) {
			b.exclude(name)
			return nil
		}
		return b.emit(sourceFile{name: name, abs: absPath, info: info}, visit)
	})
}

func (b *build) emit(src sourceFile, visit func(sourceFile) error) error {
	for _, ignored := range b.ignore {
		if os.SameFile(ignored, src.info) {
			plog.Debug("Skipping the archive itself", "path", src.name)
			return nil
		}
	}
	if ok, _ := path.Match(tempPattern, path.Base(src.name)); ok {
		plog.Debug("Skipping leftover temp archive", "path", src.name)
		return nil
	}
	if _, ok := b.seen[src.name]; ok {
		plog.Debug("Skipping duplicate entry", "path", src.name)
		return nil
	}
	b.seen[src.name] = struct{}{}
	return visit(src)
}

func (b *build) skip(name, reason string) {
	plog.Notice("SKIP", "path", name, "reason", reason)
	b.result.Skipped = append(b.result.Skipped, name)
	b.metrics.AddEntriesSkipped(1)
}

func (b *build) exclude(name string) {
	plog.Notice("EXCLUDE", "path", name)
	b.result.Excluded = append(b.result.Excluded, name)
}
