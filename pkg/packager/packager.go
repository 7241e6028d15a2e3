// Package packager builds a single compressed archive from an inclusion list of
// files and directories. Directory contents are stored under their path
// relative to the root, so "popup/ui/icon.png" stays "popup/ui/icon.png".
//
// A build never amends an existing archive. A stale output file is removed, the
// new archive is written to a temp file next to it and renamed into place once
// it is complete. Any error, including cancellation, removes the temp file.
package packager

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aipagereader/xpipack/pkg/packmetrics"
	"github.com/aipagereader/xpipack/pkg/plog"
	"github.com/aipagereader/xpipack/pkg/pool"
	"github.com/aipagereader/xpipack/pkg/preflight"
	"github.com/aipagereader/xpipack/pkg/util"
)

// DefaultBufferSizeKB is the I/O buffer size used by BuildArchive.
const DefaultBufferSizeKB = 256

// tempPattern names the in-progress archive in the output directory.
const tempPattern = ".xpipack-*.tmp"

// Entry describes one file stored in an archive.
type Entry struct {
	Name string
	Size int64
	// CompressedSize is only known when reading an archive back, and only for zip.
	CompressedSize int64
	Method         string
	Modified       time.Time
}

// Result summarizes a finished build.
type Result struct {
	Output  string
	Format  Format
	Entries []Entry
	// Missing lists inclusion entries that did not exist on disk.
	Missing []string
	// Skipped lists paths that were neither regular files nor directories.
	Skipped []string
	// Excluded lists paths matched by an exclusion pattern.
	Excluded     []string
	BytesRead    int64
	BytesWritten int64
}

// Names returns the entry names in archive order.
func (r *Result) Names() []string {
	names := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		names[i] = e.Name
	}
	return names
}

// Packager builds archives. It is safe to reuse across builds but not to share
// between concurrent builds.
type Packager struct {
	buffers *pool.FixedBufferPool
}

// New creates a Packager that copies file contents through buffers of bufferSizeKB.
func New(bufferSizeKB int) *Packager {
	return &Packager{
		buffers: pool.NewFixedBuffer(int64(bufferSizeKB) * 1024),
	}
}

// BuildArchive packages include into outputPath as a deflate zip, resolving
// relative paths against the current working directory. Missing entries are
// reported with a warning and left out.
func BuildArchive(ctx context.Context, include []string, outputPath string) (*Result, error) {
	return New(DefaultBufferSizeKB).Build(ctx, Plan{
		Include: include,
		Output:  outputPath,
	})
}

// Build runs the plan and returns what was written.
func (p *Packager) Build(ctx context.Context, plan Plan) (*Result, error) {
	plan, err := plan.resolve()
	if err != nil {
		return nil, err
	}
	if err := preflight.CheckRootAccessible(plan.Root); err != nil {
		return nil, err
	}

	var metrics packmetrics.Metrics = &packmetrics.NoopMetrics{}
	if plan.Metrics {
		metrics = &packmetrics.PackMetrics{}
	}

	includes, missing, err := resolveIncludes(plan)
	if err != nil {
		return nil, err
	}
	metrics.AddEntriesMissing(int64(len(missing)))

	result := &Result{Output: plan.Output, Format: plan.Format, Missing: missing}
	b := newBuild(plan, result, metrics)

	existing, err := os.Stat(plan.Output)
	switch {
	case err == nil && existing.IsDir():
		return nil, fmt.Errorf("%w: %s", ErrOutputIsDir, plan.Output)
	case err == nil:
		b.ignoreFile(existing)
		// A replaced archive keeps its permissions, but must stay writable for the next build.
		b.outputPerm = util.WithUserWritePermission(existing.Mode().Perm())
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("cannot access output path %s: %w", plan.Output, err)
	}

	if plan.DryRun {
		plog.Info("[DRY RUN] Creating", "path", plan.Output, "format", plan.Format)
		err := b.walk(ctx, includes, func(src sourceFile) error {
			plog.Notice("[DRY RUN] ADD", "file", src.name)
			result.Entries = append(result.Entries, Entry{
				Name:     src.name,
				Size:     src.info.Size(),
				Method:   entryMethod(plan.Format),
				Modified: src.info.ModTime(),
			})
			result.BytesRead += src.info.Size()
			metrics.AddEntriesWritten(1)
			metrics.AddBytesRead(src.info.Size())
			return nil
		})
		if err != nil {
			return nil, err
		}
		metrics.LogSummary("[DRY RUN] Packaging summary")
		return result, nil
	}

	if err := preflight.CheckOutputWritable(plan.Output); err != nil {
		return nil, err
	}
	if existing != nil {
		plog.Info("Removing existing archive", "path", plan.Output)
		if err := os.Remove(plan.Output); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove existing archive %s: %w", plan.Output, err)
		}
	}

	plog.Info("Creating", "path", plan.Output, "format", plan.Format, "level", plan.Level)
	if err := p.writeArchive(ctx, b, includes); err != nil {
		return nil, err
	}

	metrics.LogSummary("Packaging summary")
	return result, nil
}

// writeArchive writes the archive to a temp file and renames it onto the output
// path. On error the temp file is removed.
func (p *Packager) writeArchive(ctx context.Context, b *build, includes []include) (retErr error) {
	outDir := filepath.Dir(b.plan.Output)
	tmp, err := os.CreateTemp(outDir, tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create temp archive in %s: %w", outDir, err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if retErr != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	// CreateTemp uses 0600; the package should be as readable as any other file.
	if err := tmp.Chmod(b.outputPerm); err != nil {
		return fmt.Errorf("failed to set permissions on temp archive: %w", err)
	}
	if info, err := tmp.Stat(); err == nil {
		b.ignoreFile(info)
	}

	if err := p.fillArchive(ctx, b, tmp, includes); err != nil {
		return err
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp archive: %w", err)
	}
	if err := os.Rename(tmpPath, b.plan.Output); err != nil {
		return fmt.Errorf("failed to rename temp archive to %s: %w", b.plan.Output, err)
	}
	return nil
}

// fillArchive streams every source file into an archive writer on f. The
// archive is finalized on every return path.
func (p *Packager) fillArchive(ctx context.Context, b *build, f *os.File, includes []include) (retErr error) {
	cw := &countingWriter{w: f}
	bufWriter := bufio.NewWriterSize(cw, int(p.buffers.Size()))

	aw, err := newArchiveWriter(b.plan.Format, b.plan.Level, bufWriter)
	if err != nil {
		return err
	}

	defer func() {
		if err := aw.Close(); err != nil && retErr == nil {
			retErr = err
		}
		if err := bufWriter.Flush(); err != nil && retErr == nil {
			retErr = fmt.Errorf("buffer flush failed: %w", err)
		}
		b.result.BytesWritten = cw.n
		b.metrics.AddBytesWritten(cw.n)
	}()

	bufPtr := p.buffers.Get()
	defer p.buffers.Put(bufPtr)
	buf := (*bufPtr)[:cap(*bufPtr)]

	return b.walk(ctx, includes, func(src sourceFile) error {
		n, err := addFile(aw, src, buf)
		if err != nil {
			return err
		}
		plog.Notice("ADD", "file", src.name)
		b.result.Entries = append(b.result.Entries, Entry{
			Name:     src.name,
			Size:     n,
			Method:   entryMethod(b.plan.Format),
			Modified: src.info.ModTime(),
		})
		b.result.BytesRead += n
		b.metrics.AddEntriesWritten(1)
		b.metrics.AddBytesRead(n)
		return nil
	})
}

func addFile(aw archiveWriter, src sourceFile, buf []byte) (int64, error) {
	f, err := secureFileOpen(src.abs, src.info)
	if err != nil {
		return 0, fmt.Errorf("failed to open file %s: %w", src.abs, err)
	}
	defer f.Close()
	return aw.AddFile(f, src.name, src.info, buf)
}

func entryMethod(format Format) string {
	if format == Zip {
		return "deflate"
	}
	return format.String()
}
