package packager

import (
	"fmt"
	"io"
	"os"
)

// archiveWriter hides the container format from the build loop.
type archiveWriter interface {
	// AddFile copies an already opened regular file into the archive under name
	// and returns the number of content bytes read from it.
	AddFile(f *os.File, name string, info os.FileInfo, buf []byte) (int64, error)
	// Close finalizes the archive. It does not close the underlying writer.
	Close() error
}

func newArchiveWriter(format Format, level Level, w io.Writer) (archiveWriter, error) {
	switch format {
	case Zip:
		return newZipArchiveWriter(w, level), nil
	case TarGz, TarZst:
		return newTarArchiveWriter(w, format, level)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", format)
	}
}

// countingWriter counts the bytes that reach the output file.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// secureFileOpen opens absFilePath and verifies it is still the file that was
// discovered during the walk. The tar writer relies on the size not changing
// between the header and the copy.
func secureFileOpen(absFilePath string, expected os.FileInfo) (*os.File, error) {
	f, err := os.Open(absFilePath)
	if err != nil {
		return nil, err
	}

	openedInfo, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat opened file: %w", err)
	}

	if !os.SameFile(expected, openedInfo) {
		f.Close()
		return nil, fmt.Errorf("file changed while packaging: %s", absFilePath)
	}
	if openedInfo.Size() != expected.Size() {
		f.Close()
		return nil, fmt.Errorf("file size changed while packaging: %s", absFilePath)
	}
	return f, nil
}
