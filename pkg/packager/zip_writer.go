package packager

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// zipArchiveWriter writes every entry deflate-compressed.
type zipArchiveWriter struct {
	zw *zip.Writer

	// Pool for flate writers so each entry reuses the compressor state.
	flatePool *sync.Pool
}

// Wrapper to return flate writer to pool on close
type pooledFlateWriter struct {
	*flate.Writer
	pool *sync.Pool
}

func (w *pooledFlateWriter) Close() error {
	err := w.Writer.Close()
	w.pool.Put(w.Writer)
	return err
}

func newZipArchiveWriter(w io.Writer, level Level) *zipArchiveWriter {
	lvl := level.flateLevel()
	zaw := &zipArchiveWriter{
		zw: zip.NewWriter(w),
		flatePool: &sync.Pool{
			New: func() any {
				fw, _ := flate.NewWriter(io.Discard, lvl)
				return fw
			},
		},
	}
	zaw.zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		fw := zaw.flatePool.Get().(*flate.Writer)
		fw.Reset(out)
		return &pooledFlateWriter{Writer: fw, pool: zaw.flatePool}, nil
	})
	return zaw
}

func (zaw *zipArchiveWriter) AddFile(f *os.File, name string, info os.FileInfo, buf []byte) (int64, error) {
	// FileInfoHeader keeps the source permissions and modification time.
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, fmt.Errorf("failed to create zip header for %s: %w", name, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zaw.zw.CreateHeader(header)
	if err != nil {
		return 0, fmt.Errorf("failed to write zip header for %s: %w", name, err)
	}
	n, err := io.CopyBuffer(w, f, buf)
	if err != nil {
		return n, fmt.Errorf("failed to copy %s into zip: %w", name, err)
	}
	return n, nil
}

func (zaw *zipArchiveWriter) Close() error {
	if err := zaw.zw.Close(); err != nil {
		return fmt.Errorf("zip writer close failed: %w", err)
	}
	return nil
}
