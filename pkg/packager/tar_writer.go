package packager

import (
	"archive/tar"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

// tarArchiveWriter implements archiveWriter for .tar.gz and .tar.zst files.
type tarArchiveWriter struct {
	tw               *tar.Writer
	compressedWriter io.WriteCloser
}

func newTarArchiveWriter(w io.Writer, format Format, level Level) (*tarArchiveWriter, error) {
	var compressedWriter io.WriteCloser
	switch format {
	case TarGz:
		gw, err := pgzip.NewWriterLevel(w, level.gzipLevel())
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip writer: %w", err)
		}
		compressedWriter = gw
	case TarZst:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(level.zstdLevel()))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		compressedWriter = zw
	default:
		return nil, fmt.Errorf("unsupported tar format: %s", format)
	}
	return &tarArchiveWriter{
		tw:               tar.NewWriter(compressedWriter),
		compressedWriter: compressedWriter,
	}, nil
}

func (taw *tarArchiveWriter) AddFile(f *os.File, name string, info os.FileInfo, buf []byte) (int64, error) {
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return 0, fmt.Errorf("failed to create tar header for %s: %w", name, err)
	}
	header.Name = name

	if err := taw.tw.WriteHeader(header); err != nil {
		return 0, fmt.Errorf("failed to write tar header for %s: %w", name, err)
	}

	// The header already fixed the size; never copy past it.
	n, err := io.CopyBuffer(taw.tw, io.LimitReader(f, header.Size), buf)
	if err != nil {
		return n, fmt.Errorf("failed to copy %s into tar: %w", name, err)
	}
	return n, nil
}

// Close finalizes the tar stream, then the compressor.
func (taw *tarArchiveWriter) Close() error {
	if err := taw.tw.Close(); err != nil {
		taw.compressedWriter.Close()
		return fmt.Errorf("tar writer close failed: %w", err)
	}
	if err := taw.compressedWriter.Close(); err != nil {
		return fmt.Errorf("compressor close failed: %w", err)
	}
	return nil
}
