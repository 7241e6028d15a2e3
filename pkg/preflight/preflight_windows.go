//go:build windows

package preflight

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// platformCheckDirWritable on Windows creates and removes a probe file, since
// directory ACLs are not reflected in the mode bits.
func platformCheckDirWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".xpipack-writetest-*.tmp")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	_ = os.Remove(name)
	return nil
}

// platformCheckReplaceable rejects an existing read-only output file, which
// Windows refuses to delete.
func platformCheckReplaceable(outputPath string) error {
	p, err := windows.UTF16PtrFromString(outputPath)
	if err != nil {
		return fmt.Errorf("invalid output path %s: %w", outputPath, err)
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		if errors.Is(err, windows.ERROR_FILE_NOT_FOUND) || errors.Is(err, windows.ERROR_PATH_NOT_FOUND) {
			return nil
		}
		return fmt.Errorf("cannot read attributes of %s: %w", outputPath, err)
	}
	if attrs&windows.FILE_ATTRIBUTE_READONLY != 0 {
		return fmt.Errorf("existing archive %s is read-only and cannot be replaced", outputPath)
	}
	return nil
}
