//go:build !windows

package preflight

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// platformCheckDirWritable asks the kernel whether the current user may create
// entries in dir, without creating anything.
func platformCheckDirWritable(dir string) error {
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	return nil
}

// platformCheckReplaceable is a no-op on unix: removing or renaming over a file
// only needs write permission on its directory.
func platformCheckReplaceable(outputPath string) error {
	return nil
}
