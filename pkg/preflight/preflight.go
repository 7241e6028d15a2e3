// Package preflight provides checks that run before a build touches the
// filesystem. They are read-only apart from the windows write probe, and turn
// low-level failures into messages that name the offending path.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"
)

// CheckRootAccessible validates that the root directory exists and is a directory.
func CheckRootAccessible(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("root directory %s does not exist", root)
		}
		return fmt.Errorf("cannot stat root directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path %s is not a directory", root)
	}
	return nil
}

// CheckOutputWritable ensures an archive can be created at outputPath:
//  1. The parent directory exists and is a directory.
//  2. The parent directory is writable, so the temp archive and rename succeed.
//  3. An existing file at outputPath can be replaced.
func CheckOutputWritable(outputPath string) error {
	dir := filepath.Dir(outputPath)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory %s does not exist", dir)
		}
		return fmt.Errorf("cannot access output directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", dir)
	}

	if err := platformCheckDirWritable(dir); err != nil {
		return err
	}
	return platformCheckReplaceable(outputPath)
}
