package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/aipagereader/xpipack/pkg/config"
	"github.com/aipagereader/xpipack/pkg/flagparse"
	"github.com/aipagereader/xpipack/pkg/packager"
	"github.com/aipagereader/xpipack/pkg/plog"
)

// RunBuild handles the logic for the build command. Every setting is optional:
// without flags the default inclusion list in the current directory is packaged.
func RunBuild(ctx context.Context, flagMap map[string]interface{}) error {
	root := "."
	if r, ok := flagMap["root"].(string); ok && r != "" {
		root = r
	}

	// Load config from the root directory, or use defaults if not found.
	loadedConfig, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("failed to load configuration from root: %w", err)
	}

	// Merge the flag values over the loaded config to get the final run config.
	runConfig := config.MergeConfigWithFlags(flagparse.Build, loadedConfig, flagMap)

	// CRITICAL: Validate the config for the run
	if err := runConfig.Validate(); err != nil {
		return err
	}

	// Set the global log level based on the final configuration.
	plog.SetLevel(plog.LevelFromString(runConfig.LogLevel))

	runConfig.LogSummary()

	startTime := time.Now()
	result, err := packager.New(runConfig.BufferSizeKB).Build(ctx, runConfig.Plan())
	duration := time.Since(startTime).Round(time.Millisecond)
	if err != nil {
		return err // The error will be logged with full details by main()
	}

	if runConfig.Runtime.DryRun {
		plog.Info("[DRY RUN] Build complete. No changes made.", "entries", len(result.Entries), "missing", len(result.Missing), "duration", duration)
		return nil
	}
	plog.Info("Done! Archive created successfully.",
		"path", result.Output,
		"entries", len(result.Entries),
		"missing", len(result.Missing),
		"bytes_written", result.BytesWritten,
		"duration", duration)
	return nil
}
