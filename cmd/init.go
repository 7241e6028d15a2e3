package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aipagereader/xpipack/pkg/buildinfo"
	"github.com/aipagereader/xpipack/pkg/config"
	"github.com/aipagereader/xpipack/pkg/flagparse"
	"github.com/aipagereader/xpipack/pkg/plog"
	"github.com/aipagereader/xpipack/pkg/preflight"
)

// RunInit handles the logic for the 'init' command.
func RunInit(ctx context.Context, flagMap map[string]interface{}) error {
	root := "."
	if r, ok := flagMap["root"].(string); ok && r != "" {
		root = r
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("could not determine absolute root path for %s: %w", root, err)
	}
	if err := preflight.CheckRootAccessible(absRoot); err != nil {
		return fmt.Errorf("initialization preflight failed: %w", err)
	}

	force := false
	if f, ok := flagMap["force"]; ok {
		force = f.(bool)
	}

	absConfigFilePath := filepath.Join(absRoot, config.ConfigFileName)
	if _, err := os.Stat(absConfigFilePath); err == nil && !force {
		fmt.Printf("WARNING: Configuration file already exists at %s.\n", absConfigFilePath)
		fmt.Printf("Flags passed to init will be written over the existing values.\n")
		if !PromptForConfirmation("Are you sure you want to continue?", false) {
			plog.Info(buildinfo.Name + " init operation canceled.")
			return nil
		}
		force = true
	}

	// Try to load an existing config to preserve its settings.
	// Note: config.Load returns NewDefault() if the file simply doesn't exist.
	baseConfig, err := config.Load(absRoot)
	if err != nil {
		plog.Warn("Could not load existing configuration, starting with defaults.", "reason", err)
		baseConfig = config.NewDefault()
	}

	runConfig := config.MergeConfigWithFlags(flagparse.Init, baseConfig, flagMap)
	runConfig.Root = absRoot

	// CRITICAL: Validate the config before it is persisted
	if err := runConfig.Validate(); err != nil {
		return err
	}

	if runConfig.Runtime.DryRun {
		plog.Info("[DRY RUN] Initialization complete. No changes made.", "path", absConfigFilePath)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	startTime := time.Now()
	if err := config.Generate(runConfig, force); err != nil {
		return fmt.Errorf("failed to generate config file: %w", err)
	}
	duration := time.Since(startTime).Round(time.Millisecond)
	plog.Info(buildinfo.Name+" configuration successfully initialized.", "duration", duration)
	return nil
}

// PromptForConfirmation prompts the user for a yes/no response.
func PromptForConfirmation(prompt string, defaultYes bool) bool {
	suffix := "[y/N]"
	if defaultYes {
		suffix = "[Y/n]"
	}
	fmt.Printf("%s %s: ", prompt, suffix)

	var response string
	_, _ = fmt.Scanln(&response)
	response = strings.ToLower(strings.TrimSpace(response))

	if response == "" {
		return defaultYes
	}
	return response == "y" || response == "yes"
}
