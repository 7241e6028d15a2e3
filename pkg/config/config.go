package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aipagereader/xpipack/pkg/buildinfo"
	"github.com/aipagereader/xpipack/pkg/flagparse"
	"github.com/aipagereader/xpipack/pkg/packager"
	"github.com/aipagereader/xpipack/pkg/plog"
	"github.com/aipagereader/xpipack/pkg/util"
)

// ConfigFileName is looked up in the extension root directory.
const ConfigFileName = "xpipack.config.json"

// DefaultOutput is the archive created when no output is configured.
const DefaultOutput = "ai-page-reader.xpi"

// defaultInclude is the extension layout packaged when no inclusion list is configured.
var defaultInclude = []string{
	"manifest.json",
	"popup",
	"content",
	"assets",
	"services",
	"settings",
	"utils",
	"LICENSE",
	"README.md",
}

// systemExcludeFilePatterns are always excluded, they are never part of an extension.
var systemExcludeFilePatterns = []string{ConfigFileName}

// DefaultInclude returns a copy of the default inclusion list.
func DefaultInclude() []string {
	return append([]string(nil), defaultInclude...)
}

type RuntimeConfig struct {
	DryRun bool
}

type Config struct {
	Version          string                 `json:"version"`
	Root             string                 `json:"-"` // Never added to config file
	Runtime          RuntimeConfig          `json:"-"` // Never added to config file
	LogLevel         string                 `json:"logLevel"`
	Include          []string               `json:"include"`
	Output           string                 `json:"output"`
	Format           packager.Format        `json:"format"`
	CompressionLevel packager.Level         `json:"compressionLevel"`
	OnMissing        packager.MissingPolicy `json:"onMissing"`
	ExcludeFiles     []string               `json:"excludeFiles,omitempty"`
	ExcludeDirs      []string               `json:"excludeDirs,omitempty"`
	Metrics          bool                   `json:"metrics"`
	BufferSizeKB     int                    `json:"bufferSizeKB"`
}

// NewDefault creates and returns a Config that packages the default inclusion
// list from the current directory into DefaultOutput.
func NewDefault() Config {
	return Config{
		Version:          buildinfo.Version,
		Root:             ".",
		LogLevel:         "info",
		Include:          DefaultInclude(),
		Output:           DefaultOutput,
		Format:           packager.Zip,
		CompressionLevel: packager.Default,
		OnMissing:        packager.WarnOnMissing,
		Metrics:          false,
		BufferSizeKB:     packager.DefaultBufferSizeKB,
	}
}

// Load attempts to load a configuration from "xpipack.config.json" in root.
// If the file doesn't exist, it returns the default config without an error.
// If the file exists but fails to parse, it returns an error and a zero-value config.
func Load(root string) (Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Config{}, fmt.Errorf("could not determine absolute path for root directory %s: %w", root, err)
	}

	configPath := filepath.Join(absRoot, ConfigFileName)

	file, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			config := NewDefault()
			config.Root = absRoot
			return config, nil // Config file doesn't exist, which is a normal case.
		}
		return Config{}, fmt.Errorf("error opening config file %s: %w", configPath, err)
	}
	defer file.Close()

	plog.Info("Loading configuration", "path", configPath)
	// Start with default values, then overwrite with the file's content.
	// Fields missing from the JSON keep their defaults.
	config := NewDefault()
	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("error parsing config file %s: %w", configPath, err)
	}
	config.Root = absRoot

	if config.Version != buildinfo.Version {
		config.Version = buildinfo.Version
	}
	return config, nil
}

// Generate writes the configuration to "xpipack.config.json" in its root
// directory. An existing file is only replaced when force is set.
func Generate(configToGenerate Config, force bool) error {
	configPath := filepath.Join(configToGenerate.Root, ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file %s already exists, use -force to overwrite it", configPath)
	}

	jsonData, err := json.MarshalIndent(configToGenerate, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config to JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	if err := os.WriteFile(configPath, jsonData, util.UserWritableFilePerms); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	plog.Info("Successfully saved config file", "path", configPath)
	return nil
}

// Validate checks the configuration for logical errors and inconsistencies.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root directory cannot be empty")
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if len(c.Include) == 0 {
		return fmt.Errorf("inclusion list cannot be empty")
	}
	for i, entry := range c.Include {
		if strings.TrimSpace(entry) == "" {
			return fmt.Errorf("inclusion list entry %d is empty", i)
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "notice", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q. Must be 'debug', 'notice', 'info', 'warn', or 'error'", c.LogLevel)
	}

	if _, err := packager.ParseFormat(string(c.Format)); err != nil {
		return err
	}
	if _, err := packager.ParseLevel(string(c.CompressionLevel)); err != nil {
		return err
	}
	if _, err := packager.ParseMissingPolicy(string(c.OnMissing)); err != nil {
		return err
	}

	if c.BufferSizeKB <= 0 {
		return fmt.Errorf("bufferSizeKB must be at least 1")
	}

	if err := validateGlobPatterns("excludeFiles", c.ExcludeFiles); err != nil {
		return err
	}
	if err := validateGlobPatterns("excludeDirs", c.ExcludeDirs); err != nil {
		return err
	}

	if detected := packager.DetectFormat(c.Output); c.Format != "" && detected != c.Format {
		plog.Warn("Output file name does not match the archive format", "output", c.Output, "format", c.Format)
	}
	return nil
}

// LogSummary prints a user-friendly summary of the configuration.
func (c *Config) LogSummary() {
	logArgs := []interface{}{
		"log_level", c.LogLevel,
		"root", c.Root,
		"output", c.Output,
		"format", c.Format,
		"compression_level", c.CompressionLevel,
		"on_missing", c.OnMissing,
		"dry_run", c.Runtime.DryRun,
		"metrics", c.Metrics,
		"buffer_size_kb", c.BufferSizeKB,
		"include", strings.Join(c.Include, ", "),
	}
	if excludeFiles := c.ExcludeFilesList(); len(excludeFiles) > 0 {
		logArgs = append(logArgs, "exclude_files", strings.Join(excludeFiles, ", "))
	}
	if len(c.ExcludeDirs) > 0 {
		logArgs = append(logArgs, "exclude_dirs", strings.Join(c.ExcludeDirs, ", "))
	}
	plog.Info("Configuration loaded", logArgs...)
}

// validateGlobPatterns checks if a list of strings are valid glob patterns.
func validateGlobPatterns(fieldName string, patterns []string) error {
	for _, pattern := range patterns {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid glob pattern for %s: %q - %w", fieldName, pattern, err)
		}
	}
	return nil
}

// ExcludeFilesList returns the user file exclusions combined with the
// non-overridable system patterns, deduplicated.
func (c *Config) ExcludeFilesList() []string {
	return util.Deduplicate(append(append([]string(nil), systemExcludeFilePatterns...), c.ExcludeFiles...))
}

// Plan converts the configuration into a packaging plan.
func (c *Config) Plan() packager.Plan {
	return packager.Plan{
		Root:         c.Root,
		Include:      append([]string(nil), c.Include...),
		Output:       c.Output,
		Format:       c.Format,
		Level:        c.CompressionLevel,
		OnMissing:    c.OnMissing,
		ExcludeFiles: c.ExcludeFilesList(),
		ExcludeDirs:  append([]string(nil), c.ExcludeDirs...),
		DryRun:       c.Runtime.DryRun,
		Metrics:      c.Metrics,
	}
}

// MergeConfigWithFlags overlays the configuration values from flags on top of a base
// configuration. It iterates over the setFlags map, which contains only the flags
// explicitly provided by the user on the command line.
func MergeConfigWithFlags(command flagparse.Command, base Config, setFlags map[string]any) Config {
	merged := base
	merged.Include = append([]string(nil), base.Include...)

	for name, value := range setFlags {
		switch name {
		case "root":
			merged.Root = value.(string)
		case "log-level":
			merged.LogLevel = value.(string)
		case "dry-run":
			merged.Runtime.DryRun = value.(bool)
		case "metrics":
			merged.Metrics = value.(bool)
		case "output":
			merged.Output = value.(string)
		case "include":
			merged.Include = value.([]string)
		case "format":
			merged.Format = packager.Format(value.(string))
		case "compression-level":
			merged.CompressionLevel = packager.Level(value.(string))
		case "on-missing":
			merged.OnMissing = packager.MissingPolicy(value.(string))
		case "exclude-files":
			merged.ExcludeFiles = value.([]string)
		case "exclude-dirs":
			merged.ExcludeDirs = value.([]string)
		case "buffer-size-kb":
			merged.BufferSizeKB = value.(int)
		default:
			plog.Debug("unhandled flag in MergeConfigWithFlags", "command", command, "flag", name)
		}
	}
	return merged
}
