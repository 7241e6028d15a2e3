package flagparse

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aipagereader/xpipack/pkg/buildinfo"
)

// cliFlags holds pointers to all possible command-line flags.
// Fields are pointers so we can distinguish between "not registered for this command" (nil)
// and "registered but not set by user" (non-nil pointer to zero value).
type cliFlags struct {
	// Global
	LogLevel *string
	DryRun   *bool
	Metrics  *bool

	// Shared: Build / Init
	Root             *string
	Output           *string
	Include          *string
	Format           *string
	CompressionLevel *string
	OnMissing        *string
	ExcludeFiles     *string
	ExcludeDirs      *string
	BufferSizeKB     *int

	// List specific
	Archive *string

	// Init specific
	Force *bool
}

func registerGlobalFlags(fs *flag.FlagSet, f *cliFlags) {
	f.LogLevel = fs.String("log-level", "info", "Set the logging level: 'debug', 'notice', 'info', 'warn', 'error'.")
	f.DryRun = fs.Bool("dry-run", false, "Show what would be done without making any changes.")
	f.Metrics = fs.Bool("metrics", false, "Enable file-counting and compression metrics.")
}

// registerPackageFlags registers the flags that describe an archive. Build uses
// them for a single run, init persists them to the config file.
func registerPackageFlags(fs *flag.FlagSet, f *cliFlags) {
	f.Root = fs.String("root", ".", "Extension root directory the inclusion list is resolved against.")
	f.Output = fs.String("output", "", "Archive file to create, relative to the root unless absolute.")
	f.Include = fs.String("include", "", "Comma-separated inclusion list of top-level files and directories. Replaces the configured list.")
	f.Format = fs.String("format", "", "Archive format: 'zip', 'tar.gz', or 'tar.zst'.")
	f.CompressionLevel = fs.String("compression-level", "", "Compression level: 'default', 'fastest', 'better', 'best'.")
	f.OnMissing = fs.String("on-missing", "", "What to do when an inclusion entry does not exist: 'warn' or 'fail'.")
	f.ExcludeFiles = fs.String("exclude-files", "", "Comma-separated list of case-insensitive file names to exclude (supports glob patterns).")
	f.ExcludeDirs = fs.String("exclude-dirs", "", "Comma-separated list of case-insensitive directory names to exclude (supports glob patterns).")
	f.BufferSizeKB = fs.Int("buffer-size-kb", 0, "Size of the I/O buffer in kilobytes for file copies and compression.")
}

func registerListFlags(fs *flag.FlagSet, f *cliFlags) {
	f.Archive = fs.String("archive", "", "Archive to list. (Required)")
	f.Format = fs.String("format", "", "Archive format: 'zip', 'tar.gz', or 'tar.zst'. Detected from the file name when empty.")
}

func registerInitFlags(fs *flag.FlagSet, f *cliFlags) {
	f.Force = fs.Bool("force", false, "Overwrite an existing configuration file.")
}

// Parse parses the provided arguments (usually os.Args[1:]) and returns the command and flag map.
// Without arguments, or when the first argument is a flag, it parses a build.
func Parse(args []string) (Command, map[string]interface{}, error) {
	if len(args) == 0 {
		return Build, map[string]interface{}{}, nil
	}

	cmdStr := strings.ToLower(args[0])

	if cmdStr == "help" || cmdStr == "-h" || cmdStr == "-help" || cmdStr == "--help" {
		fs := flag.NewFlagSet("main", flag.ContinueOnError)
		printTopLevelUsage(fs)
		return None, nil, nil
	}

	var command Command
	var rest []string
	if strings.HasPrefix(cmdStr, "-") {
		command, rest = Build, args
	} else {
		var err error
		command, err = ParseCommand(cmdStr)
		if err != nil {
			return None, nil, err
		}
		rest = args[1:]
	}

	f := &cliFlags{}
	fs := flag.NewFlagSet(command.String(), flag.ContinueOnError)

	switch command {
	case Build:
		registerGlobalFlags(fs, f)
		registerPackageFlags(fs, f)
		fs.Usage = func() {
			printSubcommandUsage(command, "Package the inclusion list into an archive. This is the default command.", fs)
		}

	case List:
		registerGlobalFlags(fs, f)
		registerListFlags(fs, f)
		fs.Usage = func() {
			printSubcommandUsage(command, "List the entries of an existing archive.", fs)
		}

	case Init:
		registerGlobalFlags(fs, f)
		registerPackageFlags(fs, f)
		registerInitFlags(fs, f)
		fs.Usage = func() {
			printSubcommandUsage(command, "Write a configuration file with the default inclusion list.", fs)
		}

	case Version:
		return command, nil, nil

	default:
		return None, nil, fmt.Errorf("unknown command: %s", args[0])
	}

	if err := fs.Parse(rest); err != nil {
		return command, nil, err
	}
	if fs.NArg() > 0 {
		return command, nil, fmt.Errorf("unexpected arguments for %s: %s", command, strings.Join(fs.Args(), " "))
	}
	flagMap, err := flagsToMap(fs, f)
	return command, flagMap, err
}

func flagsToMap(fs *flag.FlagSet, f *cliFlags) (map[string]interface{}, error) {
	// Create a map of the flags that were explicitly set by the user, along with their values.
	// This map is used to selectively override the base configuration.
	usedFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { usedFlags[f.Name] = true })

	flagMap := make(map[string]any)

	addIfUsed(flagMap, usedFlags, "log-level", f.LogLevel)
	addIfUsed(flagMap, usedFlags, "dry-run", f.DryRun)
	addIfUsed(flagMap, usedFlags, "metrics", f.Metrics)

	addIfUsed(flagMap, usedFlags, "root", f.Root)
	addIfUsed(flagMap, usedFlags, "output", f.Output)
	addIfUsed(flagMap, usedFlags, "format", f.Format)
	addIfUsed(flagMap, usedFlags, "compression-level", f.CompressionLevel)
	addIfUsed(flagMap, usedFlags, "on-missing", f.OnMissing)
	addIfUsed(flagMap, usedFlags, "buffer-size-kb", f.BufferSizeKB)

	addIfUsed(flagMap, usedFlags, "archive", f.Archive)
	addIfUsed(flagMap, usedFlags, "force", f.Force)

	// Handle flags that require parsing.
	addParsedIfUsed(flagMap, usedFlags, "include", f.Include, ParseList)
	addParsedIfUsed(flagMap, usedFlags, "exclude-files", f.ExcludeFiles, ParseList)
	addParsedIfUsed(flagMap, usedFlags, "exclude-dirs", f.ExcludeDirs, ParseList)

	return flagMap, nil
}

// addIfUsed adds the value of ptr to flagMap if ptr is not nil and the flag was set.
func addIfUsed[T any](flagMap map[string]interface{}, usedFlags map[string]bool, name string, ptr *T) {
	if ptr != nil && usedFlags[name] {
		flagMap[name] = *ptr
	}
}

// addParsedIfUsed adds the parsed value of ptr to flagMap if ptr is not nil and the flag was set.
func addParsedIfUsed(flagMap map[string]interface{}, usedFlags map[string]bool, name string, ptr *string, parser func(string) []string) {
	if ptr != nil && usedFlags[name] {
		flagMap[name] = parser(*ptr)
	}
}

// printTopLevelUsage prints the main help message.
func printTopLevelUsage(fs *flag.FlagSet) {

	execName := filepath.Base(os.Args[0])
	fmt.Fprintf(fs.Output(), "%s(%s) ", buildinfo.Name, buildinfo.Version)
	fmt.Fprintf(fs.Output(), "Packages a browser extension into a single archive.\n\n")
	fmt.Fprintf(fs.Output(), "Usage: %s [command] [flags]\n\n", execName)
	fmt.Fprintf(fs.Output(), "Commands:\n")
	fmt.Fprintf(fs.Output(), "  build       Package the extension (default when no command is given)\n")
	fmt.Fprintf(fs.Output(), "  list        List the entries of an archive\n")
	fmt.Fprintf(fs.Output(), "  init        Write a default configuration file\n")
	fmt.Fprintf(fs.Output(), "  version     Print the application version\n")
	fmt.Fprintf(fs.Output(), "\nRun '%s <command> -help' for more information on a command.\n", execName)
}

// printSubcommandUsage prints the help message for a specific subcommand.
func printSubcommandUsage(command Command, desc string, fs *flag.FlagSet) {

	execName := filepath.Base(os.Args[0])
	fmt.Fprintf(fs.Output(), "%s(%s) ", buildinfo.Name, buildinfo.Version)
	fmt.Fprintf(fs.Output(), "Packages a browser extension into a single archive.\n\n")
	fmt.Fprintf(fs.Output(), "Usage of the %s command: %s %s [flags]\n\n", command, execName, command)
	fmt.Fprintf(fs.Output(), "%s\n\n", desc)
	fmt.Fprintf(fs.Output(), "Flags:\n")
	fs.PrintDefaults()
}

// ParseList parses a comma-separated list of paths or patterns.
// Single (') or double (") quotes group items that contain commas or spaces and
// are removed. Backslashes are literal characters for Windows path compatibility.
func ParseList(s string) []string {
	var list []string
	var current strings.Builder
	var quoteChar rune

	// Helper to add the current buffered item to the list after trimming whitespace.
	appendItem := func() {
		trimmed := strings.TrimSpace(current.String())
		if trimmed != "" {
			list = append(list, trimmed)
		}
		current.Reset()
	}

	for _, r := range s {
		switch {
		case r == '\'' || r == '"':
			if quoteChar == 0 { // Start of a new quoted section.
				quoteChar = r
			} else if quoteChar == r { // End of the current quoted section.
				quoteChar = 0
			} else { // A different quote character inside an existing quoted section.
				current.WriteRune(r)
			}
		case r == ',' && quoteChar == 0:
			appendItem()
		default:
			current.WriteRune(r)
		}
	}
	appendItem()
	return list
}
