package packager

import (
	"fmt"
	"path/filepath"
)

// Plan describes one packaging run.
type Plan struct {
	// Root is the directory Include entries and a relative Output are resolved against.
	// Empty means the current working directory.
	Root string
	// Include is the ordered inclusion list of top-level files and directories.
	Include []string
	// Output is the archive path to (re)create.
	Output string

	Format    Format
	Level     Level
	OnMissing MissingPolicy

	ExcludeFiles []string
	ExcludeDirs  []string

	// Global Flags
	DryRun  bool
	Metrics bool
}

// resolve returns a copy of the plan with absolute Root and Output paths and
// empty enum fields replaced by their defaults.
func (p Plan) resolve() (Plan, error) {
	if p.Output == "" {
		return Plan{}, fmt.Errorf("output path cannot be empty")
	}
	root := p.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Plan{}, fmt.Errorf("could not determine absolute path for root %s: %w", root, err)
	}
	p.Root = absRoot

	if !filepath.IsAbs(p.Output) {
		p.Output = filepath.Join(absRoot, p.Output)
	}
	p.Output = filepath.Clean(p.Output)

	if p.Format == "" {
		p.Format = Zip
	}
	if p.Level == "" {
		p.Level = Default
	}
	if p.OnMissing == "" {
		p.OnMissing = WarnOnMissing
	}
	if _, err := ParseFormat(string(p.Format)); err != nil {
		return Plan{}, err
	}
	if _, err := ParseLevel(string(p.Level)); err != nil {
		return Plan{}, err
	}
	if _, err := ParseMissingPolicy(string(p.OnMissing)); err != nil {
		return Plan{}, err
	}
	return p, nil
}
