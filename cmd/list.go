package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/aipagereader/xpipack/pkg/packager"
	"github.com/aipagereader/xpipack/pkg/plog"
)

// RunList handles the logic for the list command.
func RunList(ctx context.Context, flagMap map[string]any) error {
	archive, ok := flagMap["archive"].(string)
	if !ok || archive == "" {
		return fmt.Errorf("the -archive flag is required to run list")
	}

	if lvl, ok := flagMap["log-level"].(string); ok {
		plog.SetLevel(plog.LevelFromString(lvl))
	}

	format := packager.DetectFormat(archive)
	if f, ok := flagMap["format"].(string); ok && f != "" {
		var err error
		if format, err = packager.ParseFormat(f); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := packager.ListEntries(archive, format)
	if err != nil {
		return err
	}
	return printEntries(os.Stdout, entries)
}

// printEntries writes one aligned line per entry followed by a total.
func printEntries(w io.Writer, entries []packager.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SIZE\tMODIFIED\tMETHOD\tNAME")
	var total int64
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Size, e.Modified.Format("2006-01-02 15:04"), e.Method, e.Name)
		total += e.Size
	}
	fmt.Fprintf(tw, "%d\t\t\t%d entries\n", total, len(entries))
	return tw.Flush()
}
