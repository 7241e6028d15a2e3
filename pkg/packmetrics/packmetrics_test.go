package packmetrics

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/aipagereader/xpipack/pkg/plog"
)

func TestPackMetrics_Adders(t *testing.T) {
	m := &PackMetrics{}

	m.AddEntriesWritten(3)
	m.AddEntriesMissing(1)
	m.AddEntriesSkipped(2)
	m.AddBytesRead(1000)
	m.AddBytesWritten(250)

	if got := m.EntriesWritten.Load(); got != 3 {
		t.Errorf("expected EntriesWritten to be 3, got %d", got)
	}
	if got := m.EntriesMissing.Load(); got != 1 {
		t.Errorf("expected EntriesMissing to be 1, got %d", got)
	}
	if got := m.EntriesSkipped.Load(); got != 2 {
		t.Errorf("expected EntriesSkipped to be 2, got %d", got)
	}
	if got := m.BytesRead.Load(); got != 1000 {
		t.Errorf("expected BytesRead to be 1000, got %d", got)
	}
	if got := m.BytesWritten.Load(); got != 250 {
		t.Errorf("expected BytesWritten to be 250, got %d", got)
	}
	if got := m.Ratio(); got != 25.0 {
		t.Errorf("expected Ratio to be 25, got %f", got)
	}
}

func TestPackMetrics_Ratio_ZeroRead(t *testing.T) {
	m := &PackMetrics{}
	m.AddBytesWritten(22) // an empty zip still has an end-of-central-directory record
	if got := m.Ratio(); got != 0 {
		t.Errorf("expected Ratio to be 0 when nothing was read, got %f", got)
	}
}

func TestPackMetrics_LogSummary(t *testing.T) {
	var logBuf bytes.Buffer
	plog.SetOutput(&logBuf)
	t.Cleanup(func() { plog.SetOutput(os.Stderr) })

	m := &PackMetrics{}
	m.AddEntriesWritten(3)
	m.AddBytesRead(200)
	m.AddBytesWritten(100)
	m.LogSummary("Package summary")

	output := logBuf.String()
	for _, want := range []string{
		`msg="Package summary"`,
		"entries_written=3",
		"bytes_read=200",
		"bytes_written=100",
		"ratio_pct=50.00%",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected log output to contain %q, got: %s", want, output)
		}
	}
}

func TestNoopMetrics(t *testing.T) {
	var logBuf bytes.Buffer
	plog.SetOutput(&logBuf)
	t.Cleanup(func() { plog.SetOutput(os.Stderr) })

	m := &NoopMetrics{}
	m.AddEntriesWritten(1)
	m.AddBytesRead(1)
	m.LogSummary("should not appear")

	if logBuf.Len() != 0 {
		t.Errorf("expected NoopMetrics to log nothing, got: %s", logBuf.String())
	}
}
