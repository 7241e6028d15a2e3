package packmetrics

import (
	"fmt"
	"sync/atomic"

	"github.com/aipagereader/xpipack/pkg/plog"
)

// Metrics defines the interface for collecting and reporting packaging statistics.
type Metrics interface {
	AddEntriesWritten(n int64)
	AddEntriesMissing(n int64)
	AddEntriesSkipped(n int64)
	AddBytesRead(n int64)
	AddBytesWritten(n int64)
	LogSummary(msg string)
}

// PackMetrics holds the atomic counters for tracking a packaging run.
// It is the concrete implementation of the Metrics interface.
type PackMetrics struct {
	EntriesWritten atomic.Int64
	EntriesMissing atomic.Int64
	EntriesSkipped atomic.Int64
	BytesRead      atomic.Int64
	BytesWritten   atomic.Int64
}

func (m *PackMetrics) AddEntriesWritten(n int64) { m.EntriesWritten.Add(n) }
func (m *PackMetrics) AddEntriesMissing(n int64) { m.EntriesMissing.Add(n) }
func (m *PackMetrics) AddEntriesSkipped(n int64) { m.EntriesSkipped.Add(n) }
func (m *PackMetrics) AddBytesRead(n int64)      { m.BytesRead.Add(n) }
func (m *PackMetrics) AddBytesWritten(n int64)   { m.BytesWritten.Add(n) }

// Ratio returns the archive size as a percentage of the bytes read.
func (m *PackMetrics) Ratio() float64 {
	read := m.BytesRead.Load()
	if read == 0 {
		return 0
	}
	return float64(m.BytesWritten.Load()) / float64(read) * 100.0
}

// LogSummary logs the current state of the metrics.
func (m *PackMetrics) LogSummary(msg string) {
	plog.Info(msg,
		"entries_written", m.EntriesWritten.Load(),
		"entries_missing", m.EntriesMissing.Load(),
		"entries_skipped", m.EntriesSkipped.Load(),
		"bytes_read", fmt.Sprintf("%d", m.BytesRead.Load()),
		"bytes_written", fmt.Sprintf("%d", m.BytesWritten.Load()),
		"ratio_pct", fmt.Sprintf("%.2f%%", m.Ratio()),
	)
}

// NoopMetrics is an implementation of the Metrics interface that performs no operations.
// It can be used to disable metrics collection without changing the calling code.
type NoopMetrics struct{}

func (m *NoopMetrics) AddEntriesWritten(n int64) {}
func (m *NoopMetrics) AddEntriesMissing(n int64) {}
func (m *NoopMetrics) AddEntriesSkipped(n int64) {}
func (m *NoopMetrics) AddBytesRead(n int64)      {}
func (m *NoopMetrics) AddBytesWritten(n int64)   {}
func (m *NoopMetrics) LogSummary(msg string)     {}

// Statically assert that our types implement the interface.
var _ Metrics = (*PackMetrics)(nil)
var _ Metrics = (*NoopMetrics)(nil)
