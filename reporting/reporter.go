// Package reporting delivers the events raised by event blocks to whoever
// consumes them: the log, a recording, or an in-memory collector.
package reporting

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// A Report is one event raised by an event block during a step.
type Report struct {
	Step      uint64
	SID       string
	EventID   uint8
	EventType uint8
	EventMask uint32
	Message   string
}

// A Reporter consumes event reports. Report is called from the step loop and
// must not block for long.
type Reporter interface {
	Report(r Report)
}

// Discard drops every report.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Report) {}

// Multi fans a report out to several reporters in order.
type Multi []Reporter

// Report forwards the report to every reporter.
func (m Multi) Report(r Report) {
	for _, reporter := range m {
		reporter.Report(r)
	}
}

// LogReporter writes each report as a structured log entry.
type LogReporter struct {
	logger *logrus.Logger
	level  logrus.Level
}

// NewLogReporter creates a LogReporter. A nil logger means the standard
// logrus logger.
func NewLogReporter(logger *logrus.Logger) *LogReporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &LogReporter{
		logger: logger,
		level:  logrus.InfoLevel,
	}
}

// WithLevel sets the level reports are logged at.
func (r *LogReporter) WithLevel(level logrus.Level) *LogReporter {
	r.level = level
	return r
}

// Report logs the report.
func (r *LogReporter) Report(rep Report) {
	r.logger.WithFields(logrus.Fields{
		"step":       rep.Step,
		"sid":        rep.SID,
		"event_id":   rep.EventID,
		"event_type": rep.EventType,
		"event_mask": rep.EventMask,
	}).Log(r.level, rep.Message)
}

// Collector keeps every report in memory.
type Collector struct {
	mu      sync.Mutex
	reports []Report
}

// Report stores the report.
func (c *Collector) Report(r Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reports = append(c.reports, r)
}

// Reports returns a copy of the stored reports in arrival order.
func (c *Collector) Reports() []Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Report, len(c.reports))
	copy(out, c.reports)

	return out
}

// Reset drops the stored reports.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reports = nil
}
