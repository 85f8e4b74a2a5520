package reporting

import "github.com/sarchlab/ecibridge/datarecording"

// EventReportTable is the table a RecordingReporter writes to.
const EventReportTable = "event_reports"

// RecordingReporter writes one row per report into a data recorder.
type RecordingReporter struct {
	recorder datarecording.DataRecorder
}

// NewRecordingReporter creates the event report table and returns a reporter
// that fills it.
func NewRecordingReporter(
	recorder datarecording.DataRecorder,
) *RecordingReporter {
	recorder.CreateTable(EventReportTable, Report{})

	return &RecordingReporter{recorder: recorder}
}

// Report records the report.
func (r *RecordingReporter) Report(rep Report) {
	r.recorder.InsertData(EventReportTable, rep)
}
