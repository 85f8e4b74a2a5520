package tracing

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/ecibridge/blocks"
	"github.com/sarchlab/ecibridge/hooking"
	"github.com/sarchlab/ecibridge/naming"
	"github.com/sarchlab/ecibridge/reporting"
	"github.com/sarchlab/ecibridge/simulation"
)

// LogTracer writes lifecycle transitions at debug level and steps at trace
// level.
type LogTracer struct {
	logger *logrus.Logger
}

// NewLogTracer creates a LogTracer. A nil logger means the standard logger.
func NewLogTracer(logger *logrus.Logger) *LogTracer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &LogTracer{logger: logger}
}

// Func logs the hook site.
func (t *LogTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case blocks.HookPosStateChange:
		t.logger.WithFields(logrus.Fields{
			"block": domainName(ctx.Domain),
			"state": ctx.Detail,
		}).Debug("block state changed")
	case blocks.HookPosEventReported:
		rep, _ := ctx.Item.(reporting.Report)
		t.logger.WithFields(logrus.Fields{
			"block":    domainName(ctx.Domain),
			"step":     ctx.Step,
			"event_id": rep.EventID,
		}).Trace("event reported")
	case simulation.HookPosBeforeStep:
		t.logger.WithField("step", ctx.Step).Trace("step begins")
	case simulation.HookPosAfterStep:
		t.logger.WithField("step", ctx.Step).Trace("step ends")
	}
}

func domainName(d hooking.Hookable) string {
	if n, ok := d.(naming.Named); ok {
		return n.Name()
	}

	return ""
}
